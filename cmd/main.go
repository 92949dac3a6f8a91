package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tally/db"
	"tally/internal/account"
	"tally/internal/auth"
	"tally/internal/config"
	"tally/internal/ledger"
	"tally/internal/web"
	"tally/middleware"
)

var (
	infoLogger  = log.New(os.Stdout, "", log.LstdFlags)
	errorLogger = log.New(os.Stderr, "", log.LstdFlags)
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		errorLogger.Fatalf("Failed to load configuration: %v", err)
	}

	factory, err := openStore(cfg)
	if err != nil {
		errorLogger.Fatalf("Failed to open store: %v", err)
	}

	userRepo := factory.NewUserRepository()
	entryRepo := factory.NewEntryRepository()
	defer userRepo.Close()

	tokens := auth.NewTokenService(cfg.JwtKey)
	accountHandlers := account.NewHandlers(account.NewService(userRepo), tokens)
	ledgerHandlers := ledger.NewHandlers(ledger.NewService(entryRepo))

	router := web.SetupRoutes(accountHandlers, ledgerHandlers, tokens)
	handler := middleware.LoggingMiddleware(middleware.CORS(router))

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		infoLogger.Printf("Server running on port %s (backend: %s)", cfg.Port, cfg.DatabaseType)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errorLogger.Fatalf("Server error: %v", err)
		}
	}()

	waitForShutdown(server)
}

// openStore opens whichever backend the configuration selects and wraps
// it in a repository factory
func openStore(cfg *config.Config) (*db.RepositoryFactory, error) {
	switch cfg.DatabaseType {
	case config.JSONFile:
		infoLogger.Println("Using JSON file store")
		store, err := db.NewJSONStore(cfg.DataFilePath)
		if err != nil {
			return nil, err
		}
		return db.NewRepositoryFactory(nil, store, nil, cfg.DatabaseName), nil
	case config.MongoDB:
		infoLogger.Println("Using MongoDB database")
		client, err := db.ConnectToMongo(cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		return db.NewRepositoryFactory(nil, nil, client, cfg.DatabaseName), nil
	default:
		infoLogger.Println("Using SQLite database")
		sqliteDB, err := db.ConnectToSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := db.InitializeSchema(sqliteDB); err != nil {
			return nil, err
		}
		return db.NewRepositoryFactory(sqliteDB, nil, nil, cfg.DatabaseName), nil
	}
}

func waitForShutdown(server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	sig := <-stop
	infoLogger.Printf("Received shutdown signal: %v", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		errorLogger.Printf("Server shutdown error: %v", err)
		os.Exit(1)
	}
	infoLogger.Println("Server stopped")
}
