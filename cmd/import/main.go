// Command import performs the one-shot load of a legacy JSON export
// into the configured store. Records whose key already exists are
// skipped, never overwritten, so re-running the import is safe.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"os"

	"tally/db"
	"tally/internal/config"
	"tally/models"
)

type importDocument struct {
	Users   []*models.User  `json:"users"`
	Entries []*models.Entry `json:"entries"`
}

func main() {
	sourcePath := flag.String("file", "data.json", "path to the JSON export to import")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	data, err := os.ReadFile(*sourcePath)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *sourcePath, err)
	}

	var doc importDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Fatalf("Failed to parse %s: %v", *sourcePath, err)
	}

	factory, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	userRepo := factory.NewUserRepository()
	entryRepo := factory.NewEntryRepository()
	defer userRepo.Close()

	ctx := context.Background()

	var imported, skipped int
	for _, user := range doc.Users {
		if err := userRepo.Create(ctx, user); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				skipped++
				continue
			}
			log.Fatalf("Failed to import user %q: %v", user.Username, err)
		}
		imported++
	}
	log.Printf("Users: %d imported, %d skipped", imported, skipped)

	imported, skipped = 0, 0
	for _, entry := range doc.Entries {
		if err := entryRepo.Create(ctx, entry); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				skipped++
				continue
			}
			log.Fatalf("Failed to import entry %d: %v", entry.ID, err)
		}
		imported++
	}
	log.Printf("Entries: %d imported, %d skipped", imported, skipped)

	log.Println("Import complete")
}

func openStore(cfg *config.Config) (*db.RepositoryFactory, error) {
	switch cfg.DatabaseType {
	case config.JSONFile:
		store, err := db.NewJSONStore(cfg.DataFilePath)
		if err != nil {
			return nil, err
		}
		return db.NewRepositoryFactory(nil, store, nil, cfg.DatabaseName), nil
	case config.MongoDB:
		client, err := db.ConnectToMongo(cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		return db.NewRepositoryFactory(nil, nil, client, cfg.DatabaseName), nil
	default:
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
