package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type DatabaseType string

const (
	SQLite   DatabaseType = "sqlite"
	JSONFile DatabaseType = "jsonfile"
	MongoDB  DatabaseType = "mongodb"
)

type Config struct {
	Port         string
	JwtKey       []byte
	DatabaseType DatabaseType
	DatabaseName string
	// SQLite config
	SQLitePath string
	// JSON file config
	DataFilePath string
	// MongoDB config
	MongoURI string
}

func LoadConfig() (*Config, error) {
	// A missing .env file is fine; variables may come from the environment
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	databaseName := os.Getenv("DATABASE_NAME")
	if databaseName == "" {
		databaseName = "tally"
	}

	jwtSecret := os.Getenv("JWT_SECRET_KEY")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY is not set")
	}

	dbType := os.Getenv("DATABASE_TYPE")
	if dbType == "" {
		dbType = string(SQLite)
	}

	config := &Config{
		Port:         port,
		JwtKey:       []byte(jwtSecret),
		DatabaseType: DatabaseType(dbType),
		DatabaseName: databaseName,
	}

	switch config.DatabaseType {
	case SQLite:
		sqlitePath := os.Getenv("SQLITE_PATH")
		if sqlitePath == "" {
			sqlitePath = filepath.Join("data", fmt.Sprintf("%s.db", databaseName))
		}
		config.SQLitePath = sqlitePath
	case JSONFile:
		dataFile := os.Getenv("DATA_FILE")
		if dataFile == "" {
			dataFile = filepath.Join("data", fmt.Sprintf("%s.json", databaseName))
		}
		config.DataFilePath = dataFile
	case MongoDB:
		mongoURI := os.Getenv("MONGODB_URI")
		if mongoURI == "" {
			return nil, fmt.Errorf("MONGODB_URI is not set")
		}
		config.MongoURI = mongoURI
	default:
		return nil, fmt.Errorf("unsupported DATABASE_TYPE: %s", dbType)
	}

	return config, nil
}
