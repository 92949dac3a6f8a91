package db

import (
	"context"
	"database/sql"
	"errors"

	"tally/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Repository defines a common interface for all repositories
type Repository interface {
	Close() error
}

// UserPatch carries the fields of a partial user update. Nil fields are
// left unchanged; there is no way to clear a field through a patch.
type UserPatch struct {
	Username        *string
	Password        *string
	ProfilePicture  *string
	StartingBalance *decimal.Decimal
}

// UserRepository defines the interface for user operations. Username
// lookups are case-insensitive in every implementation.
type UserRepository interface {
	Repository
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindAll(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, username string, patch UserPatch) (*models.User, error)
}

// EntryRepository defines the interface for ledger entry operations
type EntryRepository interface {
	Repository
	FindByID(ctx context.Context, id int64) (*models.Entry, error)
	FindAll(ctx context.Context) ([]*models.Entry, error)
	Create(ctx context.Context, entry *models.Entry) error
	SetApproved(ctx context.Context, id int64, approval models.Approval) error
}

// RepositoryFactory creates repositories for whichever backend was opened
// at startup. Exactly one of SQLiteDB, JSONStore and MongoClient is set.
type RepositoryFactory struct {
	SQLiteDB    *sql.DB
	JSONStore   *JSONStore
	MongoClient *mongo.Client
	DBName      string
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(sqliteDB *sql.DB, jsonStore *JSONStore, mongoClient *mongo.Client, dbName string) *RepositoryFactory {
	return &RepositoryFactory{
		SQLiteDB:    sqliteDB,
		JSONStore:   jsonStore,
		MongoClient: mongoClient,
		DBName:      dbName,
	}
}

// NewUserRepository creates a new user repository
func (f *RepositoryFactory) NewUserRepository() UserRepository {
	if f.SQLiteDB != nil {
		return NewSQLiteUserRepository(f.SQLiteDB)
	}
	if f.JSONStore != nil {
		return NewJSONUserRepository(f.JSONStore)
	}
	return NewMongoUserRepository(f.MongoClient, f.DBName, "users")
}

// NewEntryRepository creates a new entry repository
func (f *RepositoryFactory) NewEntryRepository() EntryRepository {
	if f.SQLiteDB != nil {
		return NewSQLiteEntryRepository(f.SQLiteDB)
	}
	if f.JSONStore != nil {
		return NewJSONEntryRepository(f.JSONStore)
	}
	return NewMongoEntryRepository(f.MongoClient, f.DBName, "entries")
}
