package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"tally/models"

	"github.com/shopspring/decimal"
)

// SQLiteUserRepository implements the UserRepository interface for SQLite
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a new SQLiteUserRepository
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

// Close closes the database connection
func (r *SQLiteUserRepository) Close() error {
	return r.db.Close()
}

// FindByUsername finds a user by username, ignoring case
func (r *SQLiteUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT username, password, profile_picture, starting_balance FROM users WHERE username = ?`
	row := r.db.QueryRowContext(ctx, query, username)

	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning user: %w", err)
	}

	return user, nil
}

// FindAll returns every user
func (r *SQLiteUserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	query := `SELECT username, password, profile_picture, starting_balance FROM users`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// Create inserts a new user. The NOCASE primary key makes the insert fail
// when a username differing only in case already exists.
func (r *SQLiteUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (username, password, profile_picture, starting_balance) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		user.Username, user.Password, user.ProfilePicture, user.StartingBalance.String())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrDuplicate
		}
		return fmt.Errorf("error inserting user: %w", err)
	}
	return nil
}

// Update applies the non-nil patch fields to the named user and returns
// the updated record
func (r *SQLiteUserRepository) Update(ctx context.Context, username string, patch UserPatch) (*models.User, error) {
	if _, err := r.FindByUsername(ctx, username); err != nil {
		return nil, err
	}

	var newBalance sql.NullString
	if patch.StartingBalance != nil {
		newBalance = sql.NullString{String: patch.StartingBalance.String(), Valid: true}
	}

	query := `
	UPDATE users SET
		username = COALESCE(?, username),
		password = COALESCE(?, password),
		profile_picture = COALESCE(?, profile_picture),
		starting_balance = COALESCE(?, starting_balance)
	WHERE username = ?`
	_, err := r.db.ExecContext(ctx, query,
		nullString(patch.Username), nullString(patch.Password), nullString(patch.ProfilePicture), newBalance, username)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("error updating user: %w", err)
	}

	lookup := username
	if patch.Username != nil {
		lookup = *patch.Username
	}
	return r.FindByUsername(ctx, lookup)
}

// SQLiteEntryRepository implements the EntryRepository interface for SQLite
type SQLiteEntryRepository struct {
	db *sql.DB
}

// NewSQLiteEntryRepository creates a new SQLiteEntryRepository
func NewSQLiteEntryRepository(db *sql.DB) *SQLiteEntryRepository {
	return &SQLiteEntryRepository{db: db}
}

// Close closes the database connection
func (r *SQLiteEntryRepository) Close() error {
	return r.db.Close()
}

// FindByID finds an entry by its id
func (r *SQLiteEntryRepository) FindByID(ctx context.Context, id int64) (*models.Entry, error) {
	query := `SELECT id, debtor, creditor, amount, description, date, status, paid, payment_method, approved FROM entries WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	entry, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning entry: %w", err)
	}

	return entry, nil
}

// FindAll returns every entry
func (r *SQLiteEntryRepository) FindAll(ctx context.Context) ([]*models.Entry, error) {
	query := `SELECT id, debtor, creditor, amount, description, date, status, paid, payment_method, approved FROM entries`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Create inserts a new entry, failing on an id collision
func (r *SQLiteEntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	query := `
	INSERT INTO entries (id, debtor, creditor, amount, description, date, status, paid, payment_method, approved)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Debtor, entry.Creditor, entry.Amount.String(), entry.Description,
		entry.Date, entry.Status, entry.Paid, entry.PaymentMethod, approvalToNull(entry.Approved))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrDuplicate
		}
		return fmt.Errorf("error inserting entry: %w", err)
	}
	return nil
}

// SetApproved stores the approval state of an entry
func (r *SQLiteEntryRepository) SetApproved(ctx context.Context, id int64, approval models.Approval) error {
	result, err := r.db.ExecContext(ctx, `UPDATE entries SET approved = ? WHERE id = ?`, approvalToNull(approval), id)
	if err != nil {
		return fmt.Errorf("error updating entry approval: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error updating entry approval: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	var balance string

	if err := row.Scan(&user.Username, &user.Password, &user.ProfilePicture, &balance); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("invalid starting balance %q: %w", balance, err)
	}
	user.StartingBalance = parsed

	return &user, nil
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var entry models.Entry
	var amount string
	var date time.Time
	var approved sql.NullBool

	if err := row.Scan(&entry.ID, &entry.Debtor, &entry.Creditor, &amount, &entry.Description,
		&date, &entry.Status, &entry.Paid, &entry.PaymentMethod, &approved); err != nil {
		return nil, err
	}

	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	entry.Amount = parsed
	entry.Date = date
	entry.Approved = approvalFromNull(approved)

	return &entry, nil
}

func approvalToNull(a models.Approval) sql.NullBool {
	switch a {
	case models.ApprovalPending:
		return sql.NullBool{Bool: false, Valid: true}
	case models.ApprovalApproved:
		return sql.NullBool{Bool: true, Valid: true}
	default:
		return sql.NullBool{}
	}
}

func approvalFromNull(b sql.NullBool) models.Approval {
	switch {
	case !b.Valid:
		return models.ApprovalNotApplicable
	case b.Bool:
		return models.ApprovalApproved
	default:
		return models.ApprovalPending
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
