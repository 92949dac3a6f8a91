package db

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tally/models"
)

// JSONStore persists users and entries as a single JSON document that is
// re-read and rewritten in full on every mutation. The mutex serializes
// in-process access; the rewrite itself is not atomic, so a crash mid-write
// can still corrupt the file. That limitation is inherited from the flat
// file format and accepted.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

type jsonDocument struct {
	Users   []*models.User  `json:"users"`
	Entries []*models.Entry `json:"entries"`
}

// NewJSONStore opens (or creates) the document at path
func NewJSONStore(path string) (*JSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for JSON store: %w", err)
	}

	store := &JSONStore{path: path}
	if _, err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *JSONStore) load() (*jsonDocument, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &jsonDocument{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON store: %w", err)
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON store: %w", err)
	}
	return &doc, nil
}

func (s *JSONStore) save(doc *jsonDocument) error {
	if doc.Users == nil {
		doc.Users = []*models.User{}
	}
	if doc.Entries == nil {
		doc.Entries = []*models.Entry{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON store: %w", err)
	}
	return nil
}

// JSONUserRepository implements the UserRepository interface over a JSONStore
type JSONUserRepository struct {
	store *JSONStore
}

// NewJSONUserRepository creates a new JSONUserRepository
func NewJSONUserRepository(store *JSONStore) *JSONUserRepository {
	return &JSONUserRepository{store: store}
}

// Close is a no-op for the file-backed store
func (r *JSONUserRepository) Close() error {
	return nil
}

// FindByUsername finds a user by username, ignoring case
func (r *JSONUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := r.store.load()
	if err != nil {
		return nil, err
	}

	for _, user := range doc.Users {
		if strings.EqualFold(user.Username, username) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// FindAll returns every user
func (r *JSONUserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := r.store.load()
	if err != nil {
		return nil, err
	}

	users := make([]*models.User, 0, len(doc.Users))
	for _, user := range doc.Users {
		copied := *user
		users = append(users, &copied)
	}
	return users, nil
}

// Create appends a new user and rewrites the document
func (r *JSONUserRepository) Create(ctx context.Context, user *models.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := r.store.load()
	if err != nil {
		return err
	}

	for _, existing := range doc.Users {
		if strings.EqualFold(existing.Username, user.Username) {
			return ErrDuplicate
		}
	}

	copied := *user
	doc.Users = append(doc.Users, &copied)
	return r.store.save(doc)
}

// Update applies the non-nil patch fields to the named user and returns
// the updated record
func (r *JSONUserRepository) Update(ctx context.Context, username string, patch UserPatch) (*models.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := r.store.load()
	if err != nil {
		return nil, err
	}

	var target *models.User
	for _, user := range doc.Users {
		if strings.EqualFold(user.Username, username) {
			target = user
			break
		}
	}
	if target == nil {
		return nil, ErrNotFound
	}

	if patch.Username != nil && !strings.EqualFold(*patch.Username, target.Username) {
		for _, other := range doc.Users {
			if strings.EqualFold(other.Username, *patch.Username) {
				return nil, ErrDuplicate
			}
		}
	}

	if patch.Username != nil {
		target.Username = *patch.Username
	}
	if patch.Password != nil {
		target.Password = *patch.Password
	}
	if patch.ProfilePicture != nil {
		target.ProfilePicture = *patch.ProfilePicture
	}
	if patch.StartingBalance != nil {
		target.StartingBalance = *patch.StartingBalance
	}

	if err := r.store.save(doc); err != nil {
		return nil, err
	}
	copied := *target
	return &copied, nil
}

// JSONEntryRepository implements the EntryRepository interface over a JSONStore
type JSONEntryRepository struct {
	store *JSONStore
}

// NewJSONEntryRepository creates a new JSONEntryRepository
func NewJSONEntryRepository(store *JSONStore) *JSONEntryRepository {
	return &JSONEntryRepository{store: store}
}

// Close is a no-op for the file-backed store
func (r *JSONEntryRepository) Close() error {
	return nil
}

// FindByID finds an entry by its id
func (r *JSONEntryRepository) FindByID(ctx context.Context, id int64) (*models.Entry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := r.store.load()
	if err != nil {
		return nil, err
	}

	for _, entry := range doc.Entries {
		if entry.ID == id {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

// FindAll returns every entry
func (r *JSONEntryRepository) FindAll(ctx context.Context) ([]*models.Entry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := r.store.load()
	if err != nil {
		return nil, err
	}

	entries := make([]*models.Entry, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		copied := *entry
		entries = append(entries, &copied)
	}
	return entries, nil
}

// Create appends a new entry and rewrites the document
func (r *JSONEntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := r.store.load()
	if err != nil {
		return err
	}

	for _, existing := range doc.Entries {
		if existing.ID == entry.ID {
			return ErrDuplicate
		}
	}

	copied := *entry
	doc.Entries = append(doc.Entries, &copied)
	return r.store.save(doc)
}

// SetApproved stores the approval state of an entry
func (r *JSONEntryRepository) SetApproved(ctx context.Context, id int64, approval models.Approval) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc, err := r.store.load()
	if err != nil {
		return err
	}

	for _, entry := range doc.Entries {
		if entry.ID == id {
			entry.Approved = approval
			return r.store.save(doc)
		}
	}
	return ErrNotFound
}
