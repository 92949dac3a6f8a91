package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tally/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongoUser is the persisted document shape for a user. A lowercased copy
// of the username backs case-insensitive lookups.
type mongoUser struct {
	Username        string `bson:"username"`
	UsernameLower   string `bson:"username_lower"`
	Password        string `bson:"password"`
	ProfilePicture  string `bson:"profile_picture"`
	StartingBalance string `bson:"starting_balance"`
}

type mongoEntry struct {
	ID            int64     `bson:"_id"`
	Debtor        string    `bson:"debtor"`
	Creditor      string    `bson:"creditor"`
	Amount        string    `bson:"amount"`
	Description   string    `bson:"description"`
	Date          time.Time `bson:"date"`
	Status        string    `bson:"status"`
	Paid          bool      `bson:"paid"`
	PaymentMethod string    `bson:"payment_method"`
	Approved      *bool     `bson:"approved"`
}

// MongoUserRepository implements the UserRepository interface for MongoDB
type MongoUserRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(client *mongo.Client, database, collection string) *MongoUserRepository {
	return &MongoUserRepository{
		client:     client,
		database:   database,
		collection: collection,
	}
}

// Close closes the MongoDB connection
func (r *MongoUserRepository) Close() error {
	return r.client.Disconnect(context.Background())
}

func (r *MongoUserRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

// FindByUsername finds a user by username, ignoring case
func (r *MongoUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var doc mongoUser
	err := r.coll().FindOne(ctx, bson.M{"username_lower": strings.ToLower(username)}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return doc.toModel()
}

// FindAll returns every user
func (r *MongoUserRepository) FindAll(ctx context.Context) ([]*models.User, error) {
	cursor, err := r.coll().Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*models.User
	for cursor.Next(ctx) {
		var doc mongoUser
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding user: %w", err)
		}
		user, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, cursor.Err()
}

// Create inserts a new user, failing when a username differing only in
// case already exists. The existence probe and the insert are separate
// operations; the window between them is accepted, consistent with the
// rest of the store contract.
func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	err := r.coll().FindOne(ctx, bson.M{"username_lower": strings.ToLower(user.Username)}).Err()
	if err == nil {
		return ErrDuplicate
	}
	if err != mongo.ErrNoDocuments {
		return fmt.Errorf("error checking for existing user: %w", err)
	}

	if _, err := r.coll().InsertOne(ctx, userToMongo(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error inserting user: %w", err)
	}
	return nil
}

// Update applies the non-nil patch fields to the named user and returns
// the updated record
func (r *MongoUserRepository) Update(ctx context.Context, username string, patch UserPatch) (*models.User, error) {
	current, err := r.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if patch.Username != nil {
		if !strings.EqualFold(*patch.Username, current.Username) {
			if _, err := r.FindByUsername(ctx, *patch.Username); err == nil {
				return nil, ErrDuplicate
			} else if err != ErrNotFound {
				return nil, err
			}
		}
		set["username"] = *patch.Username
		set["username_lower"] = strings.ToLower(*patch.Username)
	}
	if patch.Password != nil {
		set["password"] = *patch.Password
	}
	if patch.ProfilePicture != nil {
		set["profile_picture"] = *patch.ProfilePicture
	}
	if patch.StartingBalance != nil {
		set["starting_balance"] = patch.StartingBalance.String()
	}

	if len(set) > 0 {
		filter := bson.M{"username_lower": strings.ToLower(username)}
		if _, err := r.coll().UpdateOne(ctx, filter, bson.M{"$set": set}); err != nil {
			return nil, fmt.Errorf("error updating user: %w", err)
		}
	}

	lookup := username
	if patch.Username != nil {
		lookup = *patch.Username
	}
	return r.FindByUsername(ctx, lookup)
}

// MongoEntryRepository implements the EntryRepository interface for MongoDB
type MongoEntryRepository struct {
	client     *mongo.Client
	database   string
	collection string
}

// NewMongoEntryRepository creates a new MongoEntryRepository
func NewMongoEntryRepository(client *mongo.Client, database, collection string) *MongoEntryRepository {
	return &MongoEntryRepository{
		client:     client,
		database:   database,
		collection: collection,
	}
}

// Close closes the MongoDB connection
func (r *MongoEntryRepository) Close() error {
	return r.client.Disconnect(context.Background())
}

func (r *MongoEntryRepository) coll() *mongo.Collection {
	return r.client.Database(r.database).Collection(r.collection)
}

// FindByID finds an entry by its id
func (r *MongoEntryRepository) FindByID(ctx context.Context, id int64) (*models.Entry, error) {
	var doc mongoEntry
	err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding entry: %w", err)
	}
	return doc.toModel()
}

// FindAll returns every entry
func (r *MongoEntryRepository) FindAll(ctx context.Context) ([]*models.Entry, error) {
	cursor, err := r.coll().Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("error querying entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*models.Entry
	for cursor.Next(ctx) {
		var doc mongoEntry
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding entry: %w", err)
		}
		entry, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, cursor.Err()
}

// Create inserts a new entry, failing on an id collision
func (r *MongoEntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	if _, err := r.coll().InsertOne(ctx, entryToMongo(entry)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error inserting entry: %w", err)
	}
	return nil
}

// SetApproved stores the approval state of an entry
func (r *MongoEntryRepository) SetApproved(ctx context.Context, id int64, approval models.Approval) error {
	update := bson.M{"$set": bson.M{"approved": approvalToPtr(approval)}}
	result, err := r.coll().UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("error updating entry approval: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func userToMongo(user *models.User) mongoUser {
	return mongoUser{
		Username:        user.Username,
		UsernameLower:   strings.ToLower(user.Username),
		Password:        user.Password,
		ProfilePicture:  user.ProfilePicture,
		StartingBalance: user.StartingBalance.String(),
	}
}

func (d mongoUser) toModel() (*models.User, error) {
	balance, err := decimal.NewFromString(d.StartingBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid starting balance %q: %w", d.StartingBalance, err)
	}
	return &models.User{
		Username:        d.Username,
		Password:        d.Password,
		ProfilePicture:  d.ProfilePicture,
		StartingBalance: balance,
	}, nil
}

func entryToMongo(entry *models.Entry) mongoEntry {
	return mongoEntry{
		ID:            entry.ID,
		Debtor:        entry.Debtor,
		Creditor:      entry.Creditor,
		Amount:        entry.Amount.String(),
		Description:   entry.Description,
		Date:          entry.Date,
		Status:        entry.Status,
		Paid:          entry.Paid,
		PaymentMethod: entry.PaymentMethod,
		Approved:      approvalToPtr(entry.Approved),
	}
}

func (d mongoEntry) toModel() (*models.Entry, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", d.Amount, err)
	}
	return &models.Entry{
		ID:            d.ID,
		Debtor:        d.Debtor,
		Creditor:      d.Creditor,
		Amount:        amount,
		Description:   d.Description,
		Date:          d.Date,
		Status:        d.Status,
		Paid:          d.Paid,
		PaymentMethod: d.PaymentMethod,
		Approved:      approvalFromPtr(d.Approved),
	}, nil
}

func approvalToPtr(a models.Approval) *bool {
	switch a {
	case models.ApprovalPending:
		b := false
		return &b
	case models.ApprovalApproved:
		b := true
		return &b
	default:
		return nil
	}
}

func approvalFromPtr(b *bool) models.Approval {
	switch {
	case b == nil:
		return models.ApprovalNotApplicable
	case *b:
		return models.ApprovalApproved
	default:
		return models.ApprovalPending
	}
}
