package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"tally/db"
	"tally/models"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidInput is returned when a required field is missing or
	// the amount is not positive
	ErrInvalidInput = errors.New("debtor, creditor and a positive amount are required")
	// ErrNotCreditor is returned when someone other than the entry's
	// creditor tries to approve it
	ErrNotCreditor = errors.New("only the creditor may approve an entry")
)

// Service implements the entry lifecycle on top of an EntryRepository
type Service struct {
	entries db.EntryRepository

	mu     sync.Mutex
	lastID int64
}

func NewService(entries db.EntryRepository) *Service {
	return &Service{entries: entries}
}

// nextID derives an id from the wall clock in milliseconds, bumping past
// the previous id when two entries land in the same millisecond. Ids stay
// time-ordered without the collision risk of the raw timestamp.
func (s *Service) nextID(now time.Time) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// CreateEntryInput is the validated input of CreateEntry. Description
// and PaymentMethod are optional; PaymentMethod defaults to virtual.
type CreateEntryInput struct {
	Debtor        string
	Creditor      string
	Amount        decimal.Decimal
	Description   string
	PaymentMethod string
}

// CreateEntry records a new debt. The id is derived from the creation
// time in milliseconds since epoch. Debtor and creditor are not checked
// against the user collection.
func (s *Service) CreateEntry(ctx context.Context, input CreateEntryInput) (*models.Entry, error) {
	if input.Debtor == "" || input.Creditor == "" || !input.Amount.IsPositive() {
		return nil, ErrInvalidInput
	}

	method := input.PaymentMethod
	if method == "" {
		method = models.PaymentMethodVirtual
	}

	approved := models.ApprovalNotApplicable
	if method == models.PaymentMethodPhysical {
		approved = models.ApprovalPending
	}

	now := time.Now()
	entry := &models.Entry{
		ID:            s.nextID(now),
		Debtor:        input.Debtor,
		Creditor:      input.Creditor,
		Amount:        input.Amount,
		Description:   input.Description,
		Date:          now.UTC(),
		Status:        models.EntryStatusAccepted,
		Paid:          false,
		PaymentMethod: method,
		Approved:      approved,
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries returns the full entry collection
func (s *Service) ListEntries(ctx context.Context) ([]*models.Entry, error) {
	return s.entries.FindAll(ctx)
}

// ApproveEntry marks an entry approved on behalf of username. Only the
// exact creditor string may approve; the comparison is case-sensitive.
// Approving an already approved entry is a no-op that succeeds.
func (s *Service) ApproveEntry(ctx context.Context, id int64, username string) error {
	entry, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if entry.Creditor != username {
		return ErrNotCreditor
	}

	return s.entries.SetApproved(ctx, id, models.ApprovalApproved)
}
