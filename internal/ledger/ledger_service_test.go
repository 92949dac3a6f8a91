package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"tally/db"
	"tally/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	store, err := db.NewJSONStore(filepath.Join(t.TempDir(), "test.json"))
	require.NoError(t, err)
	return NewService(db.NewJSONEntryRepository(store))
}

func validInput() CreateEntryInput {
	return CreateEntryInput{
		Debtor:   "Alice",
		Creditor: "Bob",
		Amount:   decimal.NewFromInt(50),
	}
}

func TestCreateEntry(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	t.Run("VirtualDefaults", func(t *testing.T) {
		input := validInput()
		input.Description = "lunch"

		entry, err := svc.CreateEntry(ctx, input)
		require.NoError(t, err)
		assert.NotZero(t, entry.ID)
		assert.Equal(t, "Alice", entry.Debtor)
		assert.Equal(t, "Bob", entry.Creditor)
		assert.Equal(t, "lunch", entry.Description)
		assert.Equal(t, models.EntryStatusAccepted, entry.Status)
		assert.False(t, entry.Paid)
		assert.Equal(t, models.PaymentMethodVirtual, entry.PaymentMethod)
		assert.Equal(t, models.ApprovalNotApplicable, entry.Approved)

		stored, err := svc.entries.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalNotApplicable, stored.Approved)
	})

	t.Run("PhysicalStartsPending", func(t *testing.T) {
		input := validInput()
		input.PaymentMethod = models.PaymentMethodPhysical

		entry, err := svc.CreateEntry(ctx, input)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentMethodPhysical, entry.PaymentMethod)
		// Never approved at creation
		assert.Equal(t, models.ApprovalPending, entry.Approved)
	})

	t.Run("InvalidInput", func(t *testing.T) {
		before, err := svc.ListEntries(ctx)
		require.NoError(t, err)

		missingDebtor := validInput()
		missingDebtor.Debtor = ""
		_, err = svc.CreateEntry(ctx, missingDebtor)
		assert.ErrorIs(t, err, ErrInvalidInput)

		missingCreditor := validInput()
		missingCreditor.Creditor = ""
		_, err = svc.CreateEntry(ctx, missingCreditor)
		assert.ErrorIs(t, err, ErrInvalidInput)

		zeroAmount := validInput()
		zeroAmount.Amount = decimal.Zero
		_, err = svc.CreateEntry(ctx, zeroAmount)
		assert.ErrorIs(t, err, ErrInvalidInput)

		negativeAmount := validInput()
		negativeAmount.Amount = decimal.NewFromInt(-5)
		_, err = svc.CreateEntry(ctx, negativeAmount)
		assert.ErrorIs(t, err, ErrInvalidInput)

		// No failed attempt may have stored an entry
		after, err := svc.ListEntries(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(before))
	})
}

func TestApproveEntry(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	input := validInput()
	input.PaymentMethod = models.PaymentMethodPhysical
	entry, err := svc.CreateEntry(ctx, input)
	require.NoError(t, err)

	t.Run("UnknownID", func(t *testing.T) {
		err := svc.ApproveEntry(ctx, entry.ID+1, "Bob")
		assert.ErrorIs(t, err, db.ErrNotFound)
	})

	t.Run("NotTheCreditor", func(t *testing.T) {
		err := svc.ApproveEntry(ctx, entry.ID, "Alice")
		assert.ErrorIs(t, err, ErrNotCreditor)

		// The creditor match is case-sensitive
		err = svc.ApproveEntry(ctx, entry.ID, "bob")
		assert.ErrorIs(t, err, ErrNotCreditor)

		stored, err := svc.entries.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalPending, stored.Approved)
	})

	t.Run("CreditorApproves", func(t *testing.T) {
		require.NoError(t, svc.ApproveEntry(ctx, entry.ID, "Bob"))

		stored, err := svc.entries.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalApproved, stored.Approved)
	})

	t.Run("RepeatedApprovalIsStable", func(t *testing.T) {
		require.NoError(t, svc.ApproveEntry(ctx, entry.ID, "Bob"))

		stored, err := svc.entries.FindByID(ctx, entry.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalApproved, stored.Approved)
	})
}
