package models

import (
	"bytes"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts and balances are plain JSON numbers in the legacy documents
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	PaymentMethodVirtual  = "virtual"
	PaymentMethodPhysical = "physical"

	EntryStatusAccepted = "accepted"
)

// Approval is the tri-state approval field of an entry. Virtual entries
// never need approval; physical entries start pending and are approved
// exactly once, by the creditor.
type Approval int

const (
	ApprovalNotApplicable Approval = iota
	ApprovalPending
	ApprovalApproved
)

func (a Approval) String() string {
	switch a {
	case ApprovalPending:
		return "pending"
	case ApprovalApproved:
		return "approved"
	default:
		return "not applicable"
	}
}

// MarshalJSON keeps the wire and document shape of the original data:
// null when approval does not apply, false while pending, true once
// approved.
func (a Approval) MarshalJSON() ([]byte, error) {
	switch a {
	case ApprovalPending:
		return []byte("false"), nil
	case ApprovalApproved:
		return []byte("true"), nil
	default:
		return []byte("null"), nil
	}
}

func (a *Approval) UnmarshalJSON(data []byte) error {
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ApprovalNotApplicable
	case bytes.Equal(data, []byte("false")):
		*a = ApprovalPending
	case bytes.Equal(data, []byte("true")):
		*a = ApprovalApproved
	default:
		return fmt.Errorf("invalid approval value: %s", data)
	}
	return nil
}

// Entry is a single recorded debt between two users. Debtor and creditor
// are plain usernames; they are not checked against the user collection.
type Entry struct {
	ID            int64           `json:"id"`
	Debtor        string          `json:"debtor"`
	Creditor      string          `json:"creditor"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Date          time.Time       `json:"date"`
	Status        string          `json:"status"`
	Paid          bool            `json:"paid"`
	PaymentMethod string          `json:"paymentMethod"`
	Approved      Approval        `json:"approved"`
}
