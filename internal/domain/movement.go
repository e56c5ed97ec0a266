package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind represents the direction of a manual cash movement
type MovementKind string

const (
	// MovementPayment is cash handed to the entity (reduces what it owes us)
	MovementPayment MovementKind = "PAYMENT"
	// MovementCollection is cash received from the entity
	MovementCollection MovementKind = "COLLECTION"
)

// Valid reports whether k is a known movement kind
func (k MovementKind) Valid() bool {
	return k == MovementPayment || k == MovementCollection
}

// AccountPayment is one manual cash movement against a statement.
// Rows are append-only: the only mutation ever applied is the one-way
// active -> reversed transition. Reversed movements stay for audit but
// are excluded from every total.
type AccountPayment struct {
	ID             string          `json:"id" db:"id"`
	StatementID    string          `json:"statement_id" db:"statement_id"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	Kind           MovementKind    `json:"kind" db:"kind"`
	Method         string          `json:"method" db:"method"`
	Note           string          `json:"note" db:"note"`
	IdempotencyKey *string         `json:"idempotency_key,omitempty" db:"idempotency_key"`
	Reversed       bool            `json:"reversed" db:"reversed"`
	ReversedAt     *time.Time      `json:"reversed_at,omitempty" db:"reversed_at"`
	ReversedBy     *string         `json:"reversed_by,omitempty" db:"reversed_by"`
	ReversalReason *string         `json:"reversal_reason,omitempty" db:"reversal_reason"`
	RecordedBy     string          `json:"recorded_by" db:"recorded_by"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`

	// Replayed marks an idempotent hit: the movement already existed and
	// was returned unchanged. Never persisted.
	Replayed bool `json:"replayed,omitempty" db:"-"`
}

// SignedAmount is the movement's effect on the remaining balance:
// payments add, collections subtract.
func (m *AccountPayment) SignedAmount() decimal.Decimal {
	if m.Kind == MovementCollection {
		return m.Amount.Neg()
	}
	return m.Amount
}

// MovementTotals are the active (non-reversed) sums for one statement
type MovementTotals struct {
	TotalPaid      decimal.Decimal `json:"total_paid"`
	TotalCollected decimal.Decimal `json:"total_collected"`
}
