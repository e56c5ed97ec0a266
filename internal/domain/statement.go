package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dimension selects which entity tier a statement belongs to
type Dimension string

const (
	DimensionBank   Dimension = "BANK"
	DimensionWindow Dimension = "WINDOW"
	DimensionSeller Dimension = "SELLER"
)

// Valid reports whether d is a known dimension
func (d Dimension) Valid() bool {
	return d == DimensionBank || d == DimensionWindow || d == DimensionSeller
}

// SettleEpsilon is the tolerance under which a remaining balance counts
// as zero: one cent of the operating currency.
var SettleEpsilon = decimal.New(1, -2)

// AccountStatement is the persisted per-day, per-entity ledger row.
// Exactly one of BankID/WindowID/SellerID is set, matching Dimension.
// All totals are cached results of the day calculator; paid/collected
// are re-derived from active movements on every mutation.
type AccountStatement struct {
	ID               string          `json:"id" db:"id"`
	Day              time.Time       `json:"day" db:"day"`
	Dimension        Dimension       `json:"dimension" db:"dimension"`
	BankID           *string         `json:"bank_id,omitempty" db:"bank_id"`
	WindowID         *string         `json:"window_id,omitempty" db:"window_id"`
	SellerID         *string         `json:"seller_id,omitempty" db:"seller_id"`
	TotalSales       decimal.Decimal `json:"total_sales" db:"total_sales"`
	TotalPayouts     decimal.Decimal `json:"total_payouts" db:"total_payouts"`
	WindowCommission decimal.Decimal `json:"window_commission" db:"window_commission"`
	SellerCommission decimal.Decimal `json:"seller_commission" db:"seller_commission"`
	Balance          decimal.Decimal `json:"balance" db:"balance"`
	TotalPaid        decimal.Decimal `json:"total_paid" db:"total_paid"`
	TotalCollected   decimal.Decimal `json:"total_collected" db:"total_collected"`
	RemainingBalance decimal.Decimal `json:"remaining_balance" db:"remaining_balance"`
	TicketCount      int             `json:"ticket_count" db:"ticket_count"`
	IsSettled        bool            `json:"is_settled" db:"is_settled"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
}

// CanEdit reports whether movements may still be registered against the day
func (s *AccountStatement) CanEdit() bool {
	return !s.IsSettled
}

// EntityID returns the identifier the statement's dimension points at
func (s *AccountStatement) EntityID() *string {
	switch s.Dimension {
	case DimensionBank:
		return s.BankID
	case DimensionWindow:
		return s.WindowID
	case DimensionSeller:
		return s.SellerID
	}
	return nil
}

// SetEntityID assigns id to the identifier column matching the dimension
func (s *AccountStatement) SetEntityID(id *string) {
	s.BankID, s.WindowID, s.SellerID = nil, nil, nil
	switch s.Dimension {
	case DimensionBank:
		s.BankID = id
	case DimensionWindow:
		s.WindowID = id
	case DimensionSeller:
		s.SellerID = id
	}
}

// Commission selects the commission side charged against this statement's
// balance: the seller side for seller statements, the window side otherwise.
func (s *AccountStatement) Commission() decimal.Decimal {
	if s.Dimension == DimensionSeller {
		return s.SellerCommission
	}
	return s.WindowCommission
}
