package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleStatus represents the lifecycle status of a ticket
type SaleStatus string

const (
	SaleActive    SaleStatus = "ACTIVE"
	SaleCancelled SaleStatus = "CANCELLED"
	SaleEvaluated SaleStatus = "EVALUATED"
	SalePaid      SaleStatus = "PAID"
)

// CountedStatuses are the statuses included in ledger aggregation.
// Cancelled tickets never count.
var CountedStatuses = []SaleStatus{SaleActive, SaleEvaluated, SalePaid}

// IsCounted reports whether a sale in this status participates in totals
func (s SaleStatus) IsCounted() bool {
	return s == SaleActive || s == SaleEvaluated || s == SalePaid
}

// SaleRecord is a read-only projection of a ticket. The sales subsystem
// owns these rows; the ledger engine never mutates them.
type SaleRecord struct {
	ID          string          `json:"id" db:"id"`
	DrawID      string          `json:"draw_id" db:"draw_id"`
	BankID      string          `json:"bank_id" db:"bank_id"`
	WindowID    string          `json:"window_id" db:"window_id"`
	SellerID    string          `json:"seller_id" db:"seller_id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	TotalPayout decimal.Decimal `json:"total_payout" db:"total_payout"`
	Status      SaleStatus      `json:"status" db:"status"`
	BusinessDay time.Time       `json:"business_day" db:"business_day"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// CommissionBeneficiary tags who the frozen commission snapshot belongs to
type CommissionBeneficiary string

const (
	BeneficiarySeller CommissionBeneficiary = "SELLER"
	BeneficiaryWindow CommissionBeneficiary = "WINDOW"
)

// PlayRecord is a read-only projection of a bet line inside a ticket.
// Commission and payout fields are frozen snapshots; the ledger engine
// never recomputes them from policy.
type PlayRecord struct {
	ID                    string                `json:"id" db:"id"`
	SaleID                string                `json:"sale_id" db:"sale_id"`
	Amount                decimal.Decimal       `json:"amount" db:"amount"`
	IsWinner              bool                  `json:"is_winner" db:"is_winner"`
	Payout                decimal.Decimal       `json:"payout" db:"payout"`
	CommissionAmount      decimal.Decimal       `json:"commission_amount" db:"commission_amount"`
	CommissionBeneficiary CommissionBeneficiary `json:"commission_beneficiary" db:"commission_beneficiary"`
}

// Draw is the reference data of one lottery draw
type Draw struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	ScheduledAt time.Time `json:"scheduled_at" db:"scheduled_at"`
}

// DrawExclusion marks a window (optionally one seller) excluded from a draw
type DrawExclusion struct {
	DrawID   string  `json:"draw_id" db:"draw_id"`
	WindowID string  `json:"window_id" db:"window_id"`
	SellerID *string `json:"seller_id,omitempty" db:"seller_id"`
}
