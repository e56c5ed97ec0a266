package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SortOrder orders statement rows by date
type SortOrder string

const (
	SortAsc  SortOrder = "ASC"
	SortDesc SortOrder = "DESC"
)

// DayStatement is one date row of a statement report. For unscoped
// queries ByEntity carries the per-entity drill-down of the same day.
type DayStatement struct {
	Date             time.Time       `json:"date"`
	Dimension        Dimension       `json:"dimension"`
	EntityID         *string         `json:"entity_id,omitempty"`
	EntityName       string          `json:"entity_name,omitempty"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	TotalPayouts     decimal.Decimal `json:"total_payouts"`
	WindowCommission decimal.Decimal `json:"window_commission"`
	SellerCommission decimal.Decimal `json:"seller_commission"`
	Balance          decimal.Decimal `json:"balance"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	TicketCount      int             `json:"ticket_count"`
	IsSettled        bool            `json:"is_settled"`
	CanEdit          bool            `json:"can_edit"`
	// Synthesized marks a gap-filled day: no sales, no stored statement,
	// remaining balance carried forward from the last known day.
	Synthesized bool           `json:"synthesized,omitempty"`
	ByEntity    []DayStatement `json:"by_entity,omitempty"`
}

// StatementTotals is a rollup over a set of day rows
type StatementTotals struct {
	TotalSales       decimal.Decimal `json:"total_sales"`
	TotalPayouts     decimal.Decimal `json:"total_payouts"`
	WindowCommission decimal.Decimal `json:"window_commission"`
	SellerCommission decimal.Decimal `json:"seller_commission"`
	Balance          decimal.Decimal `json:"balance"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	TicketCount      int             `json:"ticket_count"`
}

// ReportMeta describes how a report was produced
type ReportMeta struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	Month          time.Time       `json:"month"`
	Dimension      Dimension       `json:"dimension"`
	EntityID       *string         `json:"entity_id,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Sort           SortOrder       `json:"sort"`
	GeneratedAt    time.Time       `json:"generated_at"`
}

// StatementReport is the range reconciler's output
type StatementReport struct {
	Statements  []DayStatement  `json:"statements"`
	Totals      StatementTotals `json:"totals"`
	MonthToDate StatementTotals `json:"month_to_date"`
	Meta        ReportMeta      `json:"meta"`
}

// AllSettled reports whether every non-synthesized day in the report is
// settled. Drives the cache TTL split.
func (r *StatementReport) AllSettled() bool {
	any := false
	for _, day := range r.Statements {
		if day.Synthesized {
			continue
		}
		any = true
		if !day.IsSettled {
			return false
		}
	}
	return any
}

// BreakdownKind tags one line of a day breakdown
type BreakdownKind string

const (
	LineOpening  BreakdownKind = "OPENING"
	LineDraw     BreakdownKind = "DRAW"
	LineMovement BreakdownKind = "MOVEMENT"
)

// BreakdownLine is one chronological entry of a day's audit trail with
// the accumulated balance after applying it.
type BreakdownLine struct {
	Time           time.Time       `json:"time"`
	Kind           BreakdownKind   `json:"kind"`
	Label          string          `json:"label"`
	TotalSales     decimal.Decimal `json:"total_sales"`
	TotalPayouts   decimal.Decimal `json:"total_payouts"`
	Commission     decimal.Decimal `json:"commission"`
	Amount         decimal.Decimal `json:"amount"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// DrawTotal is the per-draw aggregation feeding draw breakdown lines
type DrawTotal struct {
	DrawID     string          `json:"draw_id"`
	DrawName   string          `json:"draw_name"`
	DrawTime   time.Time       `json:"draw_time"`
	Sales      decimal.Decimal `json:"sales"`
	Payouts    decimal.Decimal `json:"payouts"`
	Commission decimal.Decimal `json:"commission"`
}
