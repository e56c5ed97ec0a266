package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
)

// CommissionSource tags how a day's window-side commission was obtained
type CommissionSource string

const (
	// CommissionSnapshot means every commission came from frozen play snapshots
	CommissionSnapshot CommissionSource = "SNAPSHOT"
	// CommissionDerived means the window side was reconstructed from legacy
	// plays recorded before snapshot columns existed
	CommissionDerived CommissionSource = "DERIVED"
)

// DayActivity is the aggregation of one business day for one entity
// (or for all entities of a dimension when unscoped).
type DayActivity struct {
	Sales            decimal.Decimal
	Payouts          decimal.Decimal
	SellerCommission decimal.Decimal
	WindowCommission decimal.Decimal
	TicketCount      int
	CommissionSource CommissionSource
}

// ZeroActivity is a day with no counted tickets
func ZeroActivity() DayActivity {
	return DayActivity{
		Sales:            decimal.Zero,
		Payouts:          decimal.Zero,
		SellerCommission: decimal.Zero,
		WindowCommission: decimal.Zero,
		CommissionSource: CommissionSnapshot,
	}
}

// ExcludeFunc reports whether a window/seller is block-listed for a draw
type ExcludeFunc func(drawID, windowID, sellerID string) bool

// DayResult is one computed day handed to the range assembler. Stored is
// false when neither sales activity nor a persisted statement backs the
// row, which makes it a candidate for gap synthesis.
type DayResult struct {
	Row    domain.DayStatement
	Stored bool
}

// RangeInput feeds AssembleRange. Results must cover the union of Days
// and MonthDays, keyed by YYYY-MM-DD; missing keys are synthesized.
type RangeInput struct {
	Days      []time.Time
	MonthDays []time.Time
	Results   map[string]DayResult
	Dimension domain.Dimension
	EntityID  *string
	Opening   decimal.Decimal
	Sort      domain.SortOrder
}
