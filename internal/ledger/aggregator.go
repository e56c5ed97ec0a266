package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
)

// Aggregator folds raw sale and play records into per-day activity.
// It is a pure reader: records are never mutated and no store access
// happens here.
type Aggregator struct {
	excluded ExcludeFunc
}

func NewAggregator(excluded ExcludeFunc) *Aggregator {
	if excluded == nil {
		excluded = func(string, string, string) bool { return false }
	}
	return &Aggregator{excluded: excluded}
}

// AggregateDay computes the activity of one entity-day from its sales
// and plays. Payouts are counted once per sale that has at least one
// winning play, never per play, so multi-winner tickets do not double
// count. Commission sums follow the frozen beneficiary tags; legacy
// plays with no tag fall back to a derived window-side total.
func (a *Aggregator) AggregateDay(sales []domain.SaleRecord, plays map[string][]domain.PlayRecord) DayActivity {
	activity := ZeroActivity()
	legacyCommission := decimal.Zero
	hasLegacy := false

	for _, sale := range sales {
		if !sale.Status.IsCounted() {
			continue
		}
		if a.excluded(sale.DrawID, sale.WindowID, sale.SellerID) {
			continue
		}

		activity.Sales = activity.Sales.Add(sale.Amount)
		activity.TicketCount++

		hasWinner := false
		for _, play := range plays[sale.ID] {
			if play.IsWinner {
				hasWinner = true
			}
			switch play.CommissionBeneficiary {
			case domain.BeneficiarySeller:
				activity.SellerCommission = activity.SellerCommission.Add(play.CommissionAmount)
			case domain.BeneficiaryWindow:
				activity.WindowCommission = activity.WindowCommission.Add(play.CommissionAmount)
			default:
				// Pre-snapshot rows recorded a single seller-side amount.
				activity.SellerCommission = activity.SellerCommission.Add(play.CommissionAmount)
				legacyCommission = legacyCommission.Add(play.CommissionAmount)
				hasLegacy = true
			}
		}
		if hasWinner {
			activity.Payouts = activity.Payouts.Add(sale.TotalPayout)
		}
	}

	if activity.WindowCommission.IsZero() && hasLegacy {
		activity.WindowCommission = legacyCommission
		activity.CommissionSource = CommissionDerived
	}

	return activity
}

// AggregateByEntity groups one day's records per entity of the given
// dimension in a single pass. Used by unscoped (all-entities) queries so
// the drill-down and the top-level row come from the same source rows.
func (a *Aggregator) AggregateByEntity(dimension domain.Dimension, sales []domain.SaleRecord, plays map[string][]domain.PlayRecord) map[string]DayActivity {
	byEntity := make(map[string][]domain.SaleRecord)
	for _, sale := range sales {
		id := entityIDOf(dimension, sale)
		byEntity[id] = append(byEntity[id], sale)
	}

	out := make(map[string]DayActivity, len(byEntity))
	for id, entitySales := range byEntity {
		out[id] = a.AggregateDay(entitySales, plays)
	}
	return out
}

func entityIDOf(dimension domain.Dimension, sale domain.SaleRecord) string {
	switch dimension {
	case domain.DimensionBank:
		return sale.BankID
	case domain.DimensionWindow:
		return sale.WindowID
	default:
		return sale.SellerID
	}
}
