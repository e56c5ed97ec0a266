package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
)

// BalanceFor applies the dimension-dependent balance formula:
// balance = sales - payouts - commission(dimension), where seller
// statements subtract the seller-side commission and window/bank
// statements subtract the window side.
func BalanceFor(dimension domain.Dimension, activity DayActivity) decimal.Decimal {
	commission := activity.WindowCommission
	if dimension == domain.DimensionSeller {
		commission = activity.SellerCommission
	}
	return activity.Sales.Sub(activity.Payouts).Sub(commission)
}

// Remaining applies remainingBalance = balance - collected + paid
func Remaining(balance, collected, paid decimal.Decimal) decimal.Decimal {
	return balance.Sub(collected).Add(paid)
}

// IsSettledState decides settlement: the day has tickets, its remaining
// balance nets to zero within one cent, and at least one active cash
// movement explains the zero. A day with no tickets never settles.
func IsSettledState(ticketCount int, remaining, paid, collected decimal.Decimal) bool {
	if ticketCount == 0 {
		return false
	}
	if remaining.Abs().GreaterThanOrEqual(domain.SettleEpsilon) {
		return false
	}
	return paid.IsPositive() || collected.IsPositive()
}

// Compute fills a statement's cached totals from one day's aggregated
// activity and its active movement totals. The statement's key fields
// (day, dimension, entity) must already be set.
func Compute(stmt *domain.AccountStatement, activity DayActivity, movements domain.MovementTotals) {
	stmt.TotalSales = activity.Sales
	stmt.TotalPayouts = activity.Payouts
	stmt.SellerCommission = activity.SellerCommission
	stmt.WindowCommission = activity.WindowCommission
	stmt.TicketCount = activity.TicketCount

	if activity.TicketCount == 0 {
		// A day can carry payments with no sales; its balance is zero but
		// the movement totals are preserved.
		stmt.Balance = decimal.Zero
	} else {
		stmt.Balance = BalanceFor(stmt.Dimension, activity)
	}

	stmt.TotalPaid = movements.TotalPaid
	stmt.TotalCollected = movements.TotalCollected
	stmt.RemainingBalance = Remaining(stmt.Balance, stmt.TotalCollected, stmt.TotalPaid)
	stmt.IsSettled = IsSettledState(stmt.TicketCount, stmt.RemainingBalance, stmt.TotalPaid, stmt.TotalCollected)
}

// RefreshMovements re-derives the movement-dependent fields of an
// already computed statement. Used when movements change but sales have
// not been re-read.
func RefreshMovements(stmt *domain.AccountStatement, movements domain.MovementTotals) {
	stmt.TotalPaid = movements.TotalPaid
	stmt.TotalCollected = movements.TotalCollected
	stmt.RemainingBalance = Remaining(stmt.Balance, stmt.TotalCollected, stmt.TotalPaid)
	stmt.IsSettled = IsSettledState(stmt.TicketCount, stmt.RemainingBalance, stmt.TotalPaid, stmt.TotalCollected)
}

// DayRow projects a statement into a report row
func DayRow(stmt *domain.AccountStatement, entityName string) domain.DayStatement {
	return domain.DayStatement{
		Date:             stmt.Day,
		Dimension:        stmt.Dimension,
		EntityID:         stmt.EntityID(),
		EntityName:       entityName,
		TotalSales:       stmt.TotalSales,
		TotalPayouts:     stmt.TotalPayouts,
		WindowCommission: stmt.WindowCommission,
		SellerCommission: stmt.SellerCommission,
		Balance:          stmt.Balance,
		TotalPaid:        stmt.TotalPaid,
		TotalCollected:   stmt.TotalCollected,
		RemainingBalance: stmt.RemainingBalance,
		TicketCount:      stmt.TicketCount,
		IsSettled:        stmt.IsSettled,
		CanEdit:          stmt.CanEdit(),
	}
}
