package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
)

const dayKeyLayout = "2006-01-02"

// DayKey is the Results map key for a day
func DayKey(day time.Time) string {
	return day.Format(dayKeyLayout)
}

// RangeOutput is the assembled report body before meta is attached
type RangeOutput struct {
	Statements  []domain.DayStatement
	Totals      domain.StatementTotals
	MonthToDate domain.StatementTotals
}

// AssembleRange walks every day of the requested range and the
// month-to-date window in ascending order, carrying the last known
// remaining balance across days with no activity so the emitted series
// has no discontinuities. The month opening balance seeds the carry on
// the effective month's first day and stays a separate meta value,
// never folded into a day's own balance; range days belonging to an
// earlier month never see it.
func AssembleRange(in RangeInput) RangeOutput {
	union := unionDays(in.Days, in.MonthDays)

	inRange := daySet(in.Days)
	inMonth := daySet(in.MonthDays)

	monthFirst := earliestDay(in.MonthDays)

	finalized := make(map[string]domain.DayStatement, len(union))
	carry := decimal.Zero
	seeded := monthFirst.IsZero()
	if seeded {
		carry = in.Opening
	}

	for _, day := range union {
		if !seeded && !day.Before(monthFirst) {
			carry = in.Opening
			seeded = true
		}

		key := DayKey(day)
		res, ok := in.Results[key]
		if !ok || !res.Stored {
			row := domain.DayStatement{
				Date:             day,
				Dimension:        in.Dimension,
				EntityID:         in.EntityID,
				TotalSales:       decimal.Zero,
				TotalPayouts:     decimal.Zero,
				WindowCommission: decimal.Zero,
				SellerCommission: decimal.Zero,
				Balance:          decimal.Zero,
				TotalPaid:        decimal.Zero,
				TotalCollected:   decimal.Zero,
				RemainingBalance: carry,
				CanEdit:          true,
				Synthesized:      true,
			}
			finalized[key] = row
			continue
		}

		row := res.Row
		sortChildren(row.ByEntity)
		finalized[key] = row
		carry = row.RemainingBalance
	}

	out := RangeOutput{
		Statements:  make([]domain.DayStatement, 0, len(in.Days)),
		Totals:      zeroTotals(),
		MonthToDate: zeroTotals(),
	}

	for _, day := range union {
		key := DayKey(day)
		row := finalized[key]
		if inRange[key] {
			out.Statements = append(out.Statements, row)
			if !row.Synthesized {
				accumulate(&out.Totals, row)
			}
		}
		if inMonth[key] && !row.Synthesized {
			accumulate(&out.MonthToDate, row)
		}
	}

	finishTotals(&out.Totals)
	finishTotals(&out.MonthToDate)

	if in.Sort == domain.SortDesc {
		sort.SliceStable(out.Statements, func(i, j int) bool {
			return out.Statements[i].Date.After(out.Statements[j].Date)
		})
	}

	return out
}

func unionDays(a, b []time.Time) []time.Time {
	seen := make(map[string]time.Time, len(a)+len(b))
	for _, d := range a {
		seen[DayKey(d)] = d
	}
	for _, d := range b {
		if _, ok := seen[DayKey(d)]; !ok {
			seen[DayKey(d)] = d
		}
	}
	days := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

func earliestDay(days []time.Time) time.Time {
	var first time.Time
	for _, d := range days {
		if first.IsZero() || d.Before(first) {
			first = d
		}
	}
	return first
}

func daySet(days []time.Time) map[string]bool {
	set := make(map[string]bool, len(days))
	for _, d := range days {
		set[DayKey(d)] = true
	}
	return set
}

func sortChildren(children []domain.DayStatement) {
	sort.SliceStable(children, func(i, j int) bool {
		if children[i].EntityName != children[j].EntityName {
			return children[i].EntityName < children[j].EntityName
		}
		return deref(children[i].EntityID) < deref(children[j].EntityID)
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func zeroTotals() domain.StatementTotals {
	return domain.StatementTotals{
		TotalSales:       decimal.Zero,
		TotalPayouts:     decimal.Zero,
		WindowCommission: decimal.Zero,
		SellerCommission: decimal.Zero,
		Balance:          decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalCollected:   decimal.Zero,
		RemainingBalance: decimal.Zero,
	}
}

func accumulate(t *domain.StatementTotals, row domain.DayStatement) {
	t.TotalSales = t.TotalSales.Add(row.TotalSales)
	t.TotalPayouts = t.TotalPayouts.Add(row.TotalPayouts)
	t.WindowCommission = t.WindowCommission.Add(row.WindowCommission)
	t.SellerCommission = t.SellerCommission.Add(row.SellerCommission)
	t.Balance = t.Balance.Add(row.Balance)
	t.TotalPaid = t.TotalPaid.Add(row.TotalPaid)
	t.TotalCollected = t.TotalCollected.Add(row.TotalCollected)
	t.TicketCount += row.TicketCount
}

// finishTotals derives the rollup remaining balance from the summed
// parts so the remaining-balance formula holds for totals too.
func finishTotals(t *domain.StatementTotals) {
	t.RemainingBalance = Remaining(t.Balance, t.TotalCollected, t.TotalPaid)
}
