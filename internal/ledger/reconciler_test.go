package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func days(from, to time.Time) []time.Time {
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func storedDay(d time.Time, remaining int64, tickets int) DayResult {
	return DayResult{
		Stored: true,
		Row: domain.DayStatement{
			Date:             d,
			Dimension:        domain.DimensionWindow,
			TotalSales:       decimal.NewFromInt(remaining),
			Balance:          decimal.NewFromInt(remaining),
			TotalPaid:        decimal.Zero,
			TotalCollected:   decimal.Zero,
			TotalPayouts:     decimal.Zero,
			WindowCommission: decimal.Zero,
			SellerCommission: decimal.Zero,
			RemainingBalance: decimal.NewFromInt(remaining),
			TicketCount:      tickets,
			CanEdit:          true,
		},
	}
}

func TestAssembleRange_GapFillingCarriesRemaining(t *testing.T) {
	d1 := day(2025, 3, 1)
	d5 := day(2025, 3, 5)

	results := map[string]DayResult{
		DayKey(day(2025, 3, 2)): storedDay(day(2025, 3, 2), 70, 3),
	}

	out := AssembleRange(RangeInput{
		Days:      days(d1, d5),
		MonthDays: days(d1, d5),
		Results:   results,
		Dimension: domain.DimensionWindow,
		Opening:   decimal.NewFromInt(20),
		Sort:      domain.SortAsc,
	})

	require.Len(t, out.Statements, 5)

	// Day 1 has no activity: it echoes the month opening balance.
	assert.True(t, out.Statements[0].Synthesized)
	assert.True(t, out.Statements[0].RemainingBalance.Equal(decimal.NewFromInt(20)))

	// Day 2 is real.
	assert.False(t, out.Statements[1].Synthesized)
	assert.True(t, out.Statements[1].RemainingBalance.Equal(decimal.NewFromInt(70)))

	// Days 3..5 carry day 2's remaining forward.
	for i := 2; i < 5; i++ {
		assert.True(t, out.Statements[i].Synthesized)
		assert.True(t, out.Statements[i].RemainingBalance.Equal(decimal.NewFromInt(70)), "day %d should carry 70", i+1)
	}
}

func TestAssembleRange_TotalsSkipSynthesizedDays(t *testing.T) {
	d1 := day(2025, 3, 1)
	d3 := day(2025, 3, 3)

	results := map[string]DayResult{
		DayKey(d1): storedDay(d1, 100, 2),
		DayKey(d3): storedDay(d3, 50, 1),
	}

	out := AssembleRange(RangeInput{
		Days:      days(d1, d3),
		MonthDays: days(d1, d3),
		Results:   results,
		Dimension: domain.DimensionWindow,
		Opening:   decimal.Zero,
		Sort:      domain.SortAsc,
	})

	assert.Equal(t, 3, out.Totals.TicketCount)
	assert.True(t, out.Totals.Balance.Equal(decimal.NewFromInt(150)))
	assert.True(t, out.Totals.RemainingBalance.Equal(decimal.NewFromInt(150)), "totals remaining follows the formula over summed parts")
}

func TestAssembleRange_MonthToDateWiderThanRange(t *testing.T) {
	// Requested range is only March 10..11, but the month window pulls in
	// activity from March 1st.
	d1 := day(2025, 3, 1)
	d10 := day(2025, 3, 10)
	d11 := day(2025, 3, 11)

	results := map[string]DayResult{
		DayKey(d1):  storedDay(d1, 200, 4),
		DayKey(d10): storedDay(d10, 30, 1),
	}

	out := AssembleRange(RangeInput{
		Days:      days(d10, d11),
		MonthDays: days(d1, d11),
		Results:   results,
		Dimension: domain.DimensionWindow,
		Opening:   decimal.Zero,
		Sort:      domain.SortAsc,
	})

	require.Len(t, out.Statements, 2)
	assert.Equal(t, 1, out.Totals.TicketCount, "period totals cover the requested range only")
	assert.Equal(t, 5, out.MonthToDate.TicketCount, "month-to-date covers the whole month window")
}

func TestAssembleRange_DescendingSort(t *testing.T) {
	d1 := day(2025, 3, 1)
	d3 := day(2025, 3, 3)

	out := AssembleRange(RangeInput{
		Days:      days(d1, d3),
		MonthDays: days(d1, d3),
		Results:   map[string]DayResult{},
		Dimension: domain.DimensionWindow,
		Opening:   decimal.Zero,
		Sort:      domain.SortDesc,
	})

	require.Len(t, out.Statements, 3)
	assert.True(t, out.Statements[0].Date.After(out.Statements[2].Date))
}

func TestAssembleRange_ChildrenOrderedByEntityName(t *testing.T) {
	d1 := day(2025, 3, 1)
	res := storedDay(d1, 10, 1)
	res.Row.ByEntity = []domain.DayStatement{
		{EntityName: "Ventanilla Sur"},
		{EntityName: "Ventanilla Centro"},
		{EntityName: "Ventanilla Norte"},
	}

	out := AssembleRange(RangeInput{
		Days:      []time.Time{d1},
		MonthDays: []time.Time{d1},
		Results:   map[string]DayResult{DayKey(d1): res},
		Dimension: domain.DimensionWindow,
		Opening:   decimal.Zero,
		Sort:      domain.SortAsc,
	})

	require.Len(t, out.Statements[0].ByEntity, 3)
	assert.Equal(t, "Ventanilla Centro", out.Statements[0].ByEntity[0].EntityName)
	assert.Equal(t, "Ventanilla Sur", out.Statements[0].ByEntity[2].EntityName)
}

func TestAssembleRange_OpeningSeedsAtMonthFirstOnly(t *testing.T) {
	// The range spans Jan 30 .. Feb 2 while the effective month is
	// February; February's opening balance must not leak backward into
	// January's synthesized days.
	rangeDays := days(day(2026, 1, 30), day(2026, 2, 2))
	monthDays := days(day(2026, 2, 1), day(2026, 2, 10))

	results := map[string]DayResult{
		DayKey(day(2026, 1, 31)): storedDay(day(2026, 1, 31), 60, 1),
	}

	out := AssembleRange(RangeInput{
		Days:      rangeDays,
		MonthDays: monthDays,
		Results:   results,
		Dimension: domain.DimensionWindow,
		Opening:   decimal.NewFromInt(25),
		Sort:      domain.SortAsc,
	})

	require.Len(t, out.Statements, 4)

	assert.True(t, out.Statements[0].Synthesized)
	assert.True(t, out.Statements[0].RemainingBalance.IsZero(), "January days carry nothing from February's opening")

	assert.False(t, out.Statements[1].Synthesized)
	assert.True(t, out.Statements[1].RemainingBalance.Equal(decimal.NewFromInt(60)))

	assert.True(t, out.Statements[2].Synthesized)
	assert.True(t, out.Statements[2].RemainingBalance.Equal(decimal.NewFromInt(25)), "the opening seeds the carry on the month's first day")
	assert.True(t, out.Statements[3].RemainingBalance.Equal(decimal.NewFromInt(25)))
}

func TestAssembleRange_MonthCarryOverMatchesOpening(t *testing.T) {
	// The remaining balance on the last day of March equals the opening
	// seed used for April 1st.
	lastOfMarch := day(2025, 3, 31)
	marchOut := AssembleRange(RangeInput{
		Days:      []time.Time{lastOfMarch},
		MonthDays: []time.Time{lastOfMarch},
		Results:   map[string]DayResult{DayKey(lastOfMarch): storedDay(lastOfMarch, 85, 2)},
		Dimension: domain.DimensionWindow,
		Opening:   decimal.Zero,
		Sort:      domain.SortAsc,
	})
	finalRemaining := marchOut.Statements[0].RemainingBalance

	firstOfApril := day(2025, 4, 1)
	aprilOut := AssembleRange(RangeInput{
		Days:      []time.Time{firstOfApril},
		MonthDays: []time.Time{firstOfApril},
		Results:   map[string]DayResult{},
		Dimension: domain.DimensionWindow,
		Opening:   finalRemaining,
		Sort:      domain.SortAsc,
	})

	assert.True(t, aprilOut.Statements[0].RemainingBalance.Equal(finalRemaining))
}
