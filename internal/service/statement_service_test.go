package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
)

type statementEnv struct {
	salesRepo *fakeSalesRepo
	stmtRepo  *fakeStatementRepo
	mvRepo    *fakeMovementRepo
	cache     *fakeCache
	paySvc    PaymentService
	svc       *statementService
}

func newStatementEnv(now time.Time) *statementEnv {
	salesRepo := newFakeSalesRepo()
	mvRepo := newFakeMovementRepo()
	stmtRepo := newFakeStatementRepo(mvRepo)
	cacheDouble := &fakeCache{}
	calc := NewCalculatorService(salesRepo, stmtRepo, mvRepo)
	cfg := testAppConfig()
	svc := NewStatementService(calc, salesRepo, stmtRepo, mvRepo, cacheDouble, cfg, time.UTC).(*statementService)
	svc.now = func() time.Time { return now }
	return &statementEnv{
		salesRepo: salesRepo,
		stmtRepo:  stmtRepo,
		mvRepo:    mvRepo,
		cache:     cacheDouble,
		paySvc:    NewPaymentService(calc, stmtRepo, mvRepo, cacheDouble, cfg, time.UTC),
		svc:       svc,
	}
}

func TestGetStatement_RejectsTooLongRange(t *testing.T) {
	now := time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)
	env := newStatementEnv(now)

	_, err := env.svc.GetStatement(context.Background(), StatementFilters{
		From:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC),
		Dimension: domain.DimensionSeller,
		EntityID:  strPtr("S1"),
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum")
}

func TestGetStatement_RejectsInvertedRange(t *testing.T) {
	now := time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)
	env := newStatementEnv(now)

	_, err := env.svc.GetStatement(context.Background(), StatementFilters{
		From:      time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		Dimension: domain.DimensionSeller,
		EntityID:  strPtr("S1"),
	})

	require.Error(t, err)
}

func TestGetStatement_GapFillingCarriesRemainingBalance(t *testing.T) {
	now := time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)
	env := newStatementEnv(now)
	env.stmtRepo.prevMonthFinal = decimal.NewFromInt(25)

	saleDay := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	seedSale(env.salesRepo, "T1", saleDay)
	env.salesRepo.names["S1"] = "Ana"

	report, err := env.svc.GetStatement(context.Background(), StatementFilters{
		From:      time.Date(2026, 5, 8, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC),
		Dimension: domain.DimensionSeller,
		EntityID:  strPtr("S1"),
	})

	require.NoError(t, err)
	require.Len(t, report.Statements, 5)

	assert.True(t, report.Statements[0].Synthesized)
	assert.True(t, decimal.NewFromInt(25).Equal(report.Statements[0].RemainingBalance),
		"days before any activity carry the month opening balance")

	real := report.Statements[2]
	assert.False(t, real.Synthesized)
	assert.Equal(t, "Ana", real.EntityName)
	assert.True(t, decimal.NewFromInt(50).Equal(real.RemainingBalance))

	assert.True(t, report.Statements[3].Synthesized)
	assert.True(t, decimal.NewFromInt(50).Equal(report.Statements[3].RemainingBalance),
		"gap days after activity carry the last real remaining balance")

	assert.Equal(t, 1, report.Totals.TicketCount, "synthesized days never count toward totals")
	assert.True(t, decimal.NewFromInt(100).Equal(report.Totals.TotalSales))
	assert.Equal(t, 1, report.MonthToDate.TicketCount)
	assert.True(t, decimal.NewFromInt(25).Equal(report.Meta.OpeningBalance))
}

func TestGetStatement_DescendingSort(t *testing.T) {
	now := time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)
	env := newStatementEnv(now)
	seedSale(env.salesRepo, "T1", time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC))

	report, err := env.svc.GetStatement(context.Background(), StatementFilters{
		From:      time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC),
		Dimension: domain.DimensionSeller,
		EntityID:  strPtr("S1"),
		Sort:      domain.SortDesc,
	})

	require.NoError(t, err)
	require.Len(t, report.Statements, 3)
	assert.True(t, report.Statements[0].Date.After(report.Statements[2].Date))
}

func TestGetStatement_UnscopedIncludesPerEntityBreakdown(t *testing.T) {
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	env := newStatementEnv(now)

	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	seedSale(env.salesRepo, "T1", day)
	env.salesRepo.sales = append(env.salesRepo.sales, domain.SaleRecord{
		ID:          "T2",
		DrawID:      "D1",
		BankID:      "B1",
		WindowID:    "W2",
		SellerID:    "S2",
		Amount:      decimal.NewFromInt(80),
		Status:      domain.SaleActive,
		BusinessDay: day,
		CreatedAt:   day.Add(11 * time.Hour),
	})
	env.salesRepo.names["S1"] = "Ana"
	env.salesRepo.names["S2"] = "Berto"

	report, err := env.svc.GetStatement(context.Background(), StatementFilters{
		From:      day,
		To:        day,
		Dimension: domain.DimensionSeller,
	})

	require.NoError(t, err)
	require.Len(t, report.Statements, 1)

	row := report.Statements[0]
	assert.True(t, decimal.NewFromInt(180).Equal(row.TotalSales))
	assert.Equal(t, 2, row.TicketCount)

	require.Len(t, row.ByEntity, 2)
	assert.Equal(t, "Ana", row.ByEntity[0].EntityName)
	assert.Equal(t, "Berto", row.ByEntity[1].EntityName)
	assert.True(t, decimal.NewFromInt(100).Equal(row.ByEntity[0].TotalSales))
	assert.True(t, decimal.NewFromInt(80).Equal(row.ByEntity[1].TotalSales))
}

func TestGetDayBreakdown_InterleavesDrawsAndMovements(t *testing.T) {
	now := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	env := newStatementEnv(now)

	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	seedSale(env.salesRepo, "T1", day)
	env.salesRepo.draws["D1"] = domain.Draw{
		ID:          "D1",
		Name:        "Sorteo Mediodia",
		ScheduledAt: day.Add(12 * time.Hour),
	}

	_, err := env.paySvc.RegisterPayment(context.Background(), sellerRequest(day, 30, domain.MovementCollection))
	require.NoError(t, err)

	lines, err := env.svc.GetDayBreakdown(day, domain.DimensionSeller, strPtr("S1"))

	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, domain.LineOpening, lines[0].Kind)
	assert.True(t, lines[0].RunningBalance.IsZero(), "mid-month days open at zero")

	assert.Equal(t, domain.LineDraw, lines[1].Kind)
	assert.Equal(t, "Sorteo Mediodia", lines[1].Label)
	assert.True(t, decimal.NewFromInt(50).Equal(lines[1].Amount))
	assert.True(t, decimal.NewFromInt(50).Equal(lines[1].RunningBalance))

	assert.Equal(t, domain.LineMovement, lines[2].Kind)
	assert.True(t, decimal.NewFromInt(-30).Equal(lines[2].Amount))
	assert.True(t, decimal.NewFromInt(20).Equal(lines[2].RunningBalance))
}

func TestGetDayBreakdown_MonthFirstOpensWithCarryOver(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	env := newStatementEnv(now)
	env.stmtRepo.prevMonthFinal = decimal.NewFromInt(40)

	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	lines, err := env.svc.GetDayBreakdown(day, domain.DimensionSeller, strPtr("S1"))

	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, domain.LineOpening, lines[0].Kind)
	assert.True(t, decimal.NewFromInt(40).Equal(lines[0].RunningBalance))
}

func TestDeleteEmptyStatement(t *testing.T) {
	now := time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)
	env := newStatementEnv(now)

	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	calc := NewCalculatorService(env.salesRepo, env.stmtRepo, env.mvRepo)
	_, err := calc.EnsureStatement(day, domain.DimensionSeller, strPtr("S1"))
	require.NoError(t, err)

	err = env.svc.DeleteEmptyStatement(context.Background(), day, domain.DimensionSeller, strPtr("S1"))
	require.NoError(t, err)
	assert.Empty(t, env.stmtRepo.byID)
	assert.NotEmpty(t, env.cache.invalidations)

	err = env.svc.DeleteEmptyStatement(context.Background(), day, domain.DimensionSeller, strPtr("S1"))
	require.Error(t, err)
	assert.Equal(t, domain.ErrStatementNotFound, domain.KindOf(err))
}

func TestDeleteEmptyStatement_RejectsDayWithTickets(t *testing.T) {
	now := time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)
	env := newStatementEnv(now)

	day := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	seedSale(env.salesRepo, "T1", day)

	calc := NewCalculatorService(env.salesRepo, env.stmtRepo, env.mvRepo)
	_, err := calc.GetOrCompute(day, domain.DimensionSeller, strPtr("S1"), false)
	require.NoError(t, err)

	err = env.svc.DeleteEmptyStatement(context.Background(), day, domain.DimensionSeller, strPtr("S1"))
	require.Error(t, err)
	assert.Equal(t, domain.ErrStatementHasActivity, domain.KindOf(err))
}
