package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MQuirosP/backend-bancas-sub001/internal/bizday"
	"github.com/MQuirosP/backend-bancas-sub001/internal/cache"
	"github.com/MQuirosP/backend-bancas-sub001/internal/config"
	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
	"github.com/MQuirosP/backend-bancas-sub001/internal/ledger"
	"github.com/MQuirosP/backend-bancas-sub001/internal/repository"
	"github.com/MQuirosP/backend-bancas-sub001/pkg/logger"
)

// StatementFilters selects the range, the entity tier, and optionally
// one entity of that tier. A nil EntityID means every entity of the
// dimension, with per-entity drill-down on each day row.
type StatementFilters struct {
	From      time.Time
	To        time.Time
	Dimension domain.Dimension
	EntityID  *string
	Sort      domain.SortOrder
	Force     bool
}

// StatementService assembles statement reports over a date range,
// produces per-day audit breakdowns, and removes empty statement rows.
type StatementService interface {
	GetStatement(ctx context.Context, filters StatementFilters) (*domain.StatementReport, error)
	GetDayBreakdown(day time.Time, dimension domain.Dimension, entityID *string) ([]domain.BreakdownLine, error)
	DeleteEmptyStatement(ctx context.Context, day time.Time, dimension domain.Dimension, entityID *string) error
}

type statementService struct {
	calculator CalculatorService
	salesRepo  repository.SalesRepository
	stmtRepo   repository.StatementRepository
	mvRepo     repository.MovementRepository
	cache      cache.StatementCache
	cfg        config.AppConfig
	loc        *time.Location
	now        func() time.Time
}

func NewStatementService(
	calculator CalculatorService,
	salesRepo repository.SalesRepository,
	stmtRepo repository.StatementRepository,
	mvRepo repository.MovementRepository,
	statementCache cache.StatementCache,
	cfg config.AppConfig,
	loc *time.Location,
) StatementService {
	return &statementService{
		calculator: calculator,
		salesRepo:  salesRepo,
		stmtRepo:   stmtRepo,
		mvRepo:     mvRepo,
		cache:      statementCache,
		cfg:        cfg,
		loc:        loc,
		now:        time.Now,
	}
}

func (s *statementService) GetStatement(ctx context.Context, filters StatementFilters) (*domain.StatementReport, error) {
	if err := s.validateFilters(&filters); err != nil {
		return nil, err
	}

	key := cache.ReportKey(filters.From, filters.To, filters.Dimension, filters.EntityID, filters.Sort)
	if !filters.Force {
		if report, ok := s.cache.GetReport(ctx, key); ok {
			return report, nil
		}
	}

	report, err := s.buildReport(filters)
	if err != nil {
		return nil, err
	}

	s.cache.SetReport(ctx, key, report)
	return report, nil
}

func (s *statementService) validateFilters(filters *StatementFilters) error {
	if !filters.Dimension.Valid() {
		return fmt.Errorf("invalid dimension %q", filters.Dimension)
	}
	if filters.Sort == "" {
		filters.Sort = domain.SortAsc
	}
	if filters.Sort != domain.SortAsc && filters.Sort != domain.SortDesc {
		return fmt.Errorf("invalid sort order %q", filters.Sort)
	}

	filters.From = bizday.DayOf(filters.From, s.loc)
	filters.To = bizday.DayOf(filters.To, s.loc)
	if filters.From.After(filters.To) {
		return fmt.Errorf("date range start %s is after end %s",
			bizday.Format(filters.From), bizday.Format(filters.To))
	}
	if span := len(bizday.DaysBetween(filters.From, filters.To, s.loc)); span > s.cfg.MaxRangeDays {
		return fmt.Errorf("date range spans %d days, maximum is %d", span, s.cfg.MaxRangeDays)
	}

	return nil
}

// buildReport computes every day of the requested range plus the
// month-to-date window of the range's effective month, then hands the
// carry-forward and rollup work to the range assembler.
func (s *statementService) buildReport(filters StatementFilters) (*domain.StatementReport, error) {
	monthFirst := bizday.MonthOf(filters.To, s.loc)
	monthDays := bizday.DaysBetween(monthFirst, s.monthWindowEnd(filters.To), s.loc)
	rangeDays := bizday.DaysBetween(filters.From, filters.To, s.loc)

	opening, err := s.stmtRepo.PreviousMonthFinalBalance(monthFirst, filters.Dimension, filters.EntityID, s.cfg.LookbackDays)
	if err != nil {
		return nil, err
	}

	results := make(map[string]ledger.DayResult, len(rangeDays)+len(monthDays))
	for _, day := range append(append([]time.Time{}, rangeDays...), monthDays...) {
		dayKey := ledger.DayKey(day)
		if _, done := results[dayKey]; done {
			continue
		}

		var result ledger.DayResult
		if filters.EntityID != nil {
			result, err = s.scopedDay(day, filters.Dimension, filters.EntityID, filters.Force)
		} else {
			result, err = s.unscopedDay(day, filters.Dimension)
		}
		if err != nil {
			return nil, err
		}
		results[dayKey] = result
	}

	out := ledger.AssembleRange(ledger.RangeInput{
		Days:      rangeDays,
		MonthDays: monthDays,
		Results:   results,
		Dimension: filters.Dimension,
		EntityID:  filters.EntityID,
		Opening:   opening,
		Sort:      filters.Sort,
	})

	return &domain.StatementReport{
		Statements:  out.Statements,
		Totals:      out.Totals,
		MonthToDate: out.MonthToDate,
		Meta: domain.ReportMeta{
			From:           filters.From,
			To:             filters.To,
			Month:          monthFirst,
			Dimension:      filters.Dimension,
			EntityID:       filters.EntityID,
			OpeningBalance: opening,
			Sort:           filters.Sort,
			GeneratedAt:    s.now(),
		},
	}, nil
}

// monthWindowEnd extends month-to-date past the requested range up to
// today when the range ends mid-month, clamped to the month's last day.
func (s *statementService) monthWindowEnd(to time.Time) time.Time {
	end := to
	if today := bizday.DayOf(s.now(), s.loc); today.After(end) {
		end = today
	}
	_, nextMonth := bizday.MonthBounds(to, s.loc)
	if lastOfMonth := nextMonth.AddDate(0, 0, -1); end.After(lastOfMonth) {
		end = lastOfMonth
	}
	return end
}

func (s *statementService) scopedDay(day time.Time, dimension domain.Dimension, entityID *string, force bool) (ledger.DayResult, error) {
	stmt, err := s.calculator.GetOrCompute(day, dimension, entityID, force)
	if err != nil {
		return ledger.DayResult{}, err
	}

	names, err := s.salesRepo.EntityNames(dimension, []string{*entityID})
	if err != nil {
		return ledger.DayResult{}, err
	}

	return ledger.DayResult{
		Row:    ledger.DayRow(stmt, names[*entityID]),
		Stored: hasActivity(stmt),
	}, nil
}

// unscopedDay builds one day row covering every entity of the dimension,
// with the per-entity split attached. Top-level totals and children come
// from the same source rows, so the drill-down always sums to its parent.
func (s *statementService) unscopedDay(day time.Time, dimension domain.Dimension) (ledger.DayResult, error) {
	sales, plays, excluded, err := s.calculator.LoadDay(day, dimension, nil)
	if err != nil {
		return ledger.DayResult{}, err
	}

	stored, err := s.stmtRepo.ListByDay(day, dimension)
	if err != nil {
		return ledger.DayResult{}, err
	}

	aggregator := ledger.NewAggregator(excluded)
	byEntity := aggregator.AggregateByEntity(dimension, sales, plays)

	storedByEntity := make(map[string]*domain.AccountStatement, len(stored))
	entityIDs := make([]string, 0, len(byEntity)+len(stored))
	for id := range byEntity {
		entityIDs = append(entityIDs, id)
	}
	for i := range stored {
		id := deref(stored[i].EntityID())
		storedByEntity[id] = &stored[i]
		if _, ok := byEntity[id]; !ok {
			// Movement-only day for this entity: no sales, but its stored
			// statement must still surface.
			entityIDs = append(entityIDs, id)
		}
	}

	names, err := s.salesRepo.EntityNames(dimension, entityIDs)
	if err != nil {
		return ledger.DayResult{}, err
	}

	children := make([]domain.DayStatement, 0, len(entityIDs))
	movements := domain.MovementTotals{TotalPaid: decimal.Zero, TotalCollected: decimal.Zero}
	for _, id := range entityIDs {
		activity, ok := byEntity[id]
		if !ok {
			activity = ledger.ZeroActivity()
		}

		totals := domain.MovementTotals{TotalPaid: decimal.Zero, TotalCollected: decimal.Zero}
		if stmt := storedByEntity[id]; stmt != nil {
			totals = domain.MovementTotals{TotalPaid: stmt.TotalPaid, TotalCollected: stmt.TotalCollected}
		}
		movements.TotalPaid = movements.TotalPaid.Add(totals.TotalPaid)
		movements.TotalCollected = movements.TotalCollected.Add(totals.TotalCollected)

		entityID := id
		child := domain.AccountStatement{Day: day, Dimension: dimension}
		child.SetEntityID(&entityID)
		ledger.Compute(&child, activity, totals)
		children = append(children, ledger.DayRow(&child, names[id]))
	}

	top := domain.AccountStatement{Day: day, Dimension: dimension}
	ledger.Compute(&top, aggregator.AggregateDay(sales, plays), movements)

	row := ledger.DayRow(&top, "")
	row.ByEntity = children

	return ledger.DayResult{Row: row, Stored: hasActivity(&top)}, nil
}

// GetDayBreakdown interleaves one day's per-draw results with its active
// cash movements into a chronological audit trail. The opening line
// carries the prior month's final balance only on the month's first day;
// any other day opens at zero and the range view supplies the carry.
func (s *statementService) GetDayBreakdown(day time.Time, dimension domain.Dimension, entityID *string) ([]domain.BreakdownLine, error) {
	if !dimension.Valid() {
		return nil, fmt.Errorf("invalid dimension %q", dimension)
	}
	day = bizday.DayOf(day, s.loc)

	opening := decimal.Zero
	if monthFirst := bizday.MonthOf(day, s.loc); bizday.SameDay(day, monthFirst, s.loc) {
		var err error
		opening, err = s.stmtRepo.PreviousMonthFinalBalance(monthFirst, dimension, entityID, s.cfg.LookbackDays)
		if err != nil {
			return nil, err
		}
	}

	draws, err := s.drawTotals(day, dimension, entityID)
	if err != nil {
		return nil, err
	}

	var movements []domain.AccountPayment
	stmt, err := s.stmtRepo.Get(day, dimension, entityID)
	if err != nil {
		return nil, err
	}
	if stmt != nil {
		movements, err = s.mvRepo.ListByStatement(stmt.ID)
		if err != nil {
			return nil, err
		}
	}

	return ledger.InterleaveBreakdown(day, opening, draws, movements), nil
}

func (s *statementService) drawTotals(day time.Time, dimension domain.Dimension, entityID *string) ([]domain.DrawTotal, error) {
	sales, plays, excluded, err := s.calculator.LoadDay(day, dimension, entityID)
	if err != nil {
		return nil, err
	}
	if len(sales) == 0 {
		return nil, nil
	}

	byDraw := make(map[string][]domain.SaleRecord)
	drawIDs := make([]string, 0)
	for _, sale := range sales {
		if _, ok := byDraw[sale.DrawID]; !ok {
			drawIDs = append(drawIDs, sale.DrawID)
		}
		byDraw[sale.DrawID] = append(byDraw[sale.DrawID], sale)
	}

	drawInfo, err := s.salesRepo.GetDraws(drawIDs)
	if err != nil {
		return nil, err
	}

	aggregator := ledger.NewAggregator(excluded)
	totals := make([]domain.DrawTotal, 0, len(drawIDs))
	for _, drawID := range drawIDs {
		activity := aggregator.AggregateDay(byDraw[drawID], plays)
		if activity.TicketCount == 0 {
			continue
		}

		commission := activity.WindowCommission
		if dimension == domain.DimensionSeller {
			commission = activity.SellerCommission
		}

		draw := drawInfo[drawID]
		name := draw.Name
		if name == "" {
			name = drawID
		}
		totals = append(totals, domain.DrawTotal{
			DrawID:     drawID,
			DrawName:   name,
			DrawTime:   draw.ScheduledAt,
			Sales:      activity.Sales,
			Payouts:    activity.Payouts,
			Commission: commission,
		})
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].DrawTime.Before(totals[j].DrawTime)
	})

	return totals, nil
}

// DeleteEmptyStatement removes a stored statement row that carries no
// tickets and no movements. Anything with activity stays put.
func (s *statementService) DeleteEmptyStatement(ctx context.Context, day time.Time, dimension domain.Dimension, entityID *string) error {
	if !dimension.Valid() {
		return fmt.Errorf("invalid dimension %q", dimension)
	}
	day = bizday.DayOf(day, s.loc)

	if err := s.stmtRepo.DeleteEmpty(day, dimension, entityID); err != nil {
		return err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"day":       bizday.Format(day),
		"dimension": dimension,
	}).Info("Deleted empty account statement")

	s.cache.Invalidate(ctx, dimension, entityID)
	return nil
}

func hasActivity(stmt *domain.AccountStatement) bool {
	return stmt.TicketCount > 0 || !stmt.TotalPaid.IsZero() || !stmt.TotalCollected.IsZero()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
