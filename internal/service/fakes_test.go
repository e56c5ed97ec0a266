package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
	"github.com/MQuirosP/backend-bancas-sub001/internal/ledger"
)

// In-memory doubles mirroring the repository semantics, including the
// settled-day and reversal guards the SQL layer enforces in-tx.

type fakeSalesRepo struct {
	sales      []domain.SaleRecord
	plays      map[string][]domain.PlayRecord
	exclusions []domain.DrawExclusion
	draws      map[string]domain.Draw
	names      map[string]string
}

func newFakeSalesRepo() *fakeSalesRepo {
	return &fakeSalesRepo{
		plays: make(map[string][]domain.PlayRecord),
		draws: make(map[string]domain.Draw),
		names: make(map[string]string),
	}
}

func (f *fakeSalesRepo) FindSalesByDay(day time.Time, dimension domain.Dimension, entityID *string) ([]domain.SaleRecord, error) {
	var out []domain.SaleRecord
	for _, sale := range f.sales {
		if !sale.BusinessDay.Equal(day) || !sale.Status.IsCounted() {
			continue
		}
		if entityID != nil && saleEntityID(dimension, sale) != *entityID {
			continue
		}
		out = append(out, sale)
	}
	return out, nil
}

func (f *fakeSalesRepo) FindPlays(saleIDs []string) (map[string][]domain.PlayRecord, error) {
	out := make(map[string][]domain.PlayRecord)
	for _, id := range saleIDs {
		if plays, ok := f.plays[id]; ok {
			out[id] = plays
		}
	}
	return out, nil
}

func (f *fakeSalesRepo) ListExclusions(drawIDs []string) ([]domain.DrawExclusion, error) {
	wanted := make(map[string]bool, len(drawIDs))
	for _, id := range drawIDs {
		wanted[id] = true
	}
	var out []domain.DrawExclusion
	for _, ex := range f.exclusions {
		if wanted[ex.DrawID] {
			out = append(out, ex)
		}
	}
	return out, nil
}

func (f *fakeSalesRepo) GetDraws(drawIDs []string) (map[string]domain.Draw, error) {
	out := make(map[string]domain.Draw)
	for _, id := range drawIDs {
		if draw, ok := f.draws[id]; ok {
			out[id] = draw
		}
	}
	return out, nil
}

func (f *fakeSalesRepo) EntityNames(dimension domain.Dimension, ids []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, id := range ids {
		if name, ok := f.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

func (f *fakeSalesRepo) BulkCreateSales(sales []domain.SaleRecord) (int, error) {
	existing := make(map[string]bool, len(f.sales))
	for _, sale := range f.sales {
		existing[sale.ID] = true
	}
	inserted := 0
	for _, sale := range sales {
		if existing[sale.ID] {
			continue
		}
		f.sales = append(f.sales, sale)
		existing[sale.ID] = true
		inserted++
	}
	return inserted, nil
}

func (f *fakeSalesRepo) BulkCreatePlays(plays []domain.PlayRecord) (int, error) {
	inserted := 0
	for _, play := range plays {
		dup := false
		for _, existing := range f.plays[play.SaleID] {
			if existing.ID == play.ID {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		f.plays[play.SaleID] = append(f.plays[play.SaleID], play)
		inserted++
	}
	return inserted, nil
}

func saleEntityID(dimension domain.Dimension, sale domain.SaleRecord) string {
	switch dimension {
	case domain.DimensionBank:
		return sale.BankID
	case domain.DimensionWindow:
		return sale.WindowID
	default:
		return sale.SellerID
	}
}

type fakeMovementRepo struct {
	movements map[string]*domain.AccountPayment
	seq       int
}

func newFakeMovementRepo() *fakeMovementRepo {
	return &fakeMovementRepo{movements: make(map[string]*domain.AccountPayment)}
}

func (f *fakeMovementRepo) GetByID(id string) (*domain.AccountPayment, error) {
	mv, ok := f.movements[id]
	if !ok {
		return nil, nil
	}
	copied := *mv
	return &copied, nil
}

func (f *fakeMovementRepo) GetByIdempotencyKey(key string) (*domain.AccountPayment, error) {
	for _, mv := range f.movements {
		if mv.IdempotencyKey != nil && *mv.IdempotencyKey == key {
			copied := *mv
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeMovementRepo) ListByStatement(statementID string) ([]domain.AccountPayment, error) {
	var out []domain.AccountPayment
	for _, mv := range f.movements {
		if mv.StatementID == statementID {
			out = append(out, *mv)
		}
	}
	return out, nil
}

func (f *fakeMovementRepo) ActiveTotals(statementID string) (domain.MovementTotals, error) {
	totals, _ := f.activeTotals(statementID)
	return totals, nil
}

func (f *fakeMovementRepo) activeTotals(statementID string) (domain.MovementTotals, int) {
	totals := domain.MovementTotals{TotalPaid: decimal.Zero, TotalCollected: decimal.Zero}
	count := 0
	for _, mv := range f.movements {
		if mv.StatementID != statementID || mv.Reversed {
			continue
		}
		count++
		if mv.Kind == domain.MovementPayment {
			totals.TotalPaid = totals.TotalPaid.Add(mv.Amount)
		} else {
			totals.TotalCollected = totals.TotalCollected.Add(mv.Amount)
		}
	}
	return totals, count
}

type fakeStatementRepo struct {
	byID           map[string]*domain.AccountStatement
	movements      *fakeMovementRepo
	prevMonthFinal decimal.Decimal
	seq            int
}

func newFakeStatementRepo(movements *fakeMovementRepo) *fakeStatementRepo {
	return &fakeStatementRepo{
		byID:           make(map[string]*domain.AccountStatement),
		movements:      movements,
		prevMonthFinal: decimal.Zero,
	}
}

func (f *fakeStatementRepo) find(day time.Time, dimension domain.Dimension, entityID *string) *domain.AccountStatement {
	for _, stmt := range f.byID {
		if stmt.Day.Equal(day) && stmt.Dimension == dimension && deref(stmt.EntityID()) == deref(entityID) {
			return stmt
		}
	}
	return nil
}

func (f *fakeStatementRepo) Get(day time.Time, dimension domain.Dimension, entityID *string) (*domain.AccountStatement, error) {
	stmt := f.find(day, dimension, entityID)
	if stmt == nil {
		return nil, nil
	}
	copied := *stmt
	return &copied, nil
}

func (f *fakeStatementRepo) GetByID(id string) (*domain.AccountStatement, error) {
	stmt, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *stmt
	return &copied, nil
}

func (f *fakeStatementRepo) ListByDay(day time.Time, dimension domain.Dimension) ([]domain.AccountStatement, error) {
	var out []domain.AccountStatement
	for _, stmt := range f.byID {
		if stmt.Day.Equal(day) && stmt.Dimension == dimension {
			out = append(out, *stmt)
		}
	}
	return out, nil
}

func (f *fakeStatementRepo) Upsert(stmt *domain.AccountStatement) error {
	if existing := f.find(stmt.Day, stmt.Dimension, stmt.EntityID()); existing != nil {
		stmt.ID = existing.ID
		stmt.CreatedAt = existing.CreatedAt
	}
	if stmt.ID == "" {
		f.seq++
		stmt.ID = fmt.Sprintf("stmt-%d", f.seq)
		stmt.CreatedAt = time.Now()
	}
	stmt.UpdatedAt = time.Now()
	copied := *stmt
	f.byID[stmt.ID] = &copied
	return nil
}

func (f *fakeStatementRepo) RegisterMovement(stmt *domain.AccountStatement, mv *domain.AccountPayment) error {
	locked, ok := f.byID[stmt.ID]
	if !ok {
		return domain.NewLedgerError(domain.ErrStatementNotFound, "statement %s not found", stmt.ID)
	}
	if locked.IsSettled {
		return domain.NewLedgerError(domain.ErrStatementSettled, "statement %s is settled and cannot be edited", stmt.ID)
	}

	if mv.IdempotencyKey != nil {
		if existing, _ := f.movements.GetByIdempotencyKey(*mv.IdempotencyKey); existing != nil {
			return &pq.Error{Code: "23505"}
		}
	}

	f.movements.seq++
	mv.ID = fmt.Sprintf("mv-%d", f.movements.seq)
	mv.StatementID = stmt.ID
	mv.CreatedAt = time.Now()
	copied := *mv
	f.movements.movements[mv.ID] = &copied

	totals, _ := f.movements.activeTotals(stmt.ID)
	ledger.RefreshMovements(locked, totals)
	*stmt = *locked
	return nil
}

func (f *fakeStatementRepo) ReverseMovement(stmt *domain.AccountStatement, movementID, actor string, reason *string) (*domain.AccountPayment, error) {
	locked, ok := f.byID[stmt.ID]
	if !ok {
		return nil, domain.NewLedgerError(domain.ErrStatementNotFound, "statement %s not found", stmt.ID)
	}

	target, ok := f.movements.movements[movementID]
	if !ok || target.StatementID != stmt.ID || target.Reversed {
		return nil, domain.NewLedgerError(domain.ErrAlreadyReversed, "movement %s is already reversed", movementID)
	}

	now := time.Now()
	target.Reversed = true
	target.ReversedAt = &now
	target.ReversedBy = &actor
	target.ReversalReason = reason

	totals, activeCount := f.movements.activeTotals(stmt.ID)
	ledger.RefreshMovements(locked, totals)

	if activeCount > 0 && locked.TicketCount > 0 && locked.RemainingBalance.Abs().LessThan(domain.SettleEpsilon) {
		target.Reversed = false
		target.ReversedAt = nil
		target.ReversedBy = nil
		target.ReversalReason = nil
		totals, _ = f.movements.activeTotals(stmt.ID)
		ledger.RefreshMovements(locked, totals)
		return nil, domain.NewLedgerError(domain.ErrCannotReverseSettled,
			"reversing movement %s would re-settle the day with %d other active movements", movementID, activeCount)
	}

	*stmt = *locked
	copied := *target
	return &copied, nil
}

func (f *fakeStatementRepo) PreviousMonthFinalBalance(monthFirst time.Time, dimension domain.Dimension, entityID *string, lookbackDays int) (decimal.Decimal, error) {
	return f.prevMonthFinal, nil
}

func (f *fakeStatementRepo) DeleteEmpty(day time.Time, dimension domain.Dimension, entityID *string) error {
	stmt := f.find(day, dimension, entityID)
	if stmt == nil {
		return domain.NewLedgerError(domain.ErrStatementNotFound, "no statement for %s", day.Format("2006-01-02"))
	}
	hasMovements := false
	for _, mv := range f.movements.movements {
		if mv.StatementID == stmt.ID {
			hasMovements = true
			break
		}
	}
	if stmt.TicketCount > 0 || hasMovements {
		return domain.NewLedgerError(domain.ErrStatementHasActivity, "statement %s has tickets or movements", stmt.ID)
	}
	delete(f.byID, stmt.ID)
	return nil
}

func strPtr(s string) *string { return &s }

type fakeCache struct {
	invalidations []string
}

func (f *fakeCache) GetReport(ctx context.Context, key string) (*domain.StatementReport, bool) {
	return nil, false
}

func (f *fakeCache) SetReport(ctx context.Context, key string, report *domain.StatementReport) {}

func (f *fakeCache) Invalidate(ctx context.Context, dimension domain.Dimension, entityID *string) {
	f.invalidations = append(f.invalidations, string(dimension)+"|"+deref(entityID))
}
