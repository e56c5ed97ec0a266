package service

import (
	"time"

	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
	"github.com/MQuirosP/backend-bancas-sub001/internal/ledger"
	"github.com/MQuirosP/backend-bancas-sub001/internal/repository"
	"github.com/MQuirosP/backend-bancas-sub001/pkg/logger"
)

// CalculatorService computes or refreshes the statement of one
// day+entity key from the raw sale records and the movement log.
type CalculatorService interface {
	// GetOrCompute is the read path: settled statements only refresh
	// their movement totals (their sales are frozen), open or missing
	// ones recompute from source. Statements with no activity at all are
	// returned ephemeral, never persisted.
	GetOrCompute(day time.Time, dimension domain.Dimension, entityID *string, force bool) (*domain.AccountStatement, error)
	// EnsureStatement computes like GetOrCompute but always persists, so
	// a movement can attach to a day that had no sales.
	EnsureStatement(day time.Time, dimension domain.Dimension, entityID *string) (*domain.AccountStatement, error)
	// LoadDay fetches one day's counted sales, their plays, and the
	// block-list check, for callers assembling their own groupings.
	LoadDay(day time.Time, dimension domain.Dimension, entityID *string) ([]domain.SaleRecord, map[string][]domain.PlayRecord, ledger.ExcludeFunc, error)
}

type calculatorService struct {
	salesRepo repository.SalesRepository
	stmtRepo  repository.StatementRepository
	mvRepo    repository.MovementRepository
}

func NewCalculatorService(
	salesRepo repository.SalesRepository,
	stmtRepo repository.StatementRepository,
	mvRepo repository.MovementRepository,
) CalculatorService {
	return &calculatorService{
		salesRepo: salesRepo,
		stmtRepo:  stmtRepo,
		mvRepo:    mvRepo,
	}
}

func (s *calculatorService) GetOrCompute(day time.Time, dimension domain.Dimension, entityID *string, force bool) (*domain.AccountStatement, error) {
	return s.compute(day, dimension, entityID, force, false)
}

func (s *calculatorService) EnsureStatement(day time.Time, dimension domain.Dimension, entityID *string) (*domain.AccountStatement, error) {
	return s.compute(day, dimension, entityID, false, true)
}

func (s *calculatorService) compute(day time.Time, dimension domain.Dimension, entityID *string, force, persistAlways bool) (*domain.AccountStatement, error) {
	existing, err := s.stmtRepo.Get(day, dimension, entityID)
	if err != nil {
		return nil, err
	}

	// Settled days have frozen sales; only the movement side can still
	// move (through reversals), so refresh just that.
	if existing != nil && existing.IsSettled && !force {
		totals, err := s.mvRepo.ActiveTotals(existing.ID)
		if err != nil {
			return nil, err
		}
		ledger.RefreshMovements(existing, totals)
		if err := s.stmtRepo.Upsert(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	sales, plays, excluded, err := s.LoadDay(day, dimension, entityID)
	if err != nil {
		return nil, err
	}
	activity := ledger.NewAggregator(excluded).AggregateDay(sales, plays)

	stmt := existing
	if stmt == nil {
		stmt = &domain.AccountStatement{Day: day, Dimension: dimension}
		stmt.SetEntityID(entityID)
	}

	totals := domain.MovementTotals{}
	if existing != nil {
		totals, err = s.mvRepo.ActiveTotals(existing.ID)
		if err != nil {
			return nil, err
		}
	}

	ledger.Compute(stmt, activity, totals)

	if activity.CommissionSource == ledger.CommissionDerived {
		logger.GetLogger().WithFields(map[string]interface{}{
			"day":       day.Format("2006-01-02"),
			"dimension": dimension,
		}).Warn("Window commission derived from pre-snapshot plays")
	}

	hasActivity := stmt.TicketCount > 0 || !stmt.TotalPaid.IsZero() || !stmt.TotalCollected.IsZero()
	if persistAlways || existing != nil || hasActivity {
		if err := s.stmtRepo.Upsert(stmt); err != nil {
			return nil, err
		}
	}

	return stmt, nil
}

func (s *calculatorService) LoadDay(day time.Time, dimension domain.Dimension, entityID *string) ([]domain.SaleRecord, map[string][]domain.PlayRecord, ledger.ExcludeFunc, error) {
	sales, err := s.salesRepo.FindSalesByDay(day, dimension, entityID)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(sales) == 0 {
		return nil, nil, nil, nil
	}

	saleIDs := make([]string, 0, len(sales))
	drawIDs := make([]string, 0, len(sales))
	seenDraws := make(map[string]bool)
	for _, sale := range sales {
		saleIDs = append(saleIDs, sale.ID)
		if !seenDraws[sale.DrawID] {
			seenDraws[sale.DrawID] = true
			drawIDs = append(drawIDs, sale.DrawID)
		}
	}

	plays, err := s.salesRepo.FindPlays(saleIDs)
	if err != nil {
		return nil, nil, nil, err
	}

	excluded, err := s.exclusionFunc(drawIDs)
	if err != nil {
		return nil, nil, nil, err
	}

	return sales, plays, excluded, nil
}

// exclusionFunc builds the block-list check for a set of draws
func (s *calculatorService) exclusionFunc(drawIDs []string) (ledger.ExcludeFunc, error) {
	exclusions, err := s.salesRepo.ListExclusions(drawIDs)
	if err != nil {
		return nil, err
	}
	if len(exclusions) == 0 {
		return nil, nil
	}

	windowLevel := make(map[string]bool)
	sellerLevel := make(map[string]bool)
	for _, ex := range exclusions {
		if ex.SellerID != nil {
			sellerLevel[ex.DrawID+"|"+ex.WindowID+"|"+*ex.SellerID] = true
		} else {
			windowLevel[ex.DrawID+"|"+ex.WindowID] = true
		}
	}

	return func(drawID, windowID, sellerID string) bool {
		if windowLevel[drawID+"|"+windowID] {
			return true
		}
		return sellerLevel[drawID+"|"+windowID+"|"+sellerID]
	}, nil
}
