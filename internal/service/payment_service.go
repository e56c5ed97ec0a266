package service

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/MQuirosP/backend-bancas-sub001/internal/bizday"
	"github.com/MQuirosP/backend-bancas-sub001/internal/cache"
	"github.com/MQuirosP/backend-bancas-sub001/internal/config"
	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
	"github.com/MQuirosP/backend-bancas-sub001/internal/repository"
	"github.com/MQuirosP/backend-bancas-sub001/pkg/logger"
)

const pgUniqueViolation = "23505"

// PaymentRequest is one cash movement to register against an entity-day
type PaymentRequest struct {
	Day            time.Time
	Dimension      domain.Dimension
	EntityID       *string
	Amount         decimal.Decimal
	Kind           domain.MovementKind
	Method         string
	Note           string
	IdempotencyKey *string
	RecordedBy     string
}

// PaymentService registers and reverses cash movements. Registering
// under an idempotency key already seen returns the original movement
// unchanged; reversal is the only mutation a movement ever receives.
type PaymentService interface {
	RegisterPayment(ctx context.Context, req PaymentRequest) (*domain.AccountPayment, error)
	ReversePayment(ctx context.Context, movementID, actor string, reason *string) (*domain.AccountPayment, error)
	GetMovement(movementID string) (*domain.AccountPayment, error)
}

type paymentService struct {
	calculator CalculatorService
	stmtRepo   repository.StatementRepository
	mvRepo     repository.MovementRepository
	cache      cache.StatementCache
	cfg        config.AppConfig
	loc        *time.Location
}

func NewPaymentService(
	calculator CalculatorService,
	stmtRepo repository.StatementRepository,
	mvRepo repository.MovementRepository,
	statementCache cache.StatementCache,
	cfg config.AppConfig,
	loc *time.Location,
) PaymentService {
	return &paymentService{
		calculator: calculator,
		stmtRepo:   stmtRepo,
		mvRepo:     mvRepo,
		cache:      statementCache,
		cfg:        cfg,
		loc:        loc,
	}
}

func (s *paymentService) RegisterPayment(ctx context.Context, req PaymentRequest) (*domain.AccountPayment, error) {
	if !req.Amount.IsPositive() {
		return nil, domain.NewLedgerError(domain.ErrInvalidAmount, "movement amount must be positive, got %s", req.Amount)
	}
	if !req.Kind.Valid() {
		return nil, domain.NewLedgerError(domain.ErrInvalidAmount, "unknown movement kind %q", req.Kind)
	}
	if !req.Dimension.Valid() {
		return nil, domain.NewLedgerError(domain.ErrStatementNotFound, "invalid dimension %q", req.Dimension)
	}

	if req.IdempotencyKey != nil {
		existing, err := s.mvRepo.GetByIdempotencyKey(*req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			existing.Replayed = true
			return existing, nil
		}
	}

	day := bizday.DayOf(req.Day, s.loc)
	stmt, err := s.calculator.EnsureStatement(day, req.Dimension, req.EntityID)
	if err != nil {
		return nil, err
	}
	if stmt.IsSettled {
		return nil, domain.NewLedgerError(domain.ErrStatementSettled,
			"statement for %s is settled and cannot be edited", bizday.Format(day))
	}

	mv := &domain.AccountPayment{
		StatementID:    stmt.ID,
		Amount:         req.Amount,
		Kind:           req.Kind,
		Method:         req.Method,
		Note:           req.Note,
		IdempotencyKey: req.IdempotencyKey,
		RecordedBy:     req.RecordedBy,
	}

	if err := s.stmtRepo.RegisterMovement(stmt, mv); err != nil {
		// Two requests racing on the same idempotency key: the loser hits
		// the unique index and returns the winner's movement.
		if req.IdempotencyKey != nil && isUniqueViolation(err) {
			existing, lookupErr := s.mvRepo.GetByIdempotencyKey(*req.IdempotencyKey)
			if lookupErr == nil && existing != nil {
				existing.Replayed = true
				return existing, nil
			}
		}
		return nil, err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"movement_id": mv.ID,
		"kind":        mv.Kind,
		"day":         bizday.Format(day),
		"dimension":   req.Dimension,
	}).Info("Registered account movement")

	s.cache.Invalidate(ctx, req.Dimension, req.EntityID)
	return mv, nil
}

func (s *paymentService) ReversePayment(ctx context.Context, movementID, actor string, reason *string) (*domain.AccountPayment, error) {
	if reason != nil && len([]rune(*reason)) < s.cfg.MinReasonLength {
		return nil, domain.NewLedgerError(domain.ErrInvalidReason,
			"reversal reason must be at least %d characters", s.cfg.MinReasonLength)
	}

	mv, err := s.mvRepo.GetByID(movementID)
	if err != nil {
		return nil, err
	}
	if mv == nil {
		return nil, domain.NewLedgerError(domain.ErrStatementNotFound, "movement %s not found", movementID)
	}
	if mv.Reversed {
		return nil, domain.NewLedgerError(domain.ErrAlreadyReversed, "movement %s is already reversed", movementID)
	}

	stmt, err := s.stmtRepo.GetByID(mv.StatementID)
	if err != nil {
		return nil, err
	}
	if stmt == nil {
		return nil, domain.NewLedgerError(domain.ErrStatementNotFound, "statement %s not found", mv.StatementID)
	}

	reversed, err := s.stmtRepo.ReverseMovement(stmt, movementID, actor, reason)
	if err != nil {
		return nil, err
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"movement_id": movementID,
		"reversed_by": actor,
		"day":         bizday.Format(stmt.Day),
		"dimension":   stmt.Dimension,
	}).Info("Reversed account movement")

	s.cache.Invalidate(ctx, stmt.Dimension, stmt.EntityID())
	return reversed, nil
}

func (s *paymentService) GetMovement(movementID string) (*domain.AccountPayment, error) {
	mv, err := s.mvRepo.GetByID(movementID)
	if err != nil {
		return nil, err
	}
	if mv == nil {
		return nil, domain.NewLedgerError(domain.ErrStatementNotFound, "movement %s not found", movementID)
	}
	return mv, nil
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == pgUniqueViolation
	}
	return false
}
