package repository

import (
	"database/sql"

	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
	"github.com/MQuirosP/backend-bancas-sub001/pkg/logger"
)

// MovementRepository reads the append-only movement log. All mutation
// goes through StatementRepository so totals can never drift from the
// statement row.
type MovementRepository interface {
	GetByID(id string) (*domain.AccountPayment, error)
	GetByIdempotencyKey(key string) (*domain.AccountPayment, error)
	ListByStatement(statementID string) ([]domain.AccountPayment, error)
	ActiveTotals(statementID string) (domain.MovementTotals, error)
}

type movementRepository struct {
	db *sql.DB
}

func NewMovementRepository(db *sql.DB) MovementRepository {
	return &movementRepository{db: db}
}

const movementColumns = `
	id, statement_id, amount, kind, method, note, idempotency_key,
	reversed, reversed_at, reversed_by, reversal_reason, recorded_by, created_at
`

func scanMovement(row interface{ Scan(...interface{}) error }) (*domain.AccountPayment, error) {
	var mv domain.AccountPayment
	err := row.Scan(
		&mv.ID,
		&mv.StatementID,
		&mv.Amount,
		&mv.Kind,
		&mv.Method,
		&mv.Note,
		&mv.IdempotencyKey,
		&mv.Reversed,
		&mv.ReversedAt,
		&mv.ReversedBy,
		&mv.ReversalReason,
		&mv.RecordedBy,
		&mv.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &mv, nil
}

// GetByID returns the movement, or nil when it does not exist
func (r *movementRepository) GetByID(id string) (*domain.AccountPayment, error) {
	query := `SELECT ` + movementColumns + ` FROM account_payments WHERE id = $1`

	mv, err := scanMovement(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get account payment")
		return nil, err
	}

	return mv, nil
}

// GetByIdempotencyKey returns the movement recorded under key, or nil.
// Drives the exactly-once replay path of the payment registrar.
func (r *movementRepository) GetByIdempotencyKey(key string) (*domain.AccountPayment, error) {
	query := `SELECT ` + movementColumns + ` FROM account_payments WHERE idempotency_key = $1`

	mv, err := scanMovement(r.db.QueryRow(query, key))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get account payment by idempotency key")
		return nil, err
	}

	return mv, nil
}

func (r *movementRepository) ListByStatement(statementID string) ([]domain.AccountPayment, error) {
	query := `SELECT ` + movementColumns + ` FROM account_payments WHERE statement_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(query, statementID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query account payments")
		return nil, err
	}
	defer rows.Close()

	var movements []domain.AccountPayment
	for rows.Next() {
		mv, err := scanMovement(rows)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan account payment")
			return nil, err
		}
		movements = append(movements, *mv)
	}

	return movements, rows.Err()
}

func (r *movementRepository) ActiveTotals(statementID string) (domain.MovementTotals, error) {
	var totals domain.MovementTotals

	err := r.db.QueryRow(`
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind = 'PAYMENT'), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = 'COLLECTION'), 0)
		FROM account_payments
		WHERE statement_id = $1 AND reversed = FALSE
	`, statementID).Scan(&totals.TotalPaid, &totals.TotalCollected)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to sum account payments")
		return totals, err
	}

	return totals, nil
}
