package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
	"github.com/MQuirosP/backend-bancas-sub001/internal/ledger"
	"github.com/MQuirosP/backend-bancas-sub001/pkg/logger"
)

// StatementRepository persists the per-day, per-entity statement rows
// and applies cash movements to them. Movement apply/reverse run inside
// one SQL transaction that locks the statement row, so two concurrent
// registrations against the same entity-day serialize instead of losing
// an update.
type StatementRepository interface {
	Get(day time.Time, dimension domain.Dimension, entityID *string) (*domain.AccountStatement, error)
	GetByID(id string) (*domain.AccountStatement, error)
	ListByDay(day time.Time, dimension domain.Dimension) ([]domain.AccountStatement, error)
	Upsert(stmt *domain.AccountStatement) error
	RegisterMovement(stmt *domain.AccountStatement, mv *domain.AccountPayment) error
	ReverseMovement(stmt *domain.AccountStatement, movementID, actor string, reason *string) (*domain.AccountPayment, error)
	PreviousMonthFinalBalance(monthFirst time.Time, dimension domain.Dimension, entityID *string, lookbackDays int) (decimal.Decimal, error)
	DeleteEmpty(day time.Time, dimension domain.Dimension, entityID *string) error
}

type statementRepository struct {
	db *sql.DB
}

func NewStatementRepository(db *sql.DB) StatementRepository {
	return &statementRepository{db: db}
}

const statementColumns = `
	id, day, dimension, bank_id, window_id, seller_id,
	total_sales, total_payouts, window_commission, seller_commission,
	balance, total_paid, total_collected, remaining_balance,
	ticket_count, is_settled, created_at, updated_at
`

func scanStatement(row interface{ Scan(...interface{}) error }) (*domain.AccountStatement, error) {
	var stmt domain.AccountStatement
	err := row.Scan(
		&stmt.ID,
		&stmt.Day,
		&stmt.Dimension,
		&stmt.BankID,
		&stmt.WindowID,
		&stmt.SellerID,
		&stmt.TotalSales,
		&stmt.TotalPayouts,
		&stmt.WindowCommission,
		&stmt.SellerCommission,
		&stmt.Balance,
		&stmt.TotalPaid,
		&stmt.TotalCollected,
		&stmt.RemainingBalance,
		&stmt.TicketCount,
		&stmt.IsSettled,
		&stmt.CreatedAt,
		&stmt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &stmt, nil
}

// Get returns the statement for one day+entity key, or nil when no row
// exists yet (absence is a normal state, not an error).
func (r *statementRepository) Get(day time.Time, dimension domain.Dimension, entityID *string) (*domain.AccountStatement, error) {
	query := `
		SELECT ` + statementColumns + `
		FROM account_statements
		WHERE day = $1::date AND dimension = $2
		  AND COALESCE(bank_id, '') = COALESCE($3, '')
		  AND COALESCE(window_id, '') = COALESCE($4, '')
		  AND COALESCE(seller_id, '') = COALESCE($5, '')
	`

	bank, window, seller := entityArgs(dimension, entityID)
	stmt, err := scanStatement(r.db.QueryRow(query, day.Format("2006-01-02"), dimension, bank, window, seller))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get account statement")
		return nil, err
	}

	return stmt, nil
}

// GetByID returns the statement, or nil when it does not exist
func (r *statementRepository) GetByID(id string) (*domain.AccountStatement, error) {
	query := `SELECT ` + statementColumns + ` FROM account_statements WHERE id = $1`

	stmt, err := scanStatement(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to get account statement")
		return nil, err
	}

	return stmt, nil
}

// ListByDay returns every stored statement of one day for a dimension.
// Feeds unscoped reports, where movement-only entities must surface even
// though the day's sales never mention them.
func (r *statementRepository) ListByDay(day time.Time, dimension domain.Dimension) ([]domain.AccountStatement, error) {
	query := `
		SELECT ` + statementColumns + `
		FROM account_statements
		WHERE day = $1::date AND dimension = $2
	`

	rows, err := r.db.Query(query, day.Format("2006-01-02"), dimension)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to list account statements")
		return nil, err
	}
	defer rows.Close()

	var statements []domain.AccountStatement
	for rows.Next() {
		stmt, err := scanStatement(rows)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan account statement")
			return nil, err
		}
		statements = append(statements, *stmt)
	}

	return statements, rows.Err()
}

func (r *statementRepository) Upsert(stmt *domain.AccountStatement) error {
	if stmt.ID == "" {
		stmt.ID = uuid.New().String()
	}

	query := `
		INSERT INTO account_statements (
			id, day, dimension, bank_id, window_id, seller_id,
			total_sales, total_payouts, window_commission, seller_commission,
			balance, total_paid, total_collected, remaining_balance,
			ticket_count, is_settled
		) VALUES ($1, $2::date, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (day, dimension, COALESCE(bank_id, ''), COALESCE(window_id, ''), COALESCE(seller_id, ''))
		DO UPDATE SET
			total_sales = EXCLUDED.total_sales,
			total_payouts = EXCLUDED.total_payouts,
			window_commission = EXCLUDED.window_commission,
			seller_commission = EXCLUDED.seller_commission,
			balance = EXCLUDED.balance,
			total_paid = EXCLUDED.total_paid,
			total_collected = EXCLUDED.total_collected,
			remaining_balance = EXCLUDED.remaining_balance,
			ticket_count = EXCLUDED.ticket_count,
			is_settled = EXCLUDED.is_settled,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		stmt.ID,
		stmt.Day.Format("2006-01-02"),
		stmt.Dimension,
		stmt.BankID,
		stmt.WindowID,
		stmt.SellerID,
		stmt.TotalSales,
		stmt.TotalPayouts,
		stmt.WindowCommission,
		stmt.SellerCommission,
		stmt.Balance,
		stmt.TotalPaid,
		stmt.TotalCollected,
		stmt.RemainingBalance,
		stmt.TicketCount,
		stmt.IsSettled,
	).Scan(&stmt.ID, &stmt.CreatedAt, &stmt.UpdatedAt)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to upsert account statement")
		return err
	}

	return nil
}

// RegisterMovement appends mv and re-derives the statement's movement
// totals inside one transaction. The statement row is locked first so
// the recompute always sees every committed movement.
func (r *statementRepository) RegisterMovement(stmt *domain.AccountStatement, mv *domain.AccountPayment) error {
	tx, err := r.db.Begin()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to begin transaction")
		return err
	}
	defer tx.Rollback()

	locked, err := lockStatement(tx, stmt.ID)
	if err != nil {
		return err
	}
	if locked.IsSettled {
		return domain.NewLedgerError(domain.ErrStatementSettled, "statement %s is settled and cannot be edited", stmt.ID)
	}

	if mv.ID == "" {
		mv.ID = uuid.New().String()
	}
	err = tx.QueryRow(`
		INSERT INTO account_payments (id, statement_id, amount, kind, method, note, idempotency_key, recorded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`,
		mv.ID,
		stmt.ID,
		mv.Amount,
		mv.Kind,
		mv.Method,
		mv.Note,
		mv.IdempotencyKey,
		mv.RecordedBy,
	).Scan(&mv.CreatedAt)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to insert account payment")
		return err
	}
	mv.StatementID = stmt.ID

	totals, _, err := activeMovementTotals(tx, stmt.ID)
	if err != nil {
		return err
	}

	ledger.RefreshMovements(locked, totals)
	if err := updateMovementFields(tx, locked); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to commit transaction")
		return err
	}

	*stmt = *locked
	return nil
}

// ReverseMovement marks one movement reversed and re-derives the
// statement totals in the same transaction. The settled-day guard runs
// here, against the locked state, so the decision cannot race with a
// concurrent registration.
func (r *statementRepository) ReverseMovement(stmt *domain.AccountStatement, movementID, actor string, reason *string) (*domain.AccountPayment, error) {
	tx, err := r.db.Begin()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to begin transaction")
		return nil, err
	}
	defer tx.Rollback()

	locked, err := lockStatement(tx, stmt.ID)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRow(`
		UPDATE account_payments
		SET reversed = TRUE, reversed_at = NOW(), reversed_by = $1, reversal_reason = $2
		WHERE id = $3 AND statement_id = $4 AND reversed = FALSE
		RETURNING id, statement_id, amount, kind, method, note, idempotency_key,
		          reversed, reversed_at, reversed_by, reversal_reason, recorded_by, created_at
	`, actor, reason, movementID, stmt.ID)

	mv, err := scanMovement(row)
	if err == sql.ErrNoRows {
		return nil, domain.NewLedgerError(domain.ErrAlreadyReversed, "movement %s is already reversed", movementID)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to reverse account payment")
		return nil, err
	}

	totals, activeCount, err := activeMovementTotals(tx, stmt.ID)
	if err != nil {
		return nil, err
	}

	ledger.RefreshMovements(locked, totals)

	// Reversing must not leave the day netted to zero while other active
	// movements remain: that state would look settled with no movement
	// explaining the zero.
	if activeCount > 0 && locked.TicketCount > 0 && locked.RemainingBalance.Abs().LessThan(domain.SettleEpsilon) {
		return nil, domain.NewLedgerError(domain.ErrCannotReverseSettled,
			"reversing movement %s would re-settle the day with %d other active movements", movementID, activeCount)
	}

	if err := updateMovementFields(tx, locked); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to commit transaction")
		return nil, err
	}

	*stmt = *locked
	return mv, nil
}

// PreviousMonthFinalBalance resolves the cross-month carry-over: the
// remaining balance of the entity's last statement before monthFirst,
// bounded by the look-back window to keep the scan finite.
func (r *statementRepository) PreviousMonthFinalBalance(monthFirst time.Time, dimension domain.Dimension, entityID *string, lookbackDays int) (decimal.Decimal, error) {
	query := `
		SELECT remaining_balance
		FROM account_statements
		WHERE day < $1::date AND day >= ($1::date - $2::int)
		  AND dimension = $3
		  AND COALESCE(bank_id, '') = COALESCE($4, '')
		  AND COALESCE(window_id, '') = COALESCE($5, '')
		  AND COALESCE(seller_id, '') = COALESCE($6, '')
		ORDER BY day DESC
		LIMIT 1
	`

	bank, window, seller := entityArgs(dimension, entityID)

	var balance decimal.Decimal
	err := r.db.QueryRow(query, monthFirst.Format("2006-01-02"), lookbackDays, dimension, bank, window, seller).Scan(&balance)
	if err == sql.ErrNoRows {
		return decimal.Zero, nil
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query previous month balance")
		return decimal.Zero, err
	}

	return balance, nil
}

// DeleteEmpty removes a statement only when it has no tickets and no
// movements at all. Anything else is an audit row and stays.
func (r *statementRepository) DeleteEmpty(day time.Time, dimension domain.Dimension, entityID *string) error {
	stmt, err := r.Get(day, dimension, entityID)
	if err != nil {
		return err
	}
	if stmt == nil {
		return domain.NewLedgerError(domain.ErrStatementNotFound, "no statement for %s", day.Format("2006-01-02"))
	}

	res, err := r.db.Exec(`
		DELETE FROM account_statements
		WHERE id = $1 AND ticket_count = 0
		  AND NOT EXISTS (SELECT 1 FROM account_payments WHERE statement_id = $1)
	`, stmt.ID)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to delete account statement")
		return err
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewLedgerError(domain.ErrStatementHasActivity, "statement %s has tickets or movements", stmt.ID)
	}

	return nil
}

func lockStatement(tx *sql.Tx, id string) (*domain.AccountStatement, error) {
	query := `SELECT ` + statementColumns + ` FROM account_statements WHERE id = $1 FOR UPDATE`

	stmt, err := scanStatement(tx.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, domain.NewLedgerError(domain.ErrStatementNotFound, "statement %s not found", id)
	}
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to lock account statement")
		return nil, err
	}

	return stmt, nil
}

func activeMovementTotals(tx *sql.Tx, statementID string) (domain.MovementTotals, int, error) {
	var totals domain.MovementTotals
	var count int

	err := tx.QueryRow(`
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE kind = 'PAYMENT'), 0),
			COALESCE(SUM(amount) FILTER (WHERE kind = 'COLLECTION'), 0),
			COUNT(*)
		FROM account_payments
		WHERE statement_id = $1 AND reversed = FALSE
	`, statementID).Scan(&totals.TotalPaid, &totals.TotalCollected, &count)

	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to sum account payments")
		return totals, 0, err
	}

	return totals, count, nil
}

func updateMovementFields(tx *sql.Tx, stmt *domain.AccountStatement) error {
	_, err := tx.Exec(`
		UPDATE account_statements
		SET total_paid = $1, total_collected = $2, remaining_balance = $3, is_settled = $4, updated_at = NOW()
		WHERE id = $5
	`,
		stmt.TotalPaid,
		stmt.TotalCollected,
		stmt.RemainingBalance,
		stmt.IsSettled,
		stmt.ID,
	)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to update account statement")
	}
	return err
}

func entityArgs(dimension domain.Dimension, entityID *string) (bank, window, seller *string) {
	switch dimension {
	case domain.DimensionBank:
		return entityID, nil, nil
	case domain.DimensionWindow:
		return nil, entityID, nil
	default:
		return nil, nil, entityID
	}
}
