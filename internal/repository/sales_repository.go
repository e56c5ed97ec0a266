package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/MQuirosP/backend-bancas-sub001/internal/bizday"
	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
	"github.com/MQuirosP/backend-bancas-sub001/pkg/logger"
)

// SalesRepository reads the sale/play records owned by the sales
// subsystem. Everything here is read-only except the bulk import used
// for backfill.
type SalesRepository interface {
	FindSalesByDay(day time.Time, dimension domain.Dimension, entityID *string) ([]domain.SaleRecord, error)
	FindPlays(saleIDs []string) (map[string][]domain.PlayRecord, error)
	ListExclusions(drawIDs []string) ([]domain.DrawExclusion, error)
	GetDraws(drawIDs []string) (map[string]domain.Draw, error)
	EntityNames(dimension domain.Dimension, ids []string) (map[string]string, error)
	BulkCreateSales(sales []domain.SaleRecord) (int, error)
	BulkCreatePlays(plays []domain.PlayRecord) (int, error)
}

type salesRepository struct {
	db  *sql.DB
	loc *time.Location
}

func NewSalesRepository(db *sql.DB, loc *time.Location) SalesRepository {
	return &salesRepository{db: db, loc: loc}
}

var countedStatuses = []string{
	string(domain.SaleActive),
	string(domain.SaleEvaluated),
	string(domain.SalePaid),
}

// FindSalesByDay returns the counted tickets of one business day. The
// stored business_day column wins; rows predating it match by creation
// instant within the day's half-open bounds in the business zone.
func (r *salesRepository) FindSalesByDay(day time.Time, dimension domain.Dimension, entityID *string) ([]domain.SaleRecord, error) {
	start, end := bizday.Bounds(day, r.loc)

	query := `
		SELECT id, draw_id, bank_id, window_id, seller_id, amount, total_payout,
		       status, business_day, created_at
		FROM tickets
		WHERE (business_day = $1::date
		       OR (business_day IS NULL AND created_at >= $2 AND created_at < $3))
		  AND status = ANY($4)
	`
	args := []interface{}{bizday.Format(day), start, end, pq.Array(countedStatuses)}

	if entityID != nil {
		query += ` AND ` + entityColumn(dimension) + ` = $5`
		args = append(args, *entityID)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query tickets")
		return nil, err
	}
	defer rows.Close()

	var sales []domain.SaleRecord
	for rows.Next() {
		var sale domain.SaleRecord
		var businessDay sql.NullTime
		err := rows.Scan(
			&sale.ID,
			&sale.DrawID,
			&sale.BankID,
			&sale.WindowID,
			&sale.SellerID,
			&sale.Amount,
			&sale.TotalPayout,
			&sale.Status,
			&businessDay,
			&sale.CreatedAt,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan ticket")
			return nil, err
		}
		if businessDay.Valid {
			sale.BusinessDay = businessDay.Time
		} else {
			sale.BusinessDay = bizday.DayOf(sale.CreatedAt, r.loc)
		}
		sales = append(sales, sale)
	}

	return sales, rows.Err()
}

func (r *salesRepository) FindPlays(saleIDs []string) (map[string][]domain.PlayRecord, error) {
	if len(saleIDs) == 0 {
		return map[string][]domain.PlayRecord{}, nil
	}

	query := `
		SELECT id, sale_id, amount, is_winner, payout,
		       commission_amount, COALESCE(commission_beneficiary, '')
		FROM plays
		WHERE sale_id = ANY($1)
	`

	rows, err := r.db.Query(query, pq.Array(saleIDs))
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query plays")
		return nil, err
	}
	defer rows.Close()

	plays := make(map[string][]domain.PlayRecord)
	for rows.Next() {
		var play domain.PlayRecord
		err := rows.Scan(
			&play.ID,
			&play.SaleID,
			&play.Amount,
			&play.IsWinner,
			&play.Payout,
			&play.CommissionAmount,
			&play.CommissionBeneficiary,
		)
		if err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan play")
			return nil, err
		}
		plays[play.SaleID] = append(plays[play.SaleID], play)
	}

	return plays, rows.Err()
}

func (r *salesRepository) ListExclusions(drawIDs []string) ([]domain.DrawExclusion, error) {
	if len(drawIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT draw_id, window_id, seller_id
		FROM draw_exclusions
		WHERE draw_id = ANY($1)
	`

	rows, err := r.db.Query(query, pq.Array(drawIDs))
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query draw exclusions")
		return nil, err
	}
	defer rows.Close()

	var exclusions []domain.DrawExclusion
	for rows.Next() {
		var ex domain.DrawExclusion
		if err := rows.Scan(&ex.DrawID, &ex.WindowID, &ex.SellerID); err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan draw exclusion")
			return nil, err
		}
		exclusions = append(exclusions, ex)
	}

	return exclusions, rows.Err()
}

func (r *salesRepository) GetDraws(drawIDs []string) (map[string]domain.Draw, error) {
	if len(drawIDs) == 0 {
		return map[string]domain.Draw{}, nil
	}

	query := `SELECT id, name, scheduled_at FROM draws WHERE id = ANY($1)`

	rows, err := r.db.Query(query, pq.Array(drawIDs))
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query draws")
		return nil, err
	}
	defer rows.Close()

	draws := make(map[string]domain.Draw)
	for rows.Next() {
		var draw domain.Draw
		if err := rows.Scan(&draw.ID, &draw.Name, &draw.ScheduledAt); err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan draw")
			return nil, err
		}
		draws[draw.ID] = draw
	}

	return draws, rows.Err()
}

func (r *salesRepository) EntityNames(dimension domain.Dimension, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	query := `SELECT id, name FROM ` + entityTable(dimension) + ` WHERE id = ANY($1)`

	rows, err := r.db.Query(query, pq.Array(ids))
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to query entity names")
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]string, len(ids))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			logger.GetLogger().WithError(err).Error("Failed to scan entity name")
			return nil, err
		}
		names[id] = name
	}

	return names, rows.Err()
}

func (r *salesRepository) BulkCreateSales(sales []domain.SaleRecord) (int, error) {
	if len(sales) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to begin transaction")
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO tickets (id, draw_id, bank_id, window_id, seller_id, amount, total_payout, status, business_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to prepare statement")
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, sale := range sales {
		res, err := stmt.Exec(
			sale.ID,
			sale.DrawID,
			sale.BankID,
			sale.WindowID,
			sale.SellerID,
			sale.Amount,
			sale.TotalPayout,
			sale.Status,
			sale.BusinessDay,
		)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("sale_id", sale.ID).Error("Failed to insert ticket")
			continue
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to commit transaction")
		return 0, err
	}

	return inserted, nil
}

func (r *salesRepository) BulkCreatePlays(plays []domain.PlayRecord) (int, error) {
	if len(plays) == 0 {
		return 0, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to begin transaction")
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO plays (id, sale_id, amount, is_winner, payout, commission_amount, commission_beneficiary)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to prepare statement")
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, play := range plays {
		res, err := stmt.Exec(
			play.ID,
			play.SaleID,
			play.Amount,
			play.IsWinner,
			play.Payout,
			play.CommissionAmount,
			string(play.CommissionBeneficiary),
		)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("play_id", play.ID).Error("Failed to insert play")
			continue
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to commit transaction")
		return 0, err
	}

	return inserted, nil
}

func entityColumn(dimension domain.Dimension) string {
	switch dimension {
	case domain.DimensionBank:
		return "bank_id"
	case domain.DimensionWindow:
		return "window_id"
	default:
		return "seller_id"
	}
}

func entityTable(dimension domain.Dimension) string {
	switch dimension {
	case domain.DimensionBank:
		return "banks"
	case domain.DimensionWindow:
		return "windows"
	default:
		return "sellers"
	}
}
