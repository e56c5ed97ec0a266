package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
	"github.com/MQuirosP/backend-bancas-sub001/pkg/logger"
)

// SalesCSVParser streams ticket backfill files in batches
type SalesCSVParser struct{}

func NewSalesCSVParser() *SalesCSVParser {
	return &SalesCSVParser{}
}

// Parse reads a CSV file in streaming mode and hands batches of sale
// records to the callback. Malformed rows are logged and skipped; a
// callback error aborts the whole import.
func (p *SalesCSVParser) Parse(filePath string, batchSize int, callback func([]domain.SaleRecord) error) error {
	file, err := os.Open(filePath)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("file", filePath).Error("Failed to open file")
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		logger.GetLogger().WithError(err).Error("Failed to read CSV header")
		return fmt.Errorf("failed to read header: %w", err)
	}

	columnMap := mapColumns(header)
	if !validateSaleColumns(columnMap) {
		return fmt.Errorf("invalid CSV format: missing required columns (id, draw_id, bank_id, window_id, seller_id, amount, status, created_at)")
	}

	batch := make([]domain.SaleRecord, 0, batchSize)
	lineNumber := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.GetLogger().WithError(err).WithField("line", lineNumber).Warn("Failed to read CSV row, skipping")
			lineNumber++
			continue
		}

		lineNumber++

		sale, err := p.parseRecord(record, columnMap, lineNumber)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("line", lineNumber).Warn("Failed to parse record, skipping")
			continue
		}

		batch = append(batch, *sale)

		if len(batch) >= batchSize {
			if err := callback(batch); err != nil {
				return err
			}
			batch = make([]domain.SaleRecord, 0, batchSize)
		}
	}

	if len(batch) > 0 {
		if err := callback(batch); err != nil {
			return err
		}
	}

	return nil
}

func (p *SalesCSVParser) parseRecord(record []string, columnMap map[string]int, lineNumber int) (*domain.SaleRecord, error) {
	if len(record) < len(columnMap) {
		return nil, fmt.Errorf("incomplete record at line %d", lineNumber)
	}

	id := strings.TrimSpace(record[columnMap["id"]])
	if id == "" {
		return nil, fmt.Errorf("empty id at line %d", lineNumber)
	}

	amountStr := strings.TrimSpace(record[columnMap["amount"]])
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount '%s' at line %d: %w", amountStr, lineNumber, err)
	}

	payout := decimal.Zero
	if col, ok := columnMap["total_payout"]; ok {
		if payoutStr := strings.TrimSpace(record[col]); payoutStr != "" {
			payout, err = decimal.NewFromString(payoutStr)
			if err != nil {
				return nil, fmt.Errorf("invalid total_payout '%s' at line %d: %w", payoutStr, lineNumber, err)
			}
		}
	}

	status := domain.SaleStatus(strings.ToUpper(strings.TrimSpace(record[columnMap["status"]])))
	switch status {
	case domain.SaleActive, domain.SaleCancelled, domain.SaleEvaluated, domain.SalePaid:
	default:
		return nil, fmt.Errorf("invalid status '%s' at line %d", status, lineNumber)
	}

	createdStr := strings.TrimSpace(record[columnMap["created_at"]])
	createdAt, err := parseDate(createdStr)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at '%s' at line %d: %w", createdStr, lineNumber, err)
	}

	businessDay := createdAt
	if col, ok := columnMap["business_day"]; ok {
		if dayStr := strings.TrimSpace(record[col]); dayStr != "" {
			businessDay, err = parseDate(dayStr)
			if err != nil {
				return nil, fmt.Errorf("invalid business_day '%s' at line %d: %w", dayStr, lineNumber, err)
			}
		}
	}

	return &domain.SaleRecord{
		ID:          id,
		DrawID:      strings.TrimSpace(record[columnMap["draw_id"]]),
		BankID:      strings.TrimSpace(record[columnMap["bank_id"]]),
		WindowID:    strings.TrimSpace(record[columnMap["window_id"]]),
		SellerID:    strings.TrimSpace(record[columnMap["seller_id"]]),
		Amount:      amount,
		TotalPayout: payout,
		Status:      status,
		BusinessDay: businessDay,
		CreatedAt:   createdAt,
	}, nil
}

// PlaysCSVParser streams the bet lines belonging to imported tickets
type PlaysCSVParser struct{}

func NewPlaysCSVParser() *PlaysCSVParser {
	return &PlaysCSVParser{}
}

func (p *PlaysCSVParser) Parse(filePath string, batchSize int, callback func([]domain.PlayRecord) error) error {
	file, err := os.Open(filePath)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("file", filePath).Error("Failed to open file")
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	columnMap := mapColumns(header)
	if !validatePlayColumns(columnMap) {
		return fmt.Errorf("invalid CSV format: missing required columns (id, sale_id, amount)")
	}

	batch := make([]domain.PlayRecord, 0, batchSize)
	lineNumber := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.GetLogger().WithError(err).WithField("line", lineNumber).Warn("Failed to read CSV row, skipping")
			lineNumber++
			continue
		}

		lineNumber++

		play, err := p.parsePlayRecord(record, columnMap, lineNumber)
		if err != nil {
			logger.GetLogger().WithError(err).WithField("line", lineNumber).Warn("Failed to parse record, skipping")
			continue
		}

		batch = append(batch, *play)

		if len(batch) >= batchSize {
			if err := callback(batch); err != nil {
				return err
			}
			batch = make([]domain.PlayRecord, 0, batchSize)
		}
	}

	if len(batch) > 0 {
		if err := callback(batch); err != nil {
			return err
		}
	}

	return nil
}

func (p *PlaysCSVParser) parsePlayRecord(record []string, columnMap map[string]int, lineNumber int) (*domain.PlayRecord, error) {
	id := strings.TrimSpace(record[columnMap["id"]])
	if id == "" {
		return nil, fmt.Errorf("empty id")
	}
	saleID := strings.TrimSpace(record[columnMap["sale_id"]])
	if saleID == "" {
		return nil, fmt.Errorf("empty sale_id")
	}

	amountStr := strings.TrimSpace(record[columnMap["amount"]])
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	play := domain.PlayRecord{
		ID:     id,
		SaleID: saleID,
		Amount: amount,
		Payout: decimal.Zero,
	}
	play.CommissionAmount = decimal.Zero

	if col, ok := columnMap["is_winner"]; ok {
		play.IsWinner = parseBool(record[col])
	}
	if col, ok := columnMap["payout"]; ok {
		if s := strings.TrimSpace(record[col]); s != "" {
			play.Payout, err = decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("invalid payout: %w", err)
			}
		}
	}
	if col, ok := columnMap["commission_amount"]; ok {
		if s := strings.TrimSpace(record[col]); s != "" {
			play.CommissionAmount, err = decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("invalid commission_amount: %w", err)
			}
		}
	}
	if col, ok := columnMap["commission_beneficiary"]; ok {
		// Empty stays empty: pre-snapshot rows have no beneficiary tag and
		// the aggregator handles them through the derived fallback.
		play.CommissionBeneficiary = domain.CommissionBeneficiary(strings.ToUpper(strings.TrimSpace(record[col])))
	}

	return &play, nil
}

func mapColumns(header []string) map[string]int {
	columnMap := make(map[string]int)
	for i, col := range header {
		normalized := strings.ToLower(strings.TrimSpace(col))
		columnMap[normalized] = i
	}
	return columnMap
}

func validateSaleColumns(columnMap map[string]int) bool {
	requiredColumns := []string{"id", "draw_id", "bank_id", "window_id", "seller_id", "amount", "status", "created_at"}
	for _, col := range requiredColumns {
		if _, exists := columnMap[col]; !exists {
			return false
		}
	}
	return true
}

func validatePlayColumns(columnMap map[string]int) bool {
	requiredColumns := []string{"id", "sale_id", "amount"}
	for _, col := range requiredColumns {
		if _, exists := columnMap[col]; !exists {
			return false
		}
	}
	return true
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes", "y":
		return true
	}
	return false
}

func parseDate(dateStr string) (time.Time, error) {
	formats := []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"02/01/2006",
		"2006/01/02",
		time.RFC3339,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", dateStr)
}
