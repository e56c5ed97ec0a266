package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
)

func TestAggregator_PayoutCountedOncePerSale(t *testing.T) {
	agg := NewAggregator(nil)

	sales := []domain.SaleRecord{
		{ID: "S1", DrawID: "D1", WindowID: "W1", SellerID: "V1", Amount: decimal.NewFromInt(100), TotalPayout: decimal.NewFromInt(80), Status: domain.SaleEvaluated},
	}
	plays := map[string][]domain.PlayRecord{
		"S1": {
			{SaleID: "S1", Amount: decimal.NewFromInt(50), IsWinner: true, Payout: decimal.NewFromInt(40), CommissionAmount: decimal.NewFromInt(5), CommissionBeneficiary: domain.BeneficiarySeller},
			{SaleID: "S1", Amount: decimal.NewFromInt(50), IsWinner: true, Payout: decimal.NewFromInt(40), CommissionAmount: decimal.NewFromInt(5), CommissionBeneficiary: domain.BeneficiarySeller},
		},
	}

	activity := agg.AggregateDay(sales, plays)

	assert.True(t, activity.Payouts.Equal(decimal.NewFromInt(80)), "two winning plays must contribute the sale payout exactly once, got %s", activity.Payouts)
	assert.Equal(t, 1, activity.TicketCount)
	assert.True(t, activity.SellerCommission.Equal(decimal.NewFromInt(10)))
}

func TestAggregator_SkipsCancelledAndExcluded(t *testing.T) {
	excluded := func(drawID, windowID, sellerID string) bool {
		return drawID == "D2" && windowID == "W1"
	}
	agg := NewAggregator(excluded)

	sales := []domain.SaleRecord{
		{ID: "S1", DrawID: "D1", WindowID: "W1", SellerID: "V1", Amount: decimal.NewFromInt(100), Status: domain.SaleActive},
		{ID: "S2", DrawID: "D1", WindowID: "W1", SellerID: "V1", Amount: decimal.NewFromInt(200), Status: domain.SaleCancelled},
		{ID: "S3", DrawID: "D2", WindowID: "W1", SellerID: "V1", Amount: decimal.NewFromInt(300), Status: domain.SaleActive},
	}

	activity := agg.AggregateDay(sales, nil)

	assert.Equal(t, 1, activity.TicketCount)
	assert.True(t, activity.Sales.Equal(decimal.NewFromInt(100)))
}

func TestAggregator_CommissionSplitByBeneficiary(t *testing.T) {
	agg := NewAggregator(nil)

	sales := []domain.SaleRecord{
		{ID: "S1", Amount: decimal.NewFromInt(100), Status: domain.SalePaid},
	}
	plays := map[string][]domain.PlayRecord{
		"S1": {
			{SaleID: "S1", CommissionAmount: decimal.NewFromInt(7), CommissionBeneficiary: domain.BeneficiarySeller},
			{SaleID: "S1", CommissionAmount: decimal.NewFromInt(3), CommissionBeneficiary: domain.BeneficiaryWindow},
		},
	}

	activity := agg.AggregateDay(sales, plays)

	assert.True(t, activity.SellerCommission.Equal(decimal.NewFromInt(7)))
	assert.True(t, activity.WindowCommission.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, CommissionSnapshot, activity.CommissionSource)
}

func TestAggregator_DerivedWindowCommissionFallback(t *testing.T) {
	agg := NewAggregator(nil)

	// Legacy plays carry no beneficiary tag at all.
	sales := []domain.SaleRecord{
		{ID: "S1", Amount: decimal.NewFromInt(100), Status: domain.SaleEvaluated},
	}
	plays := map[string][]domain.PlayRecord{
		"S1": {
			{SaleID: "S1", CommissionAmount: decimal.NewFromInt(12)},
		},
	}

	activity := agg.AggregateDay(sales, plays)

	assert.Equal(t, CommissionDerived, activity.CommissionSource)
	assert.True(t, activity.WindowCommission.Equal(decimal.NewFromInt(12)), "window side must be derived from the legacy seller-side amounts")
	assert.True(t, activity.SellerCommission.Equal(decimal.NewFromInt(12)))
}

func TestAggregator_AggregateByEntity(t *testing.T) {
	agg := NewAggregator(nil)

	sales := []domain.SaleRecord{
		{ID: "S1", WindowID: "W1", SellerID: "V1", Amount: decimal.NewFromInt(100), Status: domain.SaleActive},
		{ID: "S2", WindowID: "W2", SellerID: "V1", Amount: decimal.NewFromInt(50), Status: domain.SaleActive},
		{ID: "S3", WindowID: "W1", SellerID: "V2", Amount: decimal.NewFromInt(25), Status: domain.SaleActive},
	}

	byWindow := agg.AggregateByEntity(domain.DimensionWindow, sales, nil)
	assert.Len(t, byWindow, 2)
	assert.True(t, byWindow["W1"].Sales.Equal(decimal.NewFromInt(125)))
	assert.True(t, byWindow["W2"].Sales.Equal(decimal.NewFromInt(50)))

	bySeller := agg.AggregateByEntity(domain.DimensionSeller, sales, nil)
	assert.Len(t, bySeller, 2)
	assert.Equal(t, 2, bySeller["V1"].TicketCount)
}
