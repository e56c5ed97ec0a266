package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MQuirosP/backend-bancas-sub001/internal/domain"
)

// InterleaveBreakdown merges a day's per-draw results and its active
// cash movements into one chronological audit trail with a running
// accumulated balance. The opening entry carries the balance rolled in
// from the prior month (or the prior day's carry) so the first real
// line is traceable to "carried" vs "earned today".
func InterleaveBreakdown(day time.Time, opening decimal.Decimal, draws []domain.DrawTotal, movements []domain.AccountPayment) []domain.BreakdownLine {
	lines := make([]domain.BreakdownLine, 0, len(draws)+len(movements)+1)

	lines = append(lines, domain.BreakdownLine{
		Time:           day,
		Kind:           domain.LineOpening,
		Label:          "Opening balance",
		TotalSales:     decimal.Zero,
		TotalPayouts:   decimal.Zero,
		Commission:     decimal.Zero,
		Amount:         opening,
		RunningBalance: opening,
	})

	for _, draw := range draws {
		amount := draw.Sales.Sub(draw.Payouts).Sub(draw.Commission)
		lines = append(lines, domain.BreakdownLine{
			Time:         draw.DrawTime,
			Kind:         domain.LineDraw,
			Label:        draw.DrawName,
			TotalSales:   draw.Sales,
			TotalPayouts: draw.Payouts,
			Commission:   draw.Commission,
			Amount:       amount,
		})
	}

	for _, mv := range movements {
		if mv.Reversed {
			continue
		}
		label := fmt.Sprintf("%s (%s)", movementLabel(mv.Kind), mv.Method)
		lines = append(lines, domain.BreakdownLine{
			Time:         mv.CreatedAt,
			Kind:         domain.LineMovement,
			Label:        label,
			TotalSales:   decimal.Zero,
			TotalPayouts: decimal.Zero,
			Commission:   decimal.Zero,
			Amount:       mv.SignedAmount(),
		})
	}

	// Opening stays first; everything else orders by time.
	sort.SliceStable(lines[1:], func(i, j int) bool {
		return lines[i+1].Time.Before(lines[j+1].Time)
	})

	running := opening
	for i := 1; i < len(lines); i++ {
		running = running.Add(lines[i].Amount)
		lines[i].RunningBalance = running
	}

	return lines
}

func movementLabel(kind domain.MovementKind) string {
	if kind == domain.MovementCollection {
		return "Collection"
	}
	return "Payment"
}
