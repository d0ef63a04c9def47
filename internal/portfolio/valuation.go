package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/songzhibin97/cryptoinsight/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Valuate computes value, P&L and allocation of every item locally.
// Items with AvgPrice 0 have unknown cost basis and report 0 P&L.
func Valuate(items []models.PortfolioItem) *models.PortfolioValuation {
	values := make([]decimal.Decimal, len(items))
	total := decimal.Zero
	for i, item := range items {
		values[i] = decimal.NewFromFloat(item.Amount).Mul(decimal.NewFromFloat(item.CurrentPrice))
		total = total.Add(values[i])
	}

	positions := make([]models.PositionValuation, 0, len(items))
	for i, item := range items {
		pos := models.PositionValuation{
			Asset:          AssetLabel(item),
			Amount:         item.Amount,
			AvgPrice:       item.AvgPrice,
			CurrentPrice:   item.CurrentPrice,
			CurrentValue:   values[i].Round(2).InexactFloat64(),
			CostBasisKnown: item.AvgPrice > 0,
		}

		if pos.CostBasisKnown {
			avg := decimal.NewFromFloat(item.AvgPrice)
			pos.PnLPercent = decimal.NewFromFloat(item.CurrentPrice).Sub(avg).Div(avg).Mul(hundred).Round(2).InexactFloat64()
		}
		if total.IsPositive() {
			pos.Allocation = values[i].Div(total).Mul(hundred).Round(2).InexactFloat64()
		}
		positions = append(positions, pos)
	}

	return &models.PortfolioValuation{
		TotalValue: total.Round(2).InexactFloat64(),
		Positions:  positions,
	}
}

// AssetLabel names a position. Wallet items keep their marker so they stay distinct.
func AssetLabel(item models.PortfolioItem) string {
	if item.FromWallet() {
		return item.Symbol + " " + models.WalletMarker
	}
	return item.Symbol
}
