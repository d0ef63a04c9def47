package models

import "strings"

// WalletMarker tags portfolio items that come from a connected wallet.
const WalletMarker = "(Wallet)"

// PortfolioItem 持仓, AvgPrice 为 0 表示成本未知
type PortfolioItem struct {
	Symbol       string  `json:"symbol" yaml:"symbol"`
	Name         string  `json:"name" yaml:"name"`
	Amount       float64 `json:"amount" yaml:"amount"`
	AvgPrice     float64 `json:"avgPrice" yaml:"avg_price"`
	CurrentPrice float64 `json:"currentPrice" yaml:"current_price"`
}

// FromWallet reports whether the item was added by a wallet connection.
func (p PortfolioItem) FromWallet() bool {
	return strings.Contains(p.Name, WalletMarker)
}

// PositionValuation is the per asset breakdown of a portfolio valuation.
type PositionValuation struct {
	Asset          string  `json:"asset"`
	Amount         float64 `json:"amount"`
	AvgPrice       float64 `json:"avgPrice"`
	CurrentPrice   float64 `json:"currentPrice"`
	CurrentValue   float64 `json:"currentValue"`
	PnLPercent     float64 `json:"pnlPercent"`
	Allocation     float64 `json:"allocation"`
	CostBasisKnown bool    `json:"costBasisKnown"`
}

// PortfolioValuation 组合估值结果
type PortfolioValuation struct {
	TotalValue             float64             `json:"totalValue"`
	Positions              []PositionValuation `json:"positions"`
	RiskAnalysis           string              `json:"riskAnalysis"`
	RebalancingSuggestions []string            `json:"rebalancingSuggestions"`
	RiskFactors            []string            `json:"riskFactors,omitempty"`
}
