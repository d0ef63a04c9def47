package risk

import (
	"context"

	"github.com/songzhibin97/cryptoinsight/internal/models"
)

// RiskManager defines methods for risk management
type RiskManager interface {
	// AssessPortfolio evaluates concentration and cost basis risk of a valuation
	AssessPortfolio(ctx context.Context, valuation *models.PortfolioValuation) (*RiskAssessment, error)

	// CheckTransaction evaluates a drafted transaction against the current holdings
	CheckTransaction(ctx context.Context, draft *models.TransactionDraft, holdings []models.PortfolioItem) (*RiskAssessment, error)

	// SetRiskParameters sets risk management parameters
	SetRiskParameters(ctx context.Context, params *RiskParameters) error
}

// RiskParameters 风险参数配置, 百分比取值 0-100
type RiskParameters struct {
	MaxAllocation      float64 `json:"max_allocation" yaml:"max_allocation"`
	MaxLossPercent     float64 `json:"max_loss_percent" yaml:"max_loss_percent"`
	MinPositions       int     `json:"min_positions" yaml:"min_positions"`
	LargeTransferShare float64 `json:"large_transfer_share" yaml:"large_transfer_share"`
}

// DefaultParameters are used when no parameters are configured.
var DefaultParameters = RiskParameters{
	MaxAllocation:      50,
	MaxLossPercent:     20,
	MinPositions:       3,
	LargeTransferShare: 50,
}

// RiskAssessment 风险评估结果
type RiskAssessment struct {
	IsAcceptable    bool     `json:"is_acceptable"`
	RiskLevel       float64  `json:"risk_level"`
	RiskFactors     []string `json:"risk_factors"`
	Recommendations []string `json:"recommendations"`
}
