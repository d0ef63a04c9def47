package risk

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/songzhibin97/cryptoinsight/internal/models"
)

type BasicRiskManager struct {
	params   RiskParameters
	paramsMu sync.RWMutex
}

func NewBasicRiskManager(initialParams RiskParameters) *BasicRiskManager {
	return &BasicRiskManager{
		params: initialParams,
	}
}

func (rm *BasicRiskManager) AssessPortfolio(ctx context.Context, valuation *models.PortfolioValuation) (*RiskAssessment, error) {
	if valuation == nil {
		return nil, fmt.Errorf("valuation is required")
	}

	rm.paramsMu.RLock()
	params := rm.params
	rm.paramsMu.RUnlock()

	assessment := newAssessment()

	if len(valuation.Positions) == 0 || valuation.TotalValue <= 0 {
		assessment.RiskFactors = append(assessment.RiskFactors, "Portfolio is empty")
		return assessment, nil
	}

	// 集中度检查
	for _, pos := range valuation.Positions {
		if pos.Allocation > params.MaxAllocation {
			assessment.IsAcceptable = false
			assessment.RiskLevel += 0.3
			assessment.RiskFactors = append(assessment.RiskFactors,
				fmt.Sprintf("%s is %.1f%% of the portfolio", pos.Asset, pos.Allocation))
			assessment.Recommendations = append(assessment.Recommendations,
				fmt.Sprintf("Reduce %s below %.0f%% allocation", pos.Asset, params.MaxAllocation))
		}
	}

	// 分散度检查
	if len(valuation.Positions) < params.MinPositions {
		assessment.RiskLevel += 0.2
		assessment.RiskFactors = append(assessment.RiskFactors,
			fmt.Sprintf("Only %d positions held", len(valuation.Positions)))
		assessment.Recommendations = append(assessment.Recommendations,
			fmt.Sprintf("Diversify into at least %d assets", params.MinPositions))
	}

	var unknown, losing []string
	for _, pos := range valuation.Positions {
		if !pos.CostBasisKnown {
			unknown = append(unknown, pos.Asset)
			continue
		}
		if pos.PnLPercent < -params.MaxLossPercent {
			losing = append(losing, fmt.Sprintf("%s (%.1f%%)", pos.Asset, pos.PnLPercent))
		}
	}

	if len(losing) > 0 {
		assessment.RiskLevel += 0.25
		assessment.RiskFactors = append(assessment.RiskFactors,
			fmt.Sprintf("Positions down more than %.0f%%: %s", params.MaxLossPercent, strings.Join(losing, ", ")))
		assessment.Recommendations = append(assessment.Recommendations,
			"Review the thesis of losing positions or set stop losses")
	}

	// 钱包导入的持仓没有成本价
	if len(unknown) > 0 {
		assessment.RiskLevel += 0.05
		assessment.RiskFactors = append(assessment.RiskFactors,
			"Unknown cost basis: "+strings.Join(unknown, ", "))
	}

	assessment.RiskLevel = math.Min(1, assessment.RiskLevel)
	return assessment, nil
}

func (rm *BasicRiskManager) CheckTransaction(ctx context.Context, draft *models.TransactionDraft, holdings []models.PortfolioItem) (*RiskAssessment, error) {
	if draft == nil {
		return nil, fmt.Errorf("draft is required")
	}

	rm.paramsMu.RLock()
	params := rm.params
	rm.paramsMu.RUnlock()

	assessment := newAssessment()

	if missing := draft.MissingFields(); len(missing) > 0 {
		assessment.IsAcceptable = false
		assessment.RiskFactors = append(assessment.RiskFactors,
			"Missing "+strings.Join(missing, ", "))
		assessment.Recommendations = append(assessment.Recommendations,
			"Provide the missing details before signing")
	}

	if draft.Amount != nil && draft.Token != "" {
		var held float64
		for _, item := range holdings {
			if strings.EqualFold(item.Symbol, draft.Token) {
				held += item.Amount
			}
		}

		switch {
		case held <= 0:
			assessment.RiskLevel += 0.1
			assessment.RiskFactors = append(assessment.RiskFactors,
				fmt.Sprintf("No %s found in tracked holdings", strings.ToUpper(draft.Token)))
		case *draft.Amount > held:
			assessment.IsAcceptable = false
			assessment.RiskLevel += 0.4
			assessment.RiskFactors = append(assessment.RiskFactors,
				fmt.Sprintf("Amount exceeds tracked %s holdings of %g", strings.ToUpper(draft.Token), held))
			assessment.Recommendations = append(assessment.Recommendations,
				"Lower the amount or refresh the wallet balance")
		case *draft.Amount*100/held > params.LargeTransferShare:
			assessment.RiskLevel += 0.2
			assessment.RiskFactors = append(assessment.RiskFactors,
				fmt.Sprintf("Moves %.0f%% of tracked %s holdings", *draft.Amount*100/held, strings.ToUpper(draft.Token)))
			assessment.Recommendations = append(assessment.Recommendations,
				"Consider sending a small test amount first")
		}
	}

	if draft.Network != nil && *draft.Network == models.NetworkSepolia {
		assessment.RiskFactors = append(assessment.RiskFactors, "Testnet transaction, funds have no real value")
	}

	assessment.RiskLevel = math.Min(1, assessment.RiskLevel)
	return assessment, nil
}

func (rm *BasicRiskManager) SetRiskParameters(ctx context.Context, params *RiskParameters) error {
	if params.MaxAllocation <= 0 || params.MaxAllocation > 100 || params.MaxLossPercent <= 0 ||
		params.MinPositions <= 0 || params.LargeTransferShare <= 0 || params.LargeTransferShare > 100 {
		return fmt.Errorf("invalid risk parameters: values must be positive and percentages at most 100")
	}

	rm.paramsMu.Lock()
	rm.params = *params
	rm.paramsMu.Unlock()

	return nil
}

func newAssessment() *RiskAssessment {
	return &RiskAssessment{
		IsAcceptable:    true,
		RiskLevel:       0,
		RiskFactors:     make([]string, 0),
		Recommendations: make([]string, 0),
	}
}
