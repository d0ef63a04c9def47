package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/songzhibin97/cryptoinsight/internal/ai"
	"github.com/songzhibin97/cryptoinsight/internal/models"
	"github.com/songzhibin97/cryptoinsight/internal/risk"
)

// Mode selects the portfolio analysis variant.
type Mode string

const (
	ModeStructured Mode = "structured"
	ModeNarrative  Mode = "narrative"
)

const emptyPortfolio = "No holdings to analyze."

// Analyzer asks the model to analyze the holdings. Numbers are always computed locally.
type Analyzer struct {
	generator ai.Generator
	risk      risk.RiskManager
	logger    *slog.Logger
}

func NewAnalyzer(generator ai.Generator, riskManager risk.RiskManager, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if riskManager == nil {
		riskManager = risk.NewBasicRiskManager(risk.DefaultParameters)
	}
	return &Analyzer{generator: generator, risk: riskManager, logger: logger}
}

type generatedValuation struct {
	TotalValue             float64                    `json:"totalValue"`
	Positions              []models.PositionValuation `json:"positions"`
	RiskAnalysis           string                     `json:"riskAnalysis"`
	RebalancingSuggestions []string                   `json:"rebalancingSuggestions"`
}

// AnalyzeStructured returns the local valuation enriched with the model's risk analysis
// and rebalancing suggestions. Quota failures match ai.ErrQuotaExceeded.
func (a *Analyzer) AnalyzeStructured(ctx context.Context, items []models.PortfolioItem) (*models.PortfolioValuation, error) {
	local := Valuate(items)
	if len(items) == 0 {
		local.RiskAnalysis = emptyPortfolio
		return local, nil
	}
	assessment := a.assess(ctx, local)

	var out generatedValuation
	err := ai.GenerateJSON(ctx, a.generator, &ai.Request{
		System:      structuredPrompt(len(items)),
		Prompt:      holdingsPrompt(items, local, assessment),
		Schema:      ai.PortfolioSchema,
		SchemaName:  "portfolio_analysis",
		Temperature: 0.2,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze portfolio: %w", err)
	}

	if len(out.Positions) < len(local.Positions) {
		a.logger.Warn("model dropped portfolio positions, restored from local valuation",
			"returned", len(out.Positions), "expected", len(local.Positions))
	}
	// 模型数字仅作参考, 以本地计算为准
	if diff := out.TotalValue - local.TotalValue; diff > 0.01 || diff < -0.01 {
		a.logger.Info("model total value differs from local", "model", out.TotalValue, "local", local.TotalValue)
	}

	local.RiskAnalysis = strings.TrimSpace(out.RiskAnalysis)
	local.RebalancingSuggestions = compact(out.RebalancingSuggestions)
	if assessment != nil {
		local.RiskFactors = assessment.RiskFactors
		if local.RiskAnalysis == "" {
			local.RiskAnalysis = strings.Join(assessment.RiskFactors, ". ")
		}
		if len(local.RebalancingSuggestions) == 0 {
			local.RebalancingSuggestions = assessment.Recommendations
		}
	}
	return local, nil
}

// AnalyzeNarrative returns a free text report covering every position.
func (a *Analyzer) AnalyzeNarrative(ctx context.Context, items []models.PortfolioItem) (string, error) {
	if len(items) == 0 {
		return emptyPortfolio, nil
	}
	local := Valuate(items)
	assessment := a.assess(ctx, local)

	text, err := ai.GenerateText(ctx, a.generator, &ai.Request{
		System:      narrativePrompt(len(items)),
		Prompt:      holdingsPrompt(items, local, assessment),
		Temperature: 0.5,
	})
	if err != nil {
		return "", fmt.Errorf("failed to analyze portfolio: %w", err)
	}
	return text, nil
}

func (a *Analyzer) assess(ctx context.Context, valuation *models.PortfolioValuation) *risk.RiskAssessment {
	assessment, err := a.risk.AssessPortfolio(ctx, valuation)
	if err != nil {
		a.logger.Warn("portfolio risk assessment failed", "err", err)
		return nil
	}
	return assessment
}

func structuredPrompt(n int) string {
	return fmt.Sprintf(`You are a crypto portfolio analyst.
You MUST respond with ONLY valid JSON matching this exact structure:
{
  "totalValue": number,
  "positions": [
    {
      "asset": "string",
      "amount": number,
      "avgPrice": number,
      "currentPrice": number,
      "currentValue": number,
      "pnlPercent": number,
      "allocation": number
    }
  ],
  "riskAnalysis": "string paragraph",
  "rebalancingSuggestions": ["string", "string"]
}

CRITICAL: You MUST include ALL %d positions from the input portfolio. Do NOT skip any asset.

Calculate accurately for EACH position:
- currentValue = amount * currentPrice
- pnlPercent = ((currentPrice - avgPrice) / avgPrice) * 100, use 0 when avgPrice is 0 (unknown cost basis)
- allocation = (currentValue / totalValue) * 100
- totalValue = sum of all currentValue

NO explanatory text outside JSON. ONLY the JSON object.`, n)
}

func narrativePrompt(n int) string {
	return fmt.Sprintf(`You are a crypto portfolio analyst.
Analyze the crypto portfolio based on the provided data.

CRITICAL: Cover ALL %d positions. Do NOT skip any asset.

Provide:
1. Total Value Breakdown.
2. Performance Check (Comparing Avg Price vs Current Price).
3. Risk Assessment (Diversification).
4. Suggestion for rebalancing.`, n)
}

func holdingsPrompt(items []models.PortfolioItem, local *models.PortfolioValuation, assessment *risk.RiskAssessment) string {
	labels := make([]string, 0, len(items))
	for _, item := range items {
		labels = append(labels, AssetLabel(item))
	}

	raw, _ := json.Marshal(items)
	computed, _ := json.Marshal(local.Positions)

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze ALL %d assets in this portfolio: %s\n\n", len(items), strings.Join(labels, ", "))
	fmt.Fprintf(&b, "Portfolio data: %s\n\n", raw)
	fmt.Fprintf(&b, "Computed valuation (total %.2f USD): %s\n", local.TotalValue, computed)
	if assessment != nil && len(assessment.RiskFactors) > 0 {
		fmt.Fprintf(&b, "\nDetected risk factors:\n- %s\n", strings.Join(assessment.RiskFactors, "\n- "))
	}
	fmt.Fprintf(&b, "\nInclude ALL %d positions.", len(items))
	return b.String()
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
