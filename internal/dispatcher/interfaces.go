package dispatcher

import (
	"context"

	"github.com/songzhibin97/cryptoinsight/internal/intent"
	"github.com/songzhibin97/cryptoinsight/internal/models"
)

// IntentClassifier never fails, unknown input is Chat.
type IntentClassifier interface {
	Classify(ctx context.Context, text string) intent.Intent
}

// MarketAnalyzer builds the dashboard snapshot and its narrative report.
type MarketAnalyzer interface {
	Analyze(ctx context.Context, query string) (*models.MarketSnapshot, error)
	GenerateReport(ctx context.Context, snapshot *models.MarketSnapshot) string
}

// PortfolioAnalyzer analyzes holdings in either variant.
type PortfolioAnalyzer interface {
	AnalyzeStructured(ctx context.Context, items []models.PortfolioItem) (*models.PortfolioValuation, error)
	AnalyzeNarrative(ctx context.Context, items []models.PortfolioItem) (string, error)
}

// HoldingsProvider returns the user's current holdings.
type HoldingsProvider interface {
	Items() []models.PortfolioItem
}

// TransactionDrafter extracts transaction drafts.
type TransactionDrafter interface {
	Draft(ctx context.Context, text string) (*models.TransactionDraft, error)
}

// ChatResponder answers general questions. It never fails.
type ChatResponder interface {
	Chat(ctx context.Context, sessionID, text string, current *models.MarketSnapshot) string
}
