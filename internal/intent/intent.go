package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/songzhibin97/cryptoinsight/internal/ai"
)

// Type is the classified purpose of a user message.
type Type string

const (
	Analyze           Type = "ANALYZE"
	PortfolioAnalysis Type = "PORTFOLIO_ANALYSIS"
	Transaction       Type = "TRANSACTION"
	Chat              Type = "CHAT"
)

// Intent 意图, CoinName 仅在 Analyze 时有意义
type Intent struct {
	Type     Type   `json:"type"`
	CoinName string `json:"coinName,omitempty"`
}

const systemPrompt = `Classify user intent:
1. New coin analysis (e.g. "Analyze BTC", "How is Solana doing") -> {"type": "ANALYZE", "coinName": "CorrectedName"}
2. Portfolio analysis (e.g. "Check my wallet", "My portfolio") -> {"type": "PORTFOLIO_ANALYSIS"}
3. Web3 Transaction (e.g. "Send 1 ETH", "Swap ETH for USDT") -> {"type": "TRANSACTION"}
4. General chat -> {"type": "CHAT"}
Respond with JSON only.`

// Classifier maps user text to an Intent with one model call.
type Classifier struct {
	generator ai.Generator
	logger    *slog.Logger
}

func NewClassifier(generator ai.Generator, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{generator: generator, logger: logger}
}

// Classify never fails. Any upstream or parse failure degrades to Chat.
func (c *Classifier) Classify(ctx context.Context, text string) Intent {
	var out Intent
	err := ai.GenerateJSON(ctx, c.generator, &ai.Request{
		System:     systemPrompt,
		Prompt:     fmt.Sprintf("Classify: %q", text),
		Schema:     ai.IntentSchema,
		SchemaName: "intent",
	}, &out)
	if err != nil {
		c.logger.Warn("intent classification failed, defaulting to chat", "quota", ai.IsQuota(err), "err", err)
		return Intent{Type: Chat}
	}

	out.Type = Type(strings.ToUpper(strings.TrimSpace(string(out.Type))))
	out.CoinName = strings.TrimSpace(out.CoinName)

	switch out.Type {
	case Analyze:
		return out
	case PortfolioAnalysis, Transaction, Chat:
		return Intent{Type: out.Type}
	default:
		c.logger.Warn("unknown intent type, defaulting to chat", "type", out.Type)
		return Intent{Type: Chat}
	}
}
