package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/songzhibin97/cryptoinsight/internal/ai"
	"github.com/songzhibin97/cryptoinsight/internal/models"
)

// Apology is returned whenever the chat call fails.
const Apology = "I'm having trouble connecting to the chat service."

const persona = "You are CryptoInsight AI. You have access to real-time crypto tools."

// Assistant answers general questions with the session window and the visible dashboard as context.
type Assistant struct {
	generator ai.Generator
	memory    *Memory
	logger    *slog.Logger
}

func NewAssistant(generator ai.Generator, memory *Memory, logger *slog.Logger) *Assistant {
	if memory == nil {
		memory = NewMemory(DefaultHistoryLimit)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{generator: generator, memory: memory, logger: logger}
}

// Chat never fails. Only successful exchanges are remembered.
func (a *Assistant) Chat(ctx context.Context, sessionID, text string, current *models.MarketSnapshot) string {
	reply, err := ai.GenerateText(ctx, a.generator, &ai.Request{
		System:      buildInstruction(current, a.memory.Turns(sessionID)),
		Prompt:      text,
		Temperature: 0.7,
	})
	if err != nil {
		a.logger.Warn("chat call failed", "session", sessionID, "quota", ai.IsQuota(err), "err", err)
		return Apology
	}

	a.memory.Append(sessionID,
		models.ConversationTurn{Role: models.RoleUser, Content: text},
		models.ConversationTurn{Role: models.RoleAssistant, Content: reply},
	)
	return reply
}

// Reset drops the remembered turns of a session.
func (a *Assistant) Reset(sessionID string) {
	a.memory.Reset(sessionID)
}

func buildInstruction(current *models.MarketSnapshot, turns []models.ConversationTurn) string {
	var b strings.Builder
	b.WriteString(persona)

	if current != nil {
		data, err := json.Marshal(current)
		if err == nil {
			fmt.Fprintf(&b, "\n\nCURRENT CONTEXT: User is viewing dashboard for %s.\nData: %s", current.CoinName, data)
		}
	}

	if len(turns) > 0 {
		b.WriteString("\n\nPREVIOUS CONVERSATION:\n")
		for _, t := range turns {
			role := "User"
			if t.Role == models.RoleAssistant {
				role = "Assistant"
			}
			fmt.Fprintf(&b, "%s: %s\n", role, t.Content)
		}
		b.WriteString("---")
	}
	return b.String()
}
