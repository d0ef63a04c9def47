package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/cryptoinsight/internal/ai/aitest"
	"github.com/songzhibin97/cryptoinsight/internal/models"
)

func turn(i int) models.ConversationTurn {
	role := models.RoleUser
	if i%2 == 0 {
		role = models.RoleAssistant
	}
	return models.ConversationTurn{Role: role, Content: fmt.Sprintf("turn %d", i)}
}

func TestHistory_Push(t *testing.T) {
	h := NewHistory(0)
	for i := 1; i <= 12; i++ {
		h.Push(turn(i))
		assert.LessOrEqual(t, h.Len(), DefaultHistoryLimit)
	}

	got := h.Turns()
	require.Len(t, got, 10)
	assert.Equal(t, "turn 3", got[0].Content)
	assert.Equal(t, "turn 12", got[9].Content)
}

func TestHistory_EvictsPairs(t *testing.T) {
	h := NewHistory(10)
	for i := 1; i <= 11; i++ {
		h.Push(turn(i))
	}
	got := h.Turns()
	require.Len(t, got, 9)
	assert.Equal(t, "turn 3", got[0].Content)
}

func TestMemory(t *testing.T) {
	m := NewMemory(4)
	m.Append("a", turn(1), turn(2))
	m.Append("b", turn(1))

	assert.Len(t, m.Turns("a"), 2)
	assert.Len(t, m.Turns("b"), 1)
	assert.Nil(t, m.Turns("missing"))

	m.Append("a", turn(3), turn(4), turn(5))
	got := m.Turns("a")
	require.Len(t, got, 3)
	assert.Equal(t, "turn 3", got[0].Content)

	m.Reset("a")
	assert.Nil(t, m.Turns("a"))
}

func TestAssistant_Chat(t *testing.T) {
	gen := aitest.NewGenerator(aitest.Text("Bitcoin looks strong."), aitest.Text("Sentiment is 72."))
	a := NewAssistant(gen, NewMemory(10), nil)

	reply := a.Chat(context.Background(), "s1", "How is the market?", nil)
	assert.Equal(t, "Bitcoin looks strong.", reply)
	first := gen.Last()
	assert.Equal(t, persona, first.System)
	assert.Equal(t, "How is the market?", first.Prompt)

	snapshot := &models.MarketSnapshot{CoinName: "Bitcoin", Symbol: "BTC", SentimentScore: 72}
	reply = a.Chat(context.Background(), "s1", "What's the sentiment?", snapshot)
	assert.Equal(t, "Sentiment is 72.", reply)

	system := gen.Last().System
	assert.Contains(t, system, "CURRENT CONTEXT: User is viewing dashboard for Bitcoin.")
	assert.Contains(t, system, `"sentimentScore":72`)
	assert.Contains(t, system, "PREVIOUS CONVERSATION:\nUser: How is the market?\nAssistant: Bitcoin looks strong.\n---")
	assert.Len(t, a.memory.Turns("s1"), 4)
}

func TestAssistant_ChatFailure(t *testing.T) {
	tests := []struct {
		name  string
		reply aitest.Reply
	}{
		{"transport error", aitest.Fail(errors.New("connection refused"))},
		{"quota text", aitest.Text("Error: RESOURCE_EXHAUSTED")},
		{"empty reply", aitest.Text("   ")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssistant(aitest.NewGenerator(tt.reply), nil, nil)
			assert.Equal(t, Apology, a.Chat(context.Background(), "s1", "hi", nil))
			assert.Nil(t, a.memory.Turns("s1"))
		})
	}
}

func TestAssistant_Reset(t *testing.T) {
	a := NewAssistant(aitest.NewGenerator(aitest.Text("hello"), aitest.Text("again")), nil, nil)
	a.Chat(context.Background(), "s1", "hi", nil)
	a.Reset("s1")

	a.Chat(context.Background(), "s1", "hi", nil)
	assert.Len(t, a.memory.Turns("s1"), 2)
}
