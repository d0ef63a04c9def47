package models

import "time"

// Role of a conversation participant.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one entry of the rolling chat history.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatMessage 渲染层消息, 至多携带一种结构化负载
type ChatMessage struct {
	ID          string              `json:"id"`
	Role        Role                `json:"role"`
	Text        string              `json:"text,omitempty"`
	Snapshot    *MarketSnapshot     `json:"data,omitempty"`
	Transaction *TransactionDraft   `json:"transactionData,omitempty"`
	Portfolio   *PortfolioValuation `json:"portfolio,omitempty"`
	Welcome     bool                `json:"welcome,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// ChatSession is one conversation in the sidebar.
type ChatSession struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	CreatedAt time.Time     `json:"createdAt"`
	Messages  []ChatMessage `json:"messages"`
	Titled    bool          `json:"-"`
}

// LatestSnapshot scans backwards for the most recent message carrying market data.
func (s *ChatSession) LatestSnapshot() *MarketSnapshot {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Snapshot != nil {
			return s.Messages[i].Snapshot
		}
	}
	return nil
}
