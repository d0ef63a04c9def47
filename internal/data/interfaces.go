package data

import (
	"context"
	"errors"

	"github.com/songzhibin97/cryptoinsight/internal/models"
)

// ErrNotFound is returned when a coin search yields nothing.
var ErrNotFound = errors.New("coin not found")

// CoinResolver 将用户输入解析为币种身份
type CoinResolver interface {
	// SearchCoin resolves a free text query to a coin identity.
	SearchCoin(ctx context.Context, query string) (*models.CoinIdentity, error)
}

// PriceHistorySource provides daily price history.
type PriceHistorySource interface {
	Name() string
	// PriceHistory returns `days` daily points, oldest first, and the latest price.
	PriceHistory(ctx context.Context, coin models.CoinIdentity, days int) (*models.PriceAction, error)
}

// SentimentSource provides the global market sentiment index.
type SentimentSource interface {
	// Sentiment returns the index in 0..100.
	Sentiment(ctx context.Context) (int, error)
}

// LongShortSource provides the exchange long/short account ratio.
type LongShortSource interface {
	LongShortRatio(ctx context.Context, symbol string) ([]models.LongShortPoint, error)
}

// PriceFeed 批量现价
type PriceFeed interface {
	// Prices returns the usd price keyed by price feed id. Unknown ids are absent.
	Prices(ctx context.Context, ids []string) (map[string]float64, error)
}

// SessionStorage 保存聊天会话, 始终存在一个活动会话
type SessionStorage interface {
	// NewSession creates a session, puts it first and makes it active.
	NewSession() models.ChatSession
	// Switch makes the session active.
	Switch(id string) (models.ChatSession, error)
	// Delete removes a session. Deleting the last one creates a fresh session.
	Delete(id string) error
	// List returns sessions newest first.
	List() []models.ChatSession
	// Active returns the active session.
	Active() models.ChatSession
	// Get returns a session by id.
	Get(id string) (models.ChatSession, error)
	// AppendMessage stores msg, assigning id and timestamp, and derives the title.
	AppendMessage(sessionID string, msg models.ChatMessage) (models.ChatMessage, error)
}

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")
