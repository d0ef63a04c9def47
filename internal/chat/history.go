package chat

import (
	"sync"

	"github.com/songzhibin97/cryptoinsight/internal/models"
)

// DefaultHistoryLimit keeps five exchanges.
const DefaultHistoryLimit = 10

// History is a bounded window of recent turns. Overflow evicts the oldest pair.
type History struct {
	limit int
	turns []models.ConversationTurn
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Push appends one turn and evicts the oldest two once the window overflows.
func (h *History) Push(turn models.ConversationTurn) {
	h.turns = append(h.turns, turn)
	for len(h.turns) > h.limit {
		n := 2
		if len(h.turns) < n {
			n = len(h.turns)
		}
		h.turns = append(h.turns[:0:0], h.turns[n:]...)
	}
}

// Turns returns a copy, oldest first.
func (h *History) Turns() []models.ConversationTurn {
	out := make([]models.ConversationTurn, len(h.turns))
	copy(out, h.turns)
	return out
}

func (h *History) Len() int { return len(h.turns) }

// Memory holds one History per session.
type Memory struct {
	mu       sync.Mutex
	limit    int
	sessions map[string]*History
}

func NewMemory(limit int) *Memory {
	return &Memory{limit: limit, sessions: make(map[string]*History)}
}

// Append records turns for a session, creating its window on first use.
func (m *Memory) Append(sessionID string, turns ...models.ConversationTurn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.sessions[sessionID]
	if !ok {
		h = NewHistory(m.limit)
		m.sessions[sessionID] = h
	}
	for _, t := range turns {
		h.Push(t)
	}
}

// Turns returns the session window, or nil for an unknown session.
func (m *Memory) Turns(sessionID string) []models.ConversationTurn {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	return h.Turns()
}

// Reset forgets a session.
func (m *Memory) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}
