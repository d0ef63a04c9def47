package storage

import (
	"fmt"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/songzhibin97/cryptoinsight/internal/data"
	"github.com/songzhibin97/cryptoinsight/internal/models"
)

const (
	DefaultTitle       = "New Chat"
	DefaultTitleLength = 30

	InitialWelcome = `Hello! I am CryptoInsight AI. Ask me about any coin (e.g., "Analyze Solana") or ask me to "Analyze my portfolio" to see how your holdings are doing.`
	NewChatWelcome = "Ready for a new analysis. Which coin shall we look at?"
)

// MemoryStorage implements data.SessionStorage in process memory. Nothing survives a restart.
type MemoryStorage struct {
	mu          sync.RWMutex
	clock       clock.Clock
	titleLength int
	sessions    []*models.ChatSession // newest first
	activeID    string
}

var _ data.SessionStorage = (*MemoryStorage)(nil)

// NewMemoryStorage creates a store holding one active session with the initial greeting.
func NewMemoryStorage(clk clock.Clock, titleLength int) *MemoryStorage {
	if clk == nil {
		clk = clock.New()
	}
	if titleLength <= 0 {
		titleLength = DefaultTitleLength
	}

	s := &MemoryStorage{
		clock:       clk,
		titleLength: titleLength,
	}
	s.mu.Lock()
	s.createLocked(InitialWelcome)
	s.mu.Unlock()
	return s
}

func (s *MemoryStorage) NewSession() models.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSession(s.createLocked(NewChatWelcome))
}

func (s *MemoryStorage) Switch(id string) (models.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, _ := s.findLocked(id)
	if session == nil {
		return models.ChatSession{}, fmt.Errorf("%w: %s", data.ErrSessionNotFound, id)
	}
	s.activeID = id
	return cloneSession(session), nil
}

func (s *MemoryStorage) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, idx := s.findLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", data.ErrSessionNotFound, id)
	}
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)

	if id != s.activeID {
		return nil
	}
	if len(s.sessions) == 0 {
		s.createLocked(NewChatWelcome)
		return nil
	}
	s.activeID = s.sessions[0].ID
	return nil
}

func (s *MemoryStorage) List() []models.ChatSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ChatSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, cloneSession(session))
	}
	return out
}

func (s *MemoryStorage) Active() models.ChatSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, _ := s.findLocked(s.activeID)
	return cloneSession(session)
}

func (s *MemoryStorage) Get(id string) (models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, _ := s.findLocked(id)
	if session == nil {
		return models.ChatSession{}, fmt.Errorf("%w: %s", data.ErrSessionNotFound, id)
	}
	return cloneSession(session), nil
}

func (s *MemoryStorage) AppendMessage(sessionID string, msg models.ChatMessage) (models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, _ := s.findLocked(sessionID)
	if session == nil {
		return models.ChatMessage{}, fmt.Errorf("%w: %s", data.ErrSessionNotFound, sessionID)
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.clock.Now()
	}
	session.Messages = append(session.Messages, msg)

	// 标题只在第一次出现用户消息时生成, 之后不再改写
	if !session.Titled && session.Title == DefaultTitle && msg.Role == models.RoleUser && strings.TrimSpace(msg.Text) != "" {
		session.Title = Title(msg.Text, s.titleLength)
		session.Titled = true
	}
	return msg, nil
}

func (s *MemoryStorage) createLocked(welcome string) *models.ChatSession {
	now := s.clock.Now()
	session := &models.ChatSession{
		ID:        uuid.NewString(),
		Title:     DefaultTitle,
		CreatedAt: now,
		Messages: []models.ChatMessage{{
			ID:        uuid.NewString(),
			Role:      models.RoleAssistant,
			Text:      welcome,
			Welcome:   true,
			CreatedAt: now,
		}},
	}
	s.sessions = append([]*models.ChatSession{session}, s.sessions...)
	s.activeID = session.ID
	return session
}

func (s *MemoryStorage) findLocked(id string) (*models.ChatSession, int) {
	for i, session := range s.sessions {
		if session.ID == id {
			return session, i
		}
	}
	return nil, -1
}

// Title truncates text to n runes, adding "..." only when something was cut.
func Title(text string, n int) string {
	r := []rune(text)
	if len(r) <= n {
		return text
	}
	return string(r[:n]) + "..."
}

func cloneSession(session *models.ChatSession) models.ChatSession {
	if session == nil {
		return models.ChatSession{}
	}
	out := *session
	out.Messages = append([]models.ChatMessage(nil), session.Messages...)
	return out
}
