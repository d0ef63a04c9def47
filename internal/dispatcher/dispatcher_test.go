package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/cryptoinsight/internal/ai"
	"github.com/songzhibin97/cryptoinsight/internal/data/storage"
	"github.com/songzhibin97/cryptoinsight/internal/intent"
	"github.com/songzhibin97/cryptoinsight/internal/models"
	"github.com/songzhibin97/cryptoinsight/internal/portfolio"
	"github.com/songzhibin97/cryptoinsight/internal/risk"
	"github.com/songzhibin97/cryptoinsight/internal/transaction"
)

type fakeClassifier struct{ in intent.Intent }

func (f fakeClassifier) Classify(context.Context, string) intent.Intent { return f.in }

type fakeMarket struct {
	snapshot *models.MarketSnapshot
	err      error
	panicMsg string
}

func (f *fakeMarket) Analyze(_ context.Context, query string) (*models.MarketSnapshot, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.snapshot, f.err
}

func (f *fakeMarket) GenerateReport(context.Context, *models.MarketSnapshot) string {
	return "Deep dive report"
}

type fakePortfolio struct {
	valuation *models.PortfolioValuation
	narrative string
	err       error
}

func (f *fakePortfolio) AnalyzeStructured(context.Context, []models.PortfolioItem) (*models.PortfolioValuation, error) {
	return f.valuation, f.err
}

func (f *fakePortfolio) AnalyzeNarrative(context.Context, []models.PortfolioItem) (string, error) {
	return f.narrative, f.err
}

type fakeHoldings []models.PortfolioItem

func (f fakeHoldings) Items() []models.PortfolioItem { return f }

type fakeDrafter struct {
	draft *models.TransactionDraft
	err   error
}

func (f *fakeDrafter) Draft(context.Context, string) (*models.TransactionDraft, error) {
	return f.draft, f.err
}

type fakeChat struct {
	mu      sync.Mutex
	current *models.MarketSnapshot
	calls   int
}

func (f *fakeChat) Chat(_ context.Context, _ string, _ string, current *models.MarketSnapshot) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.current = current
	return "chat reply"
}

type harness struct {
	d        *Dispatcher
	sessions *storage.MemoryStorage
	chat     *fakeChat
	statuses []Status
}

func newHarness(t *testing.T, in intent.Intent, opts Options) *harness {
	t.Helper()
	h := &harness{sessions: storage.NewMemoryStorage(clock.NewMock(), 30), chat: &fakeChat{}}
	opts.Classifier = fakeClassifier{in: in}
	opts.Sessions = h.sessions
	opts.Chat = h.chat
	if opts.Holdings == nil {
		opts.Holdings = fakeHoldings{{Symbol: "ETH", Name: "Ethereum", Amount: 5, CurrentPrice: 3450}}
	}
	opts.OnStatus = func(s Status) { h.statuses = append(h.statuses, s) }
	h.d = New(opts)
	return h
}

func (h *harness) handle(t *testing.T, text string) []models.ChatMessage {
	t.Helper()
	msgs, err := h.d.Handle(context.Background(), "", text)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, h.d.State())
	return msgs
}

func TestDispatcher_Analyze(t *testing.T) {
	snapshot := &models.MarketSnapshot{CoinName: "Solana", Symbol: "SOL"}
	h := newHarness(t, intent.Intent{Type: intent.Analyze, CoinName: "Solana"}, Options{Market: &fakeMarket{snapshot: snapshot}})

	msgs := h.handle(t, "Analyze Solana")
	require.Len(t, msgs, 2)
	assert.Equal(t, snapshot, msgs[0].Snapshot)
	assert.Equal(t, "Deep dive report", msgs[1].Text)
	assert.Equal(t, models.RoleAssistant, msgs[1].Role)
	assert.Equal(t, []Status{StatusThinking, StatusFetchingData, StatusAnalyzing, StatusNone}, h.statuses)

	session := h.sessions.Active()
	require.Len(t, session.Messages, 4)
	assert.Equal(t, "Analyze Solana", session.Messages[1].Text)
	assert.Equal(t, "Analyze Solana", session.Title)
}

func TestDispatcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		market *fakeMarket
		want   string
	}{
		{"quota", &fakeMarket{err: &ai.UpstreamError{Quota: true}}, QuotaApology},
		{"upstream", &fakeMarket{err: &ai.UpstreamError{Err: errors.New("bad json")}}, GenericApology},
		{"panic", &fakeMarket{panicMsg: "nil map"}, GenericApology},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, intent.Intent{Type: intent.Analyze, CoinName: "Bitcoin"}, Options{Market: tt.market})
			msgs := h.handle(t, "Analyze Bitcoin")
			require.Len(t, msgs, 1)
			assert.Equal(t, tt.want, msgs[0].Text)
			assert.Equal(t, StatusNone, h.statuses[len(h.statuses)-1])
		})
	}
}

func TestDispatcher_AnalyzeWithoutCoinChats(t *testing.T) {
	h := newHarness(t, intent.Intent{Type: intent.Analyze}, Options{Market: &fakeMarket{}})
	msgs := h.handle(t, "Analyze")
	require.Len(t, msgs, 1)
	assert.Equal(t, "chat reply", msgs[0].Text)
}

func TestDispatcher_Portfolio(t *testing.T) {
	valuation := &models.PortfolioValuation{TotalValue: 17250, RiskAnalysis: "Concentrated in ETH."}

	h := newHarness(t, intent.Intent{Type: intent.PortfolioAnalysis}, Options{Portfolio: &fakePortfolio{valuation: valuation}})
	msgs := h.handle(t, "Analyze my portfolio")
	require.Len(t, msgs, 1)
	assert.Equal(t, valuation, msgs[0].Portfolio)
	assert.Equal(t, "Concentrated in ETH.", msgs[0].Text)
	assert.Equal(t, []Status{StatusThinking, StatusAnalyzingPortfolio, StatusNone}, h.statuses)

	h = newHarness(t, intent.Intent{Type: intent.PortfolioAnalysis}, Options{
		Portfolio: &fakePortfolio{narrative: "Your ETH position is up."},
		Mode:      portfolio.ModeNarrative,
	})
	msgs = h.handle(t, "How is my wallet?")
	require.Len(t, msgs, 1)
	assert.Equal(t, "Your ETH position is up.", msgs[0].Text)
	assert.Nil(t, msgs[0].Portfolio)

	h = newHarness(t, intent.Intent{Type: intent.PortfolioAnalysis}, Options{
		Portfolio: &fakePortfolio{err: &ai.UpstreamError{Quota: true}},
	})
	msgs = h.handle(t, "My portfolio")
	assert.Equal(t, QuotaApology, msgs[0].Text)
}

func TestDispatcher_Transaction(t *testing.T) {
	network := models.NetworkEthereum
	amount := 4.0
	addr := "0x8ba1f109551bD432803012645Ac136ddd64DBA72"

	t.Run("incomplete", func(t *testing.T) {
		draft := &models.TransactionDraft{Type: models.TransactionSend, Token: "ETH", Network: &network}
		h := newHarness(t, intent.Intent{Type: intent.Transaction}, Options{
			Drafter: &fakeDrafter{draft: draft},
			Risk:    risk.NewBasicRiskManager(risk.DefaultParameters),
		})
		msgs := h.handle(t, "Send ETH")
		require.Len(t, msgs, 1)
		assert.Equal(t, TransactionReply+" Still needed: amount, recipient address.", msgs[0].Text)
		assert.Equal(t, draft, msgs[0].Transaction)
		assert.Empty(t, msgs[0].Transaction.Issues)
		assert.Equal(t, []Status{StatusThinking, StatusCreatingTransaction, StatusNone}, h.statuses)
	})

	t.Run("complete with risk factors", func(t *testing.T) {
		draft := &models.TransactionDraft{Type: models.TransactionSend, Token: "ETH", Amount: &amount, ToAddress: &addr, Network: &network}
		h := newHarness(t, intent.Intent{Type: intent.Transaction}, Options{
			Drafter: &fakeDrafter{draft: draft},
			Risk:    risk.NewBasicRiskManager(risk.DefaultParameters),
		})
		msgs := h.handle(t, "Send 4 ETH to "+addr)
		require.Len(t, msgs, 1)
		assert.Equal(t, TransactionReply, msgs[0].Text)
		assert.Equal(t, []string{"Moves 80% of tracked ETH holdings"}, msgs[0].Transaction.Issues)
	})

	t.Run("unsupported", func(t *testing.T) {
		h := newHarness(t, intent.Intent{Type: intent.Transaction}, Options{
			Drafter: &fakeDrafter{err: transaction.ErrUnsupportedType},
		})
		msgs := h.handle(t, "Buy BTC")
		assert.Equal(t, UnsupportedTxReply, msgs[0].Text)
	})

	t.Run("quota", func(t *testing.T) {
		h := newHarness(t, intent.Intent{Type: intent.Transaction}, Options{
			Drafter: &fakeDrafter{err: &ai.UpstreamError{Quota: true}},
		})
		msgs := h.handle(t, "Send 1 ETH")
		assert.Equal(t, QuotaApology, msgs[0].Text)
	})
}

func TestDispatcher_ChatUsesLatestSnapshot(t *testing.T) {
	snapshot := &models.MarketSnapshot{CoinName: "Bitcoin", Symbol: "BTC"}
	h := newHarness(t, intent.Intent{Type: intent.Chat}, Options{})

	h.handle(t, "hello")
	assert.Nil(t, h.chat.current)

	_, err := h.sessions.AppendMessage(h.sessions.Active().ID, models.ChatMessage{Role: models.RoleAssistant, Snapshot: snapshot})
	require.NoError(t, err)

	h.handle(t, "what's the sentiment?")
	assert.Equal(t, snapshot, h.chat.current)
	assert.Equal(t, 2, h.chat.calls)
}

func TestDispatcher_Handle_Edges(t *testing.T) {
	h := newHarness(t, intent.Intent{Type: intent.Chat}, Options{})

	msgs, err := h.d.Handle(context.Background(), "", "   ")
	assert.NoError(t, err)
	assert.Nil(t, msgs)
	assert.Equal(t, 0, h.chat.calls)

	_, err = h.d.Handle(context.Background(), "missing", "hi")
	assert.Error(t, err)
}
