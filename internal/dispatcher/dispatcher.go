// Package dispatcher routes one user message through classification to the matching
// aggregator and records the result in the session.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/songzhibin97/cryptoinsight/internal/ai"
	"github.com/songzhibin97/cryptoinsight/internal/data"
	"github.com/songzhibin97/cryptoinsight/internal/intent"
	"github.com/songzhibin97/cryptoinsight/internal/models"
	"github.com/songzhibin97/cryptoinsight/internal/portfolio"
	"github.com/songzhibin97/cryptoinsight/internal/risk"
	"github.com/songzhibin97/cryptoinsight/internal/transaction"
)

// State of the dispatcher.
type State string

const (
	StateIdle               State = "IDLE"
	StateClassifying        State = "CLASSIFYING"
	StateFetchingMarket     State = "FETCHING_MARKET"
	StateAnalyzingPortfolio State = "ANALYZING_PORTFOLIO"
	StateDraftingTx         State = "DRAFTING_TX"
	StateChatting           State = "CHATTING"
)

// Status is an advisory progress label for the UI.
type Status string

const (
	StatusNone                Status = ""
	StatusThinking            Status = "thinking"
	StatusFetchingData        Status = "fetching-data"
	StatusAnalyzing           Status = "analyzing"
	StatusAnalyzingPortfolio  Status = "analyzing-portfolio"
	StatusCreatingTransaction Status = "creating-transaction"
)

const (
	GenericApology     = "I'm sorry, I encountered an error processing your request. Please try again."
	QuotaApology       = "The AI service is busy right now. Please wait a few seconds and try again."
	UnsupportedTxReply = "I can only prepare SEND or SWAP transactions. Buying and selling happen on an exchange."
	TransactionReply   = "I've prepared the transaction for you. Please review the details below."
)

// Options wires the collaborators. Risk and OnStatus are optional.
type Options struct {
	Classifier IntentClassifier
	Market     MarketAnalyzer
	Portfolio  PortfolioAnalyzer
	Holdings   HoldingsProvider
	Drafter    TransactionDrafter
	Chat       ChatResponder
	Sessions   data.SessionStorage
	Risk       risk.RiskManager
	Mode       portfolio.Mode
	OnStatus   func(Status)
	Logger     *slog.Logger
}

// Dispatcher processes one message at a time.
type Dispatcher struct {
	opts   Options
	logger *slog.Logger

	run   sync.Mutex
	mu    sync.RWMutex
	state State
}

func New(opts Options) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Mode == "" {
		opts.Mode = portfolio.ModeStructured
	}
	return &Dispatcher{opts: opts, logger: logger, state: StateIdle}
}

// State returns the current state.
func (d *Dispatcher) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Handle records the user message, routes it, and returns the assistant messages it appended.
// Aggregator failures become apology messages. Only an unknown session is returned as an error.
func (d *Dispatcher) Handle(ctx context.Context, sessionID, text string) ([]models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	d.run.Lock()
	defer d.run.Unlock()

	if sessionID == "" {
		sessionID = d.opts.Sessions.Active().ID
	}
	if _, err := d.opts.Sessions.AppendMessage(sessionID, models.ChatMessage{Role: models.RoleUser, Text: text}); err != nil {
		return nil, fmt.Errorf("failed to record user message: %w", err)
	}

	r := &recorder{sessions: d.opts.Sessions, sessionID: sessionID}
	defer d.transition(StateIdle, StatusNone)

	if err := d.route(ctx, r, text); err != nil {
		reply := GenericApology
		if ai.IsQuota(err) {
			reply = QuotaApology
		}
		d.logger.Error("request failed", "session", sessionID, "state", d.State(), "err", err)
		r.add(models.ChatMessage{Text: reply})
	}
	return r.added, r.err
}

func (d *Dispatcher) route(ctx context.Context, r *recorder, text string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()

	d.transition(StateClassifying, StatusThinking)
	in := d.opts.Classifier.Classify(ctx, text)
	d.logger.Info("intent classified", "type", in.Type, "coin", in.CoinName)

	switch {
	case in.Type == intent.Analyze && in.CoinName != "":
		return d.analyzeMarket(ctx, r, in.CoinName)
	case in.Type == intent.PortfolioAnalysis:
		return d.analyzePortfolio(ctx, r)
	case in.Type == intent.Transaction:
		return d.draftTransaction(ctx, r, text)
	default:
		return d.chat(ctx, r, text)
	}
}

func (d *Dispatcher) analyzeMarket(ctx context.Context, r *recorder, coin string) error {
	d.transition(StateFetchingMarket, StatusFetchingData)
	snapshot, err := d.opts.Market.Analyze(ctx, coin)
	if err != nil {
		return err
	}
	// 先展示图表, 再生成报告
	r.add(models.ChatMessage{Snapshot: snapshot})

	d.notify(StatusAnalyzing)
	r.add(models.ChatMessage{Text: d.opts.Market.GenerateReport(ctx, snapshot)})
	return nil
}

func (d *Dispatcher) analyzePortfolio(ctx context.Context, r *recorder) error {
	d.transition(StateAnalyzingPortfolio, StatusAnalyzingPortfolio)
	items := d.opts.Holdings.Items()

	if d.opts.Mode == portfolio.ModeNarrative {
		text, err := d.opts.Portfolio.AnalyzeNarrative(ctx, items)
		if err != nil {
			return err
		}
		r.add(models.ChatMessage{Text: text})
		return nil
	}

	valuation, err := d.opts.Portfolio.AnalyzeStructured(ctx, items)
	if err != nil {
		return err
	}
	r.add(models.ChatMessage{Text: valuation.RiskAnalysis, Portfolio: valuation})
	return nil
}

func (d *Dispatcher) draftTransaction(ctx context.Context, r *recorder, text string) error {
	d.transition(StateDraftingTx, StatusCreatingTransaction)
	draft, err := d.opts.Drafter.Draft(ctx, text)
	if errors.Is(err, transaction.ErrUnsupportedType) {
		r.add(models.ChatMessage{Text: UnsupportedTxReply})
		return nil
	}
	if err != nil {
		return err
	}

	missing := draft.MissingFields()
	if d.opts.Risk != nil && len(missing) == 0 {
		assessment, err := d.opts.Risk.CheckTransaction(ctx, draft, d.opts.Holdings.Items())
		if err != nil {
			d.logger.Warn("transaction risk check failed", "err", err)
		} else {
			draft.Issues = append(draft.Issues, assessment.RiskFactors...)
		}
	}

	reply := TransactionReply
	if len(missing) > 0 {
		reply += " Still needed: " + strings.Join(missing, ", ") + "."
	}
	r.add(models.ChatMessage{Text: reply, Transaction: draft})
	return nil
}

func (d *Dispatcher) chat(ctx context.Context, r *recorder, text string) error {
	d.transition(StateChatting, StatusThinking)

	var current *models.MarketSnapshot
	if session, err := d.opts.Sessions.Get(r.sessionID); err == nil {
		current = session.LatestSnapshot()
	}
	r.add(models.ChatMessage{Text: d.opts.Chat.Chat(ctx, r.sessionID, text, current)})
	return nil
}

func (d *Dispatcher) transition(state State, status Status) {
	d.mu.Lock()
	d.state = state
	d.mu.Unlock()
	d.notify(status)
}

func (d *Dispatcher) notify(status Status) {
	if d.opts.OnStatus != nil {
		d.opts.OnStatus(status)
	}
}

// recorder appends assistant messages to one session.
type recorder struct {
	sessions  data.SessionStorage
	sessionID string
	added     []models.ChatMessage
	err       error
}

func (r *recorder) add(msg models.ChatMessage) {
	msg.Role = models.RoleAssistant
	saved, err := r.sessions.AppendMessage(r.sessionID, msg)
	if err != nil {
		// 会话在处理期间被删除
		r.err = fmt.Errorf("failed to record reply: %w", err)
		return
	}
	r.added = append(r.added, saved)
}
