package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/songzhibin97/cryptoinsight/internal/ai"
	"github.com/songzhibin97/cryptoinsight/internal/data"
	"github.com/songzhibin97/cryptoinsight/internal/data/collector"
	"github.com/songzhibin97/cryptoinsight/internal/models"
)

const (
	// DefaultSymbol is used when the coin query cannot be resolved.
	DefaultSymbol = "BTC"
	// ReportApology is returned when the narrative report cannot be produced.
	ReportApology = "Unable to generate market report."
)

// Collector gathers the real market data of a resolved coin.
type Collector interface {
	Collect(ctx context.Context, coin models.CoinIdentity) *models.RealMarketData
}

// Aggregator builds market snapshots from real data plus model generated filler.
type Aggregator struct {
	resolver  data.CoinResolver
	collector Collector
	generator ai.Generator
	logger    *slog.Logger
}

func NewAggregator(resolver data.CoinResolver, c Collector, generator ai.Generator, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		resolver:  resolver,
		collector: c,
		generator: generator,
		logger:    logger,
	}
}

// Analyze resolves the query, fetches what real data it can and asks the model for the rest.
// Model failures are returned as *ai.UpstreamError, never as a partial snapshot.
func (a *Aggregator) Analyze(ctx context.Context, query string) (*models.MarketSnapshot, error) {
	query = strings.TrimSpace(query)

	var fetched *models.RealMarketData
	coin, err := a.resolver.SearchCoin(ctx, query)
	if err != nil || coin == nil {
		a.logger.Warn("coin resolution failed, using model estimates", "coin", query, "err", err)
	} else {
		fetched = a.collector.Collect(ctx, *coin)
	}

	var out generatedSnapshot
	err = ai.GenerateJSON(ctx, a.generator, &ai.Request{
		System:      buildSnapshotPrompt(query, fetched),
		Prompt:      fmt.Sprintf("Generate complete JSON for %s.", displayName(query, fetched)),
		Schema:      ai.MarketSnapshotSchema,
		SchemaName:  "market_snapshot",
		Temperature: 0.3,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to generate market snapshot for %s: %w", query, err)
	}

	return merge(query, fetched, &out), nil
}

// GenerateReport writes the deep dive narrative. It never fails, ReportApology is returned instead.
func (a *Aggregator) GenerateReport(ctx context.Context, snapshot *models.MarketSnapshot) string {
	if snapshot == nil {
		return ReportApology
	}

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		a.logger.Error("failed to encode snapshot", "coin", snapshot.CoinName, "err", err)
		return ReportApology
	}

	text, err := ai.GenerateText(ctx, a.generator, &ai.Request{
		System:      reportPrompt,
		Prompt:      fmt.Sprintf("Generate market report for %s:\n%s", snapshot.CoinName, payload),
		Temperature: 0.7,
	})
	if err != nil {
		a.logger.Warn("market report failed", "coin", snapshot.CoinName, "quota", ai.IsQuota(err), "err", err)
		return ReportApology
	}
	return text
}

// generatedSnapshot accepts the legacy "A" key for project scores.
type generatedSnapshot struct {
	CoinName       string                  `json:"coinName"`
	Symbol         string                  `json:"symbol"`
	CurrentPrice   float64                 `json:"currentPrice"`
	Summary        string                  `json:"summary"`
	PriceHistory   []models.PricePoint     `json:"priceHistory"`
	Tokenomics     []models.TokenShare     `json:"tokenomics"`
	SentimentScore float64                 `json:"sentimentScore"`
	LongShortRatio []models.LongShortPoint `json:"longShortRatio"`
	ProjectScores  []struct {
		Subject string   `json:"subject"`
		Score   *float64 `json:"score"`
		A       *float64 `json:"A"`
	} `json:"projectScores"`
}

func displayName(query string, fetched *models.RealMarketData) string {
	if fetched != nil && fetched.Coin.Name != "" {
		return fetched.Coin.Name
	}
	return query
}

// merge pins every real field over the model output and repairs the filler.
func merge(query string, fetched *models.RealMarketData, g *generatedSnapshot) *models.MarketSnapshot {
	s := &models.MarketSnapshot{
		CoinName:       strings.TrimSpace(g.CoinName),
		Symbol:         strings.ToUpper(strings.TrimSpace(g.Symbol)),
		CurrentPrice:   math.Max(0, g.CurrentPrice),
		Summary:        strings.TrimSpace(g.Summary),
		PriceHistory:   g.PriceHistory,
		Tokenomics:     normalizeTokenomics(g.Tokenomics),
		SentimentScore: clampScore(g.SentimentScore),
	}

	if fetched != nil {
		s.CoinName = fetched.Coin.Name
		s.Symbol = fetched.Coin.Symbol
		s.SentimentScore = fetched.Sentiment
		if fetched.Price != nil {
			s.CurrentPrice = fetched.Price.CurrentPrice
			s.PriceHistory = append([]models.PricePoint(nil), fetched.Price.History...)
		}
	}
	if s.CoinName == "" {
		s.CoinName = query
	}
	if s.Symbol == "" {
		s.Symbol = DefaultSymbol
	}

	if fetched != nil && fetched.LongShort != nil {
		s.LongShortRatio = append([]models.LongShortPoint(nil), fetched.LongShort...)
	} else {
		s.LongShortRatio = normalizeLongShort(g.LongShortRatio, s.PriceHistory)
	}

	scores := make(map[string]float64, len(g.ProjectScores))
	for _, p := range g.ProjectScores {
		v := p.Score
		if v == nil {
			v = p.A
		}
		if v != nil {
			scores[strings.ToLower(strings.TrimSpace(p.Subject))] = *v
		}
	}
	s.ProjectScores = make([]models.ProjectScore, 0, len(models.ProjectScoreSubjects))
	for _, subject := range models.ProjectScoreSubjects {
		score, ok := scores[strings.ToLower(subject)]
		if !ok {
			score = 50
		}
		s.ProjectScores = append(s.ProjectScores, models.ProjectScore{
			Subject:  subject,
			Score:    math.Max(0, math.Min(100, score)),
			FullMark: 100,
		})
	}

	return s
}

// normalizeLongShort rescales model ratios so each entry sums to 100. Without any model
// data a flat 50/50 series is laid over the price history days, or over the last
// HistoryDays days when there is no history either.
func normalizeLongShort(points []models.LongShortPoint, history []models.PricePoint) []models.LongShortPoint {
	out := make([]models.LongShortPoint, 0, len(points))
	for _, p := range points {
		total := p.Long + p.Short
		if p.Long < 0 || p.Short < 0 || total <= 0 {
			continue
		}
		out = append(out, models.NewLongShortPoint(p.Time, p.Long*100/total))
	}
	if len(out) > 0 {
		return out
	}
	for _, h := range history {
		out = append(out, models.NewLongShortPoint(h.Time, 50))
	}
	if len(out) > 0 {
		return out
	}
	now := time.Now().UTC()
	for i := collector.HistoryDays - 1; i >= 0; i-- {
		out = append(out, models.NewLongShortPoint(models.DayLabel(now.AddDate(0, 0, -i)), 50))
	}
	return out
}

func normalizeTokenomics(shares []models.TokenShare) []models.TokenShare {
	out := make([]models.TokenShare, 0, len(shares))
	var total float64
	for _, share := range shares {
		if share.Percentage <= 0 || strings.TrimSpace(share.Name) == "" {
			continue
		}
		out = append(out, share)
		total += share.Percentage
	}
	if total <= 0 || math.Abs(total-100) <= 0.5 {
		return out
	}
	for i := range out {
		out[i].Percentage = models.Round1(out[i].Percentage * 100 / total)
	}
	return out
}

func clampScore(v float64) int {
	return int(math.Round(math.Max(0, math.Min(100, v))))
}
