package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/songzhibin97/cryptoinsight/internal/data"
	"github.com/songzhibin97/cryptoinsight/internal/models"
)

const (
	// HistoryDays is the length of the dashboard price chart.
	HistoryDays = 7
	// NeutralSentiment is used when the sentiment index is unavailable.
	NeutralSentiment = 50
)

type Logger interface {
	Error(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

// MultiSourceHistory implements data.PriceHistorySource by trying each source in order
type MultiSourceHistory struct {
	sources []data.PriceHistorySource
	logger  Logger
}

func NewMultiSourceHistory(sources []data.PriceHistorySource, logger Logger) *MultiSourceHistory {
	return &MultiSourceHistory{
		sources: sources,
		logger:  logger,
	}
}

func (c *MultiSourceHistory) Name() string {
	return "multi"
}

// PriceHistory implements data.PriceHistorySource interface
func (c *MultiSourceHistory) PriceHistory(ctx context.Context, coin models.CoinIdentity, days int) (*models.PriceAction, error) {
	for _, source := range c.sources {
		result, err := source.PriceHistory(ctx, coin, days)
		if err == nil && result != nil && len(result.History) > 0 {
			c.logger.Info("collected price history", "source", source.Name(), "symbol", coin.Symbol)
			return result, nil
		}
		c.logger.Warn("failed to collect price history", "source", source.Name(), "symbol", coin.Symbol, "err", err)
	}

	return nil, fmt.Errorf("failed to collect price history from all sources")
}

// MarketCollector fans out the three market fetches for one coin and joins them.
type MarketCollector struct {
	history   data.PriceHistorySource
	sentiment data.SentimentSource
	longShort data.LongShortSource
	timeout   time.Duration
	logger    Logger
}

// NewMarketCollector creates a collector. Nil sources are treated as unavailable.
// timeout bounds each fetch individually.
func NewMarketCollector(history data.PriceHistorySource, sentiment data.SentimentSource, longShort data.LongShortSource, timeout time.Duration, logger Logger) *MarketCollector {
	return &MarketCollector{
		history:   history,
		sentiment: sentiment,
		longShort: longShort,
		timeout:   timeout,
		logger:    logger,
	}
}

// Collect never fails: every fetch that errors or times out is reported as absent,
// except sentiment which falls back to NeutralSentiment.
func (c *MarketCollector) Collect(ctx context.Context, coin models.CoinIdentity) *models.RealMarketData {
	result := &models.RealMarketData{
		Coin:      coin,
		Sentiment: NeutralSentiment,
	}

	var wg sync.WaitGroup

	if c.history != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fctx, cancel := c.fetchContext(ctx)
			defer cancel()

			action, err := c.history.PriceHistory(fctx, coin, HistoryDays)
			if err != nil || action == nil || len(action.History) == 0 {
				c.logger.Warn("price history unavailable", "source", c.history.Name(), "coin", coin.ID, "err", err)
				return
			}
			result.Price = action
		}()
	}

	if c.sentiment != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fctx, cancel := c.fetchContext(ctx)
			defer cancel()

			value, err := c.sentiment.Sentiment(fctx)
			if err != nil {
				c.logger.Warn("sentiment unavailable, using neutral", "err", err)
				return
			}
			result.Sentiment = value
		}()
	}

	if c.longShort != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fctx, cancel := c.fetchContext(ctx)
			defer cancel()

			points, err := c.longShort.LongShortRatio(fctx, coin.Symbol)
			if err != nil || len(points) == 0 {
				c.logger.Warn("long/short ratio unavailable", "symbol", coin.Symbol, "err", err)
				return
			}
			result.LongShort = points
		}()
	}

	// 每个 goroutine 只写自己的字段, Wait 之后再读
	wg.Wait()

	c.logger.Info("collected market data", "coin", coin.ID,
		"price", result.Price != nil, "sentiment", result.Sentiment, "long_short", result.LongShort != nil)
	return result
}

func (c *MarketCollector) fetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
