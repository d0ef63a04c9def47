package portfolio

import (
	"context"
	"log/slog"
	"strings"

	"github.com/songzhibin97/cryptoinsight/internal/data"
	"github.com/songzhibin97/cryptoinsight/internal/models"
)

// coinIDs maps tickers to price feed ids.
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"DOT":   "polkadot",
	"BNB":   "binancecoin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"MATIC": "matic-network",
}

// FeedID returns the price feed id of an item, falling back to its lower cased name.
func FeedID(item models.PortfolioItem) string {
	if id, ok := coinIDs[strings.ToUpper(item.Symbol)]; ok {
		return id
	}
	return strings.ToLower(item.Name)
}

// Refresher updates current prices from a batched price feed.
type Refresher struct {
	feed   data.PriceFeed
	logger *slog.Logger
}

func NewRefresher(feed data.PriceFeed, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{feed: feed, logger: logger}
}

// RefreshPrices returns a new list with fresh prices where the feed had one.
// It never fails: when the feed is unreachable the items come back unchanged.
func (r *Refresher) RefreshPrices(ctx context.Context, items []models.PortfolioItem) []models.PortfolioItem {
	out := make([]models.PortfolioItem, len(items))
	copy(out, items)
	if len(items) == 0 {
		return out
	}

	seen := make(map[string]bool, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		id := FeedID(item)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}

	prices, err := r.feed.Prices(ctx, ids)
	if err != nil {
		r.logger.Warn("failed to refresh portfolio prices", "err", err)
		return out
	}

	updated := 0
	for i := range out {
		if price, ok := prices[FeedID(out[i])]; ok && price > 0 {
			out[i].CurrentPrice = price
			updated++
		}
	}
	r.logger.Info("refreshed portfolio prices", "updated", updated, "total", len(out))
	return out
}
