package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"

	"github.com/songzhibin97/cryptoinsight/internal/models"
	"github.com/songzhibin97/cryptoinsight/internal/utils/request"
)

// SpotHistorySource builds daily price history from spot USDT klines.
type SpotHistorySource struct {
	client *binance.Client
}

// NewSpotHistorySource creates a public, unauthenticated spot client.
func NewSpotHistorySource(baseURL string, timeout time.Duration) *SpotHistorySource {
	client := binance.NewClient("", "")
	if baseURL != "" {
		client.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if timeout <= 0 {
		timeout = request.DefaultTimeout
	}
	client.HTTPClient = &http.Client{
		Timeout:   timeout,
		Transport: &http.Transport{Proxy: http.ProxyFromEnvironment},
	}
	return &SpotHistorySource{client: client}
}

func (s *SpotHistorySource) Name() string {
	return "binance-spot"
}

// PriceHistory uses daily close prices; the last close is the current price.
func (s *SpotHistorySource) PriceHistory(ctx context.Context, coin models.CoinIdentity, days int) (*models.PriceAction, error) {
	if coin.Symbol == "" {
		return nil, fmt.Errorf("coin symbol is required")
	}

	klines, err := s.client.NewKlinesService().
		Symbol(strings.ToUpper(coin.Symbol) + "USDT").
		Interval("1d").
		Limit(days).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}

	if len(klines) == 0 {
		return nil, fmt.Errorf("no klines for %s", coin.Symbol)
	}

	history := make([]models.PricePoint, 0, len(klines))
	for _, k := range klines {
		price, err := strconv.ParseFloat(k.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse close price: %w", err)
		}
		history = append(history, models.PricePoint{
			Time:  models.DayLabel(time.UnixMilli(k.OpenTime)),
			Price: price,
		})
	}

	return &models.PriceAction{
		History:      history,
		CurrentPrice: history[len(history)-1].Price,
	}, nil
}
