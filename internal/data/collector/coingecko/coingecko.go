package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/cryptoinsight/internal/data"
	"github.com/songzhibin97/cryptoinsight/internal/models"
	"github.com/songzhibin97/cryptoinsight/internal/utils/request"
)

const defaultBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoDataSource serves coin search, daily price history and batched spot prices.
type CoinGeckoDataSource struct {
	baseURL    string
	httpClient *resty.Client
}

func NewCoinGeckoDataSource(baseURL string, client *resty.Client) *CoinGeckoDataSource {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = request.Request
	}
	return &CoinGeckoDataSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

func (c *CoinGeckoDataSource) Name() string {
	return "coingecko"
}

// SearchCoin returns the top ranked match of the query.
func (c *CoinGeckoDataSource) SearchCoin(ctx context.Context, query string) (*models.CoinIdentity, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("query", query).
		Get(c.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	var result struct {
		Coins []struct {
			ID     string `json:"id"`
			Symbol string `json:"symbol"`
			Name   string `json:"name"`
		} `json:"coins"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Coins) == 0 {
		return nil, fmt.Errorf("%w: %q", data.ErrNotFound, query)
	}

	top := result.Coins[0]
	return &models.CoinIdentity{
		ID:     top.ID,
		Symbol: strings.ToUpper(top.Symbol),
		Name:   top.Name,
	}, nil
}

// PriceHistory fetches the usd market chart with daily granularity.
func (c *CoinGeckoDataSource) PriceHistory(ctx context.Context, coin models.CoinIdentity, days int) (*models.PriceAction, error) {
	if coin.ID == "" {
		return nil, fmt.Errorf("coin id is required")
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"vs_currency": "usd",
			"days":        fmt.Sprintf("%d", days),
			"interval":    "daily",
		}).
		Get(fmt.Sprintf("%s/coins/%s/market_chart", c.baseURL, coin.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	var chart struct {
		Prices [][2]float64 `json:"prices"`
	}
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(chart.Prices) == 0 {
		return nil, fmt.Errorf("no price history for %s", coin.ID)
	}

	history := make([]models.PricePoint, 0, len(chart.Prices))
	for _, p := range chart.Prices {
		history = append(history, models.PricePoint{
			Time:  models.DayLabel(time.UnixMilli(int64(p[0]))),
			Price: p[1],
		})
	}

	return &models.PriceAction{
		History:      history,
		CurrentPrice: chart.Prices[len(chart.Prices)-1][1],
	}, nil
}

// Prices fetches usd spot prices for all ids in one call.
func (c *CoinGeckoDataSource) Prices(ctx context.Context, ids []string) (map[string]float64, error) {
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":           strings.Join(ids, ","),
			"vs_currencies": "usd",
		}).
		Get(c.baseURL + "/simple/price")
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	var result map[string]struct {
		USD *float64 `json:"usd"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	prices := make(map[string]float64, len(result))
	for id, quote := range result {
		if quote.USD != nil {
			prices[id] = *quote.USD
		}
	}
	return prices, nil
}
