package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/cryptoinsight/internal/models"
	"github.com/songzhibin97/cryptoinsight/internal/utils/request"
)

const defaultFuturesURL = "https://fapi.binance.com"

// FuturesDataSource reads public futures statistics.
type FuturesDataSource struct {
	baseURL    string
	httpClient *resty.Client
}

func NewFuturesDataSource(baseURL string, client *resty.Client) *FuturesDataSource {
	if baseURL == "" {
		baseURL = defaultFuturesURL
	}
	if client == nil {
		client = request.Request
	}
	return &FuturesDataSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

func (b *FuturesDataSource) Name() string {
	return "binance-futures"
}

// LongShortRatio returns the last 7 daily global long/short account ratios of the USDT perpetual.
// Symbols not listed on futures come back as an error.
func (b *FuturesDataSource) LongShortRatio(ctx context.Context, symbol string) ([]models.LongShortPoint, error) {
	resp, err := b.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": strings.ToUpper(symbol) + "USDT",
			"period": "1d",
			"limit":  "7",
		}).
		Get(b.baseURL + "/futures/data/globalLongShortAccountRatio")
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	var items []struct {
		LongAccount  string `json:"longAccount"`
		ShortAccount string `json:"shortAccount"`
		Timestamp    int64  `json:"timestamp"`
	}
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("no long/short data for %s", symbol)
	}

	points := make([]models.LongShortPoint, 0, len(items))
	for _, item := range items {
		long, err := strconv.ParseFloat(item.LongAccount, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse long account: %w", err)
		}
		points = append(points, models.NewLongShortPoint(models.DayLabel(time.UnixMilli(item.Timestamp)), long*100))
	}
	return points, nil
}
