package alternative

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/cryptoinsight/internal/utils/request"
)

const defaultBaseURL = "https://api.alternative.me"

// FearGreedSource reads the alternative.me Fear & Greed index.
type FearGreedSource struct {
	baseURL    string
	httpClient *resty.Client
}

func NewFearGreedSource(baseURL string, client *resty.Client) *FearGreedSource {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = request.Request
	}
	return &FearGreedSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

func (f *FearGreedSource) Name() string {
	return "alternative.me"
}

// Sentiment returns today's index value.
func (f *FearGreedSource) Sentiment(ctx context.Context) (int, error) {
	resp, err := f.httpClient.R().
		SetContext(ctx).
		SetQueryParam("limit", "1").
		Get(f.baseURL + "/fng/")
	if err != nil {
		return 0, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	var result struct {
		Data []struct {
			Value string `json:"value"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Data) == 0 {
		return 0, fmt.Errorf("empty fear and greed index")
	}

	value, err := strconv.Atoi(strings.TrimSpace(result.Data[0].Value))
	if err != nil {
		return 0, fmt.Errorf("failed to parse index value: %w", err)
	}
	if value < 0 || value > 100 {
		return 0, fmt.Errorf("index value out of range: %d", value)
	}
	return value, nil
}
