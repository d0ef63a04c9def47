package deepseek

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/cryptoinsight/internal/ai"
)

const (
	defaultAPIEndpoint = "https://api.deepseek.com/v1"
	defaultModel       = "deepseek-chat"
	defaultTimeout     = 30 * time.Second
)

// Generator implements ai.Generator using the DeepSeek chat completions API.
type Generator struct {
	apiKey   string
	endpoint string
	model    string
	client   *resty.Client
}

// NewGenerator creates a new DeepSeek generator instance
func NewGenerator(apiKey, model, endpoint string, timeout time.Duration) *Generator {
	if model == "" {
		model = defaultModel
	}
	if endpoint == "" {
		endpoint = defaultAPIEndpoint
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Generator{
		apiKey:   apiKey,
		endpoint: endpoint,
		model:    model,
		client: resty.New().
			SetTransport(&http.Transport{Proxy: http.ProxyFromEnvironment}).
			SetTimeout(timeout),
	}
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float32         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends a request to the DeepSeek API. Schemas are not supported by
// DeepSeek, JSON requests use json_object mode instead.
func (g *Generator) Generate(ctx context.Context, req *ai.Request) (string, error) {
	if len(req.Images) > 0 {
		return "", &ai.UpstreamError{Err: fmt.Errorf("deepseek does not accept images")}
	}

	reqBody := chatRequest{
		Model:       g.model,
		Temperature: req.Temperature,
	}
	if req.System != "" {
		reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "system", Content: req.System})
	}
	reqBody.Messages = append(reqBody.Messages, chatMessage{Role: "user", Content: req.Prompt})
	if req.Format == ai.FormatJSON {
		reqBody.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(g.apiKey).
		SetBody(reqBody).
		Post(g.endpoint + "/chat/completions")
	if err != nil {
		return "", ai.Classify(fmt.Errorf("failed to send request: %w", err))
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		return "", &ai.UpstreamError{Quota: true, Err: fmt.Errorf("api error: status=%d, body=%s", resp.StatusCode(), resp.String())}
	}
	if resp.StatusCode() != http.StatusOK {
		return "", ai.Classify(fmt.Errorf("api error: status=%d, body=%s", resp.StatusCode(), resp.String()))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(resp.Body(), &chatResp); err != nil {
		return "", &ai.UpstreamError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if chatResp.Error != nil {
		return "", ai.Classify(fmt.Errorf("api error: %s", chatResp.Error.Message))
	}

	if len(chatResp.Choices) == 0 {
		return "", &ai.UpstreamError{Err: fmt.Errorf("no response from api")}
	}

	return chatResp.Choices[0].Message.Content, nil
}
