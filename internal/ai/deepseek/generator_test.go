package deepseek

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/cryptoinsight/internal/ai"
)

func setupTestServer(t *testing.T, status int, response interface{}, inspect func(chatRequest)) (*httptest.Server, *Generator) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if inspect != nil {
			inspect(req)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		require.NoError(t, json.NewEncoder(w).Encode(response))
	}))

	g := NewGenerator("key", "", server.URL, 0)
	g.client = resty.NewWithClient(server.Client())
	return server, g
}

func okResponse(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
}

func TestGenerator_Generate(t *testing.T) {
	tests := []struct {
		name       string
		req        *ai.Request
		wantFormat bool
		wantMsgs   int
	}{
		{
			name:       "json request with system",
			req:        &ai.Request{System: "sys", Prompt: "hi", Format: ai.FormatJSON, Schema: ai.IntentSchema},
			wantFormat: true,
			wantMsgs:   2,
		},
		{
			name:     "text request without system",
			req:      &ai.Request{Prompt: "hi"},
			wantMsgs: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, g := setupTestServer(t, http.StatusOK, okResponse("done"), func(req chatRequest) {
				assert.Equal(t, defaultModel, req.Model)
				assert.Len(t, req.Messages, tt.wantMsgs)
				assert.Equal(t, "user", req.Messages[len(req.Messages)-1].Role)
				if tt.wantFormat {
					require.NotNil(t, req.ResponseFormat)
					assert.Equal(t, "json_object", req.ResponseFormat.Type)
				} else {
					assert.Nil(t, req.ResponseFormat)
				}
			})
			defer server.Close()

			out, err := g.Generate(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, "done", out)
		})
	}
}

func TestGenerator_ErrorHandling(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		response  interface{}
		wantQuota bool
	}{
		{
			name:      "rate limited",
			status:    http.StatusTooManyRequests,
			response:  map[string]any{"error": map[string]any{"message": "slow down"}},
			wantQuota: true,
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			response: map[string]any{"error": map[string]any{"message": "boom"}},
		},
		{
			name:     "no choices",
			status:   http.StatusOK,
			response: map[string]any{"choices": []any{}},
		},
		{
			name:      "error payload with quota message",
			status:    http.StatusOK,
			response:  map[string]any{"error": map[string]any{"message": "Insufficient quota"}},
			wantQuota: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, g := setupTestServer(t, tt.status, tt.response, nil)
			defer server.Close()

			_, err := g.Generate(context.Background(), &ai.Request{Prompt: "hi"})
			require.Error(t, err)
			assert.ErrorIs(t, err, ai.ErrUpstreamExhausted)
			assert.Equal(t, tt.wantQuota, ai.IsQuota(err))
		})
	}
}

func TestGenerator_RejectsImages(t *testing.T) {
	g := NewGenerator("key", "", "http://127.0.0.1:1", 0)
	_, err := g.Generate(context.Background(), &ai.Request{Prompt: "hi", Images: []string{"data:image/png;base64,AAAA"}})
	assert.ErrorIs(t, err, ai.ErrUpstreamExhausted)
}
