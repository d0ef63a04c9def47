package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")

// ParseModelOutput decodes raw model text into v.
//
// The reply is tried as JSON first, then the first fenced code block. Anything else
// is an UpstreamError, flagged as quota when the text carries a quota signal.
func ParseModelOutput(raw string, v any) error {
	text := strings.TrimSpace(raw)
	if text == "" {
		return &UpstreamError{Raw: raw, Err: fmt.Errorf("%w: empty reply", ErrMalformedOutput)}
	}

	directErr := json.Unmarshal([]byte(text), v)
	if directErr == nil {
		return nil
	}

	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		if err := json.Unmarshal([]byte(m[1]), v); err == nil {
			return nil
		}
	}

	if IsQuotaSignal(text) {
		return &UpstreamError{Quota: true, Raw: raw, Err: fmt.Errorf("model replied: %s", truncate(text, 120))}
	}
	return &UpstreamError{Raw: raw, Err: fmt.Errorf("%w: %v", ErrMalformedOutput, directErr)}
}

// GenerateJSON sends a JSON request and decodes the reply into v.
func GenerateJSON(ctx context.Context, g Generator, req *Request, v any) error {
	req.Format = FormatJSON
	raw, err := g.Generate(ctx, req)
	if err != nil {
		return Classify(err)
	}
	return ParseModelOutput(raw, v)
}

// GenerateText sends a text request. A reply that is only a quota message is an error.
func GenerateText(ctx context.Context, g Generator, req *Request) (string, error) {
	raw, err := g.Generate(ctx, req)
	if err != nil {
		return "", Classify(err)
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", &UpstreamError{Raw: raw, Err: fmt.Errorf("%w: empty reply", ErrMalformedOutput)}
	}
	if looksLikeQuotaReply(text) {
		return "", &UpstreamError{Quota: true, Raw: raw, Err: fmt.Errorf("model replied: %s", truncate(text, 120))}
	}
	return text, nil
}

// Narrative replies legitimately mention words like "exceeded", so only short
// replies or "Error:" prefixed ones count as quota messages.
func looksLikeQuotaReply(text string) bool {
	if strings.HasPrefix(text, "Error:") {
		return true
	}
	return len([]rune(text)) <= 200 && IsQuotaSignal(text)
}

func truncate(text string, n int) string {
	r := []rune(text)
	if len(r) > n {
		return string(r[:n]) + "..."
	}
	return text
}
