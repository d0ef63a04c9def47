package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrUpstreamExhausted matches every failure of the model collaborator.
	ErrUpstreamExhausted = errors.New("upstream exhausted")
	// ErrQuotaExceeded matches quota and rate limit failures.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrMalformedOutput matches replies that could not be decoded.
	ErrMalformedOutput = errors.New("malformed model output")
)

// UpstreamError describes a failed or unusable model call.
type UpstreamError struct {
	Quota bool
	Raw   string
	Err   error
}

func (e *UpstreamError) Error() string {
	kind := "upstream failure"
	if e.Quota {
		kind = "quota exceeded"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", kind, e.Err)
	}
	return kind
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool {
	switch target {
	case ErrUpstreamExhausted:
		return true
	case ErrQuotaExceeded:
		return e.Quota
	}
	return false
}

// "exceeded" alone also shows up in timeouts, so it only counts next to quota or rate.
var quotaPatterns = []string{
	"quota",
	"429",
	"resource_exhausted",
	"rate limit",
	"too many requests",
}

// IsQuotaSignal reports whether text looks like a quota or rate limit message.
func IsQuotaSignal(text string) bool {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "Error:") {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, p := range quotaPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return strings.Contains(lower, "exceeded") && strings.Contains(lower, "rate")
}

// Classify wraps a transport error into an UpstreamError. Timeouts are never quota.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	if isTimeout(err) {
		return &UpstreamError{Err: err}
	}
	return &UpstreamError{Quota: IsQuotaSignal(err.Error()), Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsQuota is shorthand for errors.Is(err, ErrQuotaExceeded).
func IsQuota(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}
