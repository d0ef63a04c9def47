// Package vision analyzes chart screenshots the user annotated.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"

	"github.com/songzhibin97/cryptoinsight/internal/ai"
)

// Apology is returned whenever the chart could not be analyzed.
const Apology = "I encountered an error trying to see the chart. Please try again."

const pngDataURLPrefix = "data:image/png;base64,"

type Analyzer struct {
	generator ai.Generator
	logger    *slog.Logger
}

func NewAnalyzer(generator ai.Generator, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{generator: generator, logger: logger}
}

// AnalyzeChart sends the PNG screenshot together with the user's question. It never fails.
func (a *Analyzer) AnalyzeChart(ctx context.Context, image []byte, prompt string) string {
	if len(image) == 0 {
		a.logger.Warn("empty chart image")
		return Apology
	}

	reply, err := ai.GenerateText(ctx, a.generator, &ai.Request{
		Prompt: fmt.Sprintf("The user has drawn indicators/lines on this chart. %s. Analyze the technical setup based on these visual cues.",
			strings.TrimRight(strings.TrimSpace(prompt), ".")),
		Images: []string{DataURL(image)},
	})
	if err != nil {
		a.logger.Warn("chart analysis failed", "quota", ai.IsQuota(err), "err", err)
		return Apology
	}
	return reply
}

// DataURL encodes a PNG as a base64 data URL.
func DataURL(image []byte) string {
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(image)
}
