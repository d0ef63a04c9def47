package vision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/cryptoinsight/internal/ai/aitest"
)

var png = []byte{0x89, 'P', 'N', 'G'}

func TestAnalyzer_AnalyzeChart(t *testing.T) {
	gen := aitest.NewGenerator(aitest.Text("The trendline shows a breakout."))
	got := NewAnalyzer(gen, nil).AnalyzeChart(context.Background(), png, "Is this a breakout?")

	assert.Equal(t, "The trendline shows a breakout.", got)
	req := gen.Last()
	require.Len(t, req.Images, 1)
	assert.Equal(t, "data:image/png;base64,iVBORw==", req.Images[0])
	assert.Equal(t, "The user has drawn indicators/lines on this chart. Is this a breakout?. Analyze the technical setup based on these visual cues.", req.Prompt)
}

func TestAnalyzer_Failures(t *testing.T) {
	gen := aitest.NewGenerator(aitest.Fail(errors.New("boom")))
	a := NewAnalyzer(gen, nil)

	assert.Equal(t, Apology, a.AnalyzeChart(context.Background(), png, "look"))
	assert.Equal(t, Apology, a.AnalyzeChart(context.Background(), nil, "look"))
	assert.Equal(t, 1, gen.Calls())
}
