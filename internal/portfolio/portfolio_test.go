package portfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/cryptoinsight/internal/ai"
	"github.com/songzhibin97/cryptoinsight/internal/ai/aitest"
	"github.com/songzhibin97/cryptoinsight/internal/models"
)

func sampleItems() []models.PortfolioItem {
	return []models.PortfolioItem{
		{Symbol: "BTC", Name: "Bitcoin", Amount: 0.45, AvgPrice: 45000, CurrentPrice: 64200},
		{Symbol: "ETH", Name: "Ethereum", Amount: 5.2, AvgPrice: 2100, CurrentPrice: 3450},
		{Symbol: "SOL", Name: "Solana", Amount: 150, AvgPrice: 45, CurrentPrice: 148},
		{Symbol: "DOT", Name: "Polkadot", Amount: 500, AvgPrice: 8.5, CurrentPrice: 7.2},
	}
}

type fakeFeed struct {
	prices map[string]float64
	err    error
	ids    []string
}

func (f *fakeFeed) Prices(ctx context.Context, ids []string) (map[string]float64, error) {
	f.ids = ids
	return f.prices, f.err
}

type feedFunc func(ctx context.Context, ids []string) (map[string]float64, error)

func (f feedFunc) Prices(ctx context.Context, ids []string) (map[string]float64, error) {
	return f(ctx, ids)
}

func TestFeedID(t *testing.T) {
	assert.Equal(t, "bitcoin", FeedID(models.PortfolioItem{Symbol: "BTC", Name: "Bitcoin"}))
	assert.Equal(t, "matic-network", FeedID(models.PortfolioItem{Symbol: "matic", Name: "Polygon"}))
	assert.Equal(t, "chainlink", FeedID(models.PortfolioItem{Symbol: "LINK", Name: "Chainlink"}))
}

func TestRefresher_RefreshPrices(t *testing.T) {
	items := append(sampleItems(), models.PortfolioItem{Symbol: "LINK", Name: "Chainlink", Amount: 10, AvgPrice: 12, CurrentPrice: 14})
	feed := &fakeFeed{prices: map[string]float64{"bitcoin": 70000, "solana": 0, "chainlink": 18.5}}

	out := NewRefresher(feed, nil).RefreshPrices(context.Background(), items)

	require.Len(t, out, len(items))
	assert.Equal(t, []string{"bitcoin", "ethereum", "solana", "polkadot", "chainlink"}, feed.ids)
	assert.Equal(t, 70000.0, out[0].CurrentPrice)
	assert.Equal(t, 3450.0, out[1].CurrentPrice)
	assert.Equal(t, 148.0, out[2].CurrentPrice)
	assert.Equal(t, 18.5, out[4].CurrentPrice)
	assert.Equal(t, 64200.0, items[0].CurrentPrice, "input must not be mutated")
}

func TestRefresher_UnreachableFeedIsIdempotent(t *testing.T) {
	items := sampleItems()
	r := NewRefresher(&fakeFeed{err: errors.New("connection refused")}, nil)

	once := r.RefreshPrices(context.Background(), items)
	twice := r.RefreshPrices(context.Background(), once)
	assert.Equal(t, items, once)
	assert.Equal(t, items, twice)
}

func TestRefresher_EmptyInput(t *testing.T) {
	feed := &fakeFeed{err: errors.New("connection refused")}
	out := NewRefresher(feed, nil).RefreshPrices(context.Background(), []models.PortfolioItem{})
	assert.Equal(t, []models.PortfolioItem{}, out)
	assert.Nil(t, feed.ids, "feed must not be queried")
}

func TestValuate(t *testing.T) {
	items := append(sampleItems(), models.PortfolioItem{Symbol: "ETH", Name: "Ethereum (Wallet)", Amount: 1, CurrentPrice: 3450})
	v := Valuate(items)

	// 28890 + 17940 + 22200 + 3600 + 3450
	assert.Equal(t, 76080.0, v.TotalValue)
	require.Len(t, v.Positions, 5)

	btc := v.Positions[0]
	assert.Equal(t, "BTC", btc.Asset)
	assert.Equal(t, 28890.0, btc.CurrentValue)
	assert.Equal(t, 42.67, btc.PnLPercent)
	assert.Equal(t, 37.97, btc.Allocation)
	assert.True(t, btc.CostBasisKnown)

	dot := v.Positions[3]
	assert.Equal(t, -15.29, dot.PnLPercent)

	wallet := v.Positions[4]
	assert.Equal(t, "ETH (Wallet)", wallet.Asset)
	assert.False(t, wallet.CostBasisKnown)
	assert.Equal(t, 0.0, wallet.PnLPercent)

	var allocation float64
	for _, p := range v.Positions {
		allocation += p.Allocation
	}
	assert.InDelta(t, 100, allocation, 0.05)
}

func TestValuate_Empty(t *testing.T) {
	v := Valuate(nil)
	assert.Equal(t, 0.0, v.TotalValue)
	assert.Empty(t, v.Positions)

	v = Valuate([]models.PortfolioItem{{Symbol: "BTC", Amount: 1}})
	assert.Equal(t, 0.0, v.Positions[0].Allocation)
}

func TestHoldings_Wallet(t *testing.T) {
	h := NewHoldings(sampleItems())

	require.NoError(t, h.ConnectWallet(WalletInfo{Address: "0x8ba1f109551bd432803012645ac136ddd64dba72", Balance: 1.5}))
	items := h.Items()
	require.Len(t, items, 5)
	assert.Equal(t, models.PortfolioItem{Symbol: "ETH", Name: "Ethereum (Wallet)", Amount: 1.5, AvgPrice: 0, CurrentPrice: 3450}, items[0])
	assert.Equal(t, "0x8ba1f109551bD432803012645Ac136ddd64DBA72", h.WalletAddress())

	// reconnecting replaces the wallet entry
	require.NoError(t, h.ConnectWallet(WalletInfo{Address: "0x8ba1f109551bd432803012645ac136ddd64dba72", Balance: 2}))
	items = h.Items()
	require.Len(t, items, 5)
	assert.Equal(t, 2.0, items[0].Amount)

	h.DisconnectWallet()
	assert.Equal(t, sampleItems(), h.Items())
	assert.Empty(t, h.WalletAddress())
}

func TestHoldings_WalletDefaultPrice(t *testing.T) {
	h := NewHoldings(nil)
	require.NoError(t, h.ConnectWallet(WalletInfo{Address: "0x8ba1f109551bD432803012645Ac136ddd64DBA72", Balance: 1}))
	assert.Equal(t, float64(DefaultWalletETHPrice), h.Items()[0].CurrentPrice)

	assert.Error(t, h.ConnectWallet(WalletInfo{Address: "0x123", Balance: 1}))
	assert.Error(t, h.ConnectWallet(WalletInfo{Address: "0x8ba1f109551bD432803012645Ac136ddd64DBA72", Balance: -1}))
}

func TestHoldings_Refresh(t *testing.T) {
	h := NewHoldings(sampleItems())
	out := h.Refresh(context.Background(), NewRefresher(&fakeFeed{prices: map[string]float64{"polkadot": 9}}, nil))
	assert.Equal(t, 9.0, out[3].CurrentPrice)
	assert.Equal(t, 9.0, h.Items()[3].CurrentPrice)
}

func TestHoldings_RefreshKeepsWalletConnectedMeanwhile(t *testing.T) {
	h := NewHoldings(sampleItems())
	feed := feedFunc(func(ctx context.Context, ids []string) (map[string]float64, error) {
		require.NoError(t, h.ConnectWallet(WalletInfo{Address: "0x8ba1f109551bd432803012645ac136ddd64dba72", Balance: 1.5}))
		return map[string]float64{"ethereum": 3600}, nil
	})

	out := h.Refresh(context.Background(), NewRefresher(feed, nil))

	require.Len(t, out, 5)
	assert.True(t, out[0].FromWallet())
	assert.Equal(t, 1.5, out[0].Amount)
	assert.Equal(t, 3600.0, out[2].CurrentPrice)
	assert.Equal(t, out, h.Items())
	assert.Equal(t, "0x8ba1f109551bD432803012645Ac136ddd64DBA72", h.WalletAddress())
}

func TestAnalyzer_AnalyzeStructured(t *testing.T) {
	// the model drops DOT and miscalculates the total
	reply := `{"totalValue": 1, "positions": [
		{"asset":"BTC","amount":0.45,"avgPrice":45000,"currentPrice":64200,"currentValue":1,"pnlPercent":1,"allocation":1}
	], "riskAnalysis": " Heavy in large caps. ", "rebalancingSuggestions": ["Trim BTC", " "]}`
	gen := aitest.NewGenerator(aitest.Text(reply))
	a := NewAnalyzer(gen, nil, nil)

	v, err := a.AnalyzeStructured(context.Background(), sampleItems())
	require.NoError(t, err)

	assert.Equal(t, 72630.0, v.TotalValue)
	require.Len(t, v.Positions, 4)
	assert.Equal(t, "DOT", v.Positions[3].Asset)
	assert.Equal(t, 28890.0, v.Positions[0].CurrentValue)
	assert.Equal(t, "Heavy in large caps.", v.RiskAnalysis)
	assert.Equal(t, []string{"Trim BTC"}, v.RebalancingSuggestions)
	assert.NotNil(t, v.RiskFactors)

	req := gen.Last()
	assert.Equal(t, ai.FormatJSON, req.Format)
	assert.Contains(t, req.System, "CRITICAL: You MUST include ALL 4 positions")
	assert.Contains(t, req.Prompt, "Analyze ALL 4 assets in this portfolio: BTC, ETH, SOL, DOT")
}

func TestAnalyzer_AnalyzeStructured_Errors(t *testing.T) {
	tests := []struct {
		name      string
		reply     aitest.Reply
		wantQuota bool
	}{
		{name: "quota text", reply: aitest.Text("Error: RESOURCE_EXHAUSTED"), wantQuota: true},
		{name: "malformed", reply: aitest.Text("Your portfolio is great")},
		{name: "transport quota", reply: aitest.Fail(errors.New("status 429")), wantQuota: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalyzer(aitest.NewGenerator(tt.reply), nil, nil)
			_, err := a.AnalyzeStructured(context.Background(), sampleItems())
			require.Error(t, err)
			assert.ErrorIs(t, err, ai.ErrUpstreamExhausted)
			assert.Equal(t, tt.wantQuota, errors.Is(err, ai.ErrQuotaExceeded))
		})
	}
}

func TestAnalyzer_AnalyzeNarrative(t *testing.T) {
	gen := aitest.NewGenerator(aitest.Text("1. Total Value Breakdown: ..."), aitest.Text("You exceeded your quota"))
	a := NewAnalyzer(gen, nil, nil)

	text, err := a.AnalyzeNarrative(context.Background(), sampleItems())
	require.NoError(t, err)
	assert.Equal(t, "1. Total Value Breakdown: ...", text)
	assert.Contains(t, gen.Last().System, "Cover ALL 4 positions")

	_, err = a.AnalyzeNarrative(context.Background(), sampleItems())
	assert.True(t, ai.IsQuota(err))
}

func TestAnalyzer_EmptyPortfolio(t *testing.T) {
	gen := aitest.NewGenerator()
	a := NewAnalyzer(gen, nil, nil)

	v, err := a.AnalyzeStructured(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, emptyPortfolio, v.RiskAnalysis)

	text, err := a.AnalyzeNarrative(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, emptyPortfolio, text)
	assert.Equal(t, 0, gen.Calls())
}
