package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDayLabel(t *testing.T) {
	assert.Equal(t, "12/31", DayLabel(time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1/5", DayLabel(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
}

func TestNewLongShortPoint(t *testing.T) {
	tests := []struct {
		long      float64
		wantLong  float64
		wantShort float64
	}{
		{64.29, 64.3, 35.7},
		{33.333, 33.3, 66.7},
		{123.45, 100, 0},
		{-3, 0, 100},
	}
	for _, tt := range tests {
		p := NewLongShortPoint("1/1", tt.long)
		assert.InDelta(t, tt.wantLong, p.Long, 1e-9)
		assert.InDelta(t, tt.wantShort, p.Short, 1e-9)
		assert.InDelta(t, 100, p.Long+p.Short, 1e-9)
	}
}

func TestNetwork_Valid(t *testing.T) {
	for _, n := range Networks {
		assert.True(t, n.Valid(), n)
	}
	assert.False(t, Network("Solana").Valid())
	assert.False(t, Network("polygon").Valid())
}

func TestTransactionDraft_MissingFields(t *testing.T) {
	amount := 1.0
	target := "USDT"
	addr := "0x0000000000000000000000000000000000000001"
	network := NetworkBSC

	send := &TransactionDraft{Type: TransactionSend, Token: "ETH"}
	assert.Equal(t, []string{"amount", "recipient address", "network"}, send.MissingFields())

	swap := &TransactionDraft{Type: TransactionSwap, Token: "BNB", TargetToken: &target, Amount: &amount, Network: &network}
	assert.Empty(t, swap.MissingFields())

	full := &TransactionDraft{Type: TransactionSend, Token: "ETH", Amount: &amount, ToAddress: &addr, Network: &network}
	assert.Empty(t, full.MissingFields())

	assert.Equal(t, []string{"token", "amount", "target token", "network"}, (&TransactionDraft{Type: TransactionSwap}).MissingFields())
}

func TestPortfolioItem_FromWallet(t *testing.T) {
	assert.True(t, PortfolioItem{Name: "Ethereum (Wallet)"}.FromWallet())
	assert.False(t, PortfolioItem{Name: "Ethereum"}.FromWallet())
}

func TestChatSession_LatestSnapshot(t *testing.T) {
	older := &MarketSnapshot{CoinName: "Bitcoin"}
	newer := &MarketSnapshot{CoinName: "Solana"}

	s := &ChatSession{Messages: []ChatMessage{
		{Role: RoleAssistant, Snapshot: older},
		{Role: RoleAssistant, Snapshot: newer},
		{Role: RoleAssistant, Text: "report"},
		{Role: RoleUser, Text: "what's the sentiment?"},
	}}
	assert.Same(t, newer, s.LatestSnapshot())

	assert.Nil(t, (&ChatSession{}).LatestSnapshot())
}
