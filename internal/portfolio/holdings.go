package portfolio

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/songzhibin97/cryptoinsight/internal/models"
)

// DefaultWalletETHPrice is used for wallet ETH when no ETH price is known yet.
const DefaultWalletETHPrice = 3000

// WalletInfo is what a wallet connection reports.
type WalletInfo struct {
	Address string
	Balance float64 // native ETH
}

// Holdings is the user's portfolio plus the connected wallet address.
type Holdings struct {
	mu            sync.RWMutex
	items         []models.PortfolioItem
	walletAddress string
}

func NewHoldings(items []models.PortfolioItem) *Holdings {
	return &Holdings{items: append([]models.PortfolioItem(nil), items...)}
}

// Items returns a copy of the current items.
func (h *Holdings) Items() []models.PortfolioItem {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]models.PortfolioItem(nil), h.items...)
}

func (h *Holdings) WalletAddress() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.walletAddress
}

// ConnectWallet replaces any wallet item with a fresh one placed first.
func (h *Holdings) ConnectWallet(info WalletInfo) error {
	if !common.IsHexAddress(info.Address) {
		return fmt.Errorf("invalid wallet address: %q", info.Address)
	}
	if info.Balance < 0 {
		return fmt.Errorf("invalid wallet balance: %v", info.Balance)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// 沿用已有 ETH 持仓的现价
	price := float64(DefaultWalletETHPrice)
	for _, item := range h.items {
		if item.Symbol == "ETH" {
			price = item.CurrentPrice
			break
		}
	}

	clean := withoutWallet(h.items)
	h.items = append([]models.PortfolioItem{{
		Symbol:       "ETH",
		Name:         "Ethereum " + models.WalletMarker,
		Amount:       info.Balance,
		AvgPrice:     0,
		CurrentPrice: price,
	}}, clean...)
	h.walletAddress = common.HexToAddress(info.Address).Hex()
	return nil
}

// DisconnectWallet removes wallet items and forgets the address.
func (h *Holdings) DisconnectWallet() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.items = withoutWallet(h.items)
	h.walletAddress = ""
}

// Refresh updates prices through r. Prices are merged back by symbol and name, so
// wallet changes made while the feed is queried are kept.
func (h *Holdings) Refresh(ctx context.Context, r *Refresher) []models.PortfolioItem {
	refreshed := r.RefreshPrices(ctx, h.Items())
	prices := make(map[string]float64, len(refreshed))
	for _, item := range refreshed {
		prices[itemKey(item)] = item.CurrentPrice
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.items {
		if price, ok := prices[itemKey(h.items[i])]; ok {
			h.items[i].CurrentPrice = price
		}
	}
	return append([]models.PortfolioItem(nil), h.items...)
}

func itemKey(item models.PortfolioItem) string {
	return item.Symbol + "\x00" + item.Name
}

func withoutWallet(items []models.PortfolioItem) []models.PortfolioItem {
	out := make([]models.PortfolioItem, 0, len(items))
	for _, item := range items {
		if !item.FromWallet() {
			out = append(out, item)
		}
	}
	return out
}
