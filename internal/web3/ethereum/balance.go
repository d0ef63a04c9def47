// Package ethereum reads wallet state from an EVM node.
package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/songzhibin97/cryptoinsight/internal/portfolio"
)

// balanceBackend is the subset of ethclient the reader needs.
type balanceBackend interface {
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// BalanceReader reads native balances.
type BalanceReader struct {
	backend balanceBackend
	close   func()
}

// Dial connects to an RPC endpoint.
func Dial(ctx context.Context, rpcURL string) (*BalanceReader, error) {
	rpcURL = strings.TrimSpace(rpcURL)
	if rpcURL == "" {
		return nil, errors.New("wallet rpc url is not configured")
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}
	return &BalanceReader{backend: client, close: client.Close}, nil
}

func newBalanceReader(backend balanceBackend) *BalanceReader {
	return &BalanceReader{backend: backend}
}

func (r *BalanceReader) Close() {
	if r.close != nil {
		r.close()
	}
}

// Balance returns the latest native balance in ether.
func (r *BalanceReader) Balance(ctx context.Context, address string) (float64, error) {
	if !common.IsHexAddress(address) {
		return 0, fmt.Errorf("invalid address %q", address)
	}
	wei, err := r.backend.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return decimal.NewFromBigInt(wei, -18).InexactFloat64(), nil
}

// Wallet reads the balance and returns what portfolio.Holdings.ConnectWallet expects.
func (r *BalanceReader) Wallet(ctx context.Context, address string) (portfolio.WalletInfo, error) {
	balance, err := r.Balance(ctx, address)
	if err != nil {
		return portfolio.WalletInfo{}, err
	}
	return portfolio.WalletInfo{Address: address, Balance: balance}, nil
}
