package ethereum

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	balance *big.Int
	err     error
	seen    common.Address
}

func (f *fakeBackend) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	f.seen = account
	return f.balance, f.err
}

const addr = "0x8ba1f109551bd432803012645ac136ddd64dba72"

func TestBalanceReader_Wallet(t *testing.T) {
	wei, _ := new(big.Int).SetString("1500000000000000000", 10)
	backend := &fakeBackend{balance: wei}
	r := newBalanceReader(backend)

	info, err := r.Wallet(context.Background(), addr)
	require.NoError(t, err)
	assert.Equal(t, 1.5, info.Balance)
	assert.Equal(t, addr, info.Address)
	assert.Equal(t, common.HexToAddress(addr), backend.seen)
}

func TestBalanceReader_Errors(t *testing.T) {
	r := newBalanceReader(&fakeBackend{err: errors.New("node down")})

	_, err := r.Balance(context.Background(), addr)
	assert.ErrorContains(t, err, "node down")

	_, err = r.Balance(context.Background(), "0x123")
	assert.ErrorContains(t, err, "invalid address")
}

func TestDial_EmptyURL(t *testing.T) {
	_, err := Dial(context.Background(), " ")
	assert.Error(t, err)
}
