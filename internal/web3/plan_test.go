package web3

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/songzhibin97/cryptoinsight/internal/models"
)

const recipient = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"

func draft(kind models.TransactionType, token string, amount float64, network models.Network) *models.TransactionDraft {
	to := recipient
	return &models.TransactionDraft{Type: kind, Token: token, Amount: &amount, ToAddress: &to, Network: &network}
}

func TestChainFor(t *testing.T) {
	for _, n := range models.Networks {
		c, ok := ChainFor(n)
		require.True(t, ok, n)
		assert.Equal(t, n, c.Network)
	}

	c, _ := ChainFor(models.NetworkSepolia)
	assert.Equal(t, big.NewInt(11155111), c.ChainIDBig())
	c, _ = ChainFor(models.NetworkAvalanche)
	assert.Equal(t, big.NewInt(43114), c.ChainIDBig())

	_, ok := ChainFor(models.Network("Solana"))
	assert.False(t, ok)
}

func TestTokenFor(t *testing.T) {
	tok, ok := TokenFor(models.NetworkEthereum, "usdt")
	require.True(t, ok)
	assert.Equal(t, uint8(6), tok.Decimals)

	_, ok = TokenFor(models.NetworkAvalanche, "USDT")
	assert.False(t, ok)
}

func TestBuildPlan_Native(t *testing.T) {
	p, err := BuildPlan(draft(models.TransactionSend, "ETH", 0.5, models.NetworkEthereum))
	require.NoError(t, err)

	assert.True(t, p.Native)
	assert.Equal(t, common.HexToAddress(recipient), p.To)
	want, _ := new(big.Int).SetString("500000000000000000", 10)
	assert.Equal(t, want, p.Value)
	assert.Empty(t, p.Data)
}

func TestBuildPlan_ERC20(t *testing.T) {
	p, err := BuildPlan(draft(models.TransactionSend, "USDT", 10, models.NetworkEthereum))
	require.NoError(t, err)

	assert.False(t, p.Native)
	assert.Equal(t, common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), p.To)
	assert.Equal(t, 0, p.Value.Sign())
	require.Len(t, p.Data, 4+32+32)
	assert.Equal(t, []byte{0xa9, 0x05, 0x9c, 0xbb}, p.Data[:4])
	assert.Equal(t, common.HexToAddress(recipient).Bytes(), p.Data[16:36])
	assert.Equal(t, big.NewInt(10_000_000), new(big.Int).SetBytes(p.Data[36:]))
}

func TestBuildPlan_Errors(t *testing.T) {
	incomplete := &models.TransactionDraft{Type: models.TransactionSend, Token: "ETH"}
	_, err := BuildPlan(incomplete)
	assert.ErrorIs(t, err, ErrIncompleteDraft)

	target := "USDT"
	swap := draft(models.TransactionSwap, "BNB", 1, models.NetworkBSC)
	swap.TargetToken = &target
	_, err = BuildPlan(swap)
	assert.ErrorIs(t, err, ErrSwapUnsupported)

	_, err = BuildPlan(draft(models.TransactionSend, "DOGE", 1, models.NetworkPolygon))
	assert.ErrorIs(t, err, ErrUnknownToken)

	_, err = BuildPlan(draft(models.TransactionSend, "USDT", 0.0000001, models.NetworkEthereum))
	assert.Error(t, err)
}
