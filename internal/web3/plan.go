package web3

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/songzhibin97/cryptoinsight/internal/models"
)

var (
	// ErrIncompleteDraft is returned while the draft still misses fields.
	ErrIncompleteDraft = errors.New("transaction draft is incomplete")
	// ErrSwapUnsupported is returned for swaps, which the wallet routes itself.
	ErrSwapUnsupported = errors.New("swap plans are built by the wallet")
	// ErrUnknownToken is returned for tokens without a known contract on the network.
	ErrUnknownToken = errors.New("token is not supported on this network")
)

const erc20ABI = `[{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}]`

var erc20 = mustParseABI(erc20ABI)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}

// Plan is an unsigned transaction ready for the user's wallet.
type Plan struct {
	Chain  Chain
	To     common.Address // recipient for native sends, token contract for ERC20
	Value  *big.Int
	Data   []byte
	Native bool
	Token  string
}

// BuildPlan turns a complete SEND draft into a native transfer or an ERC20 transfer call.
func BuildPlan(draft *models.TransactionDraft) (*Plan, error) {
	if missing := draft.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteDraft, strings.Join(missing, ", "))
	}
	if draft.Type == models.TransactionSwap {
		return nil, ErrSwapUnsupported
	}

	chain, ok := ChainFor(*draft.Network)
	if !ok {
		return nil, fmt.Errorf("unknown network %q", *draft.Network)
	}
	recipient := common.HexToAddress(*draft.ToAddress)

	if strings.EqualFold(draft.Token, chain.NativeSymbol) {
		value, err := toBaseUnits(*draft.Amount, chain.Decimals)
		if err != nil {
			return nil, err
		}
		return &Plan{Chain: chain, To: recipient, Value: value, Native: true, Token: chain.NativeSymbol}, nil
	}

	token, ok := TokenFor(chain.Network, draft.Token)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrUnknownToken, draft.Token, chain.Network)
	}
	amount, err := toBaseUnits(*draft.Amount, token.Decimals)
	if err != nil {
		return nil, err
	}
	data, err := erc20.Pack("transfer", recipient, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer: %w", err)
	}
	return &Plan{Chain: chain, To: token.Address, Value: new(big.Int), Data: data, Token: token.Symbol}, nil
}

// toBaseUnits 转换为最小单位, 超出精度的小数视为错误
func toBaseUnits(amount float64, decimals uint8) (*big.Int, error) {
	d := decimal.NewFromFloat(amount).Shift(int32(decimals))
	if !d.IsInteger() {
		return nil, fmt.Errorf("amount %v has more than %d decimals", amount, decimals)
	}
	if !d.IsPositive() {
		return nil, fmt.Errorf("amount must be positive, got %v", amount)
	}
	return d.BigInt(), nil
}
