package transaction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/songzhibin97/cryptoinsight/internal/ai"
	"github.com/songzhibin97/cryptoinsight/internal/models"
)

// ErrUnsupportedType is returned for anything other than SEND or SWAP.
var ErrUnsupportedType = errors.New("unsupported transaction type")

const systemPrompt = `You are a Web3 Transaction Agent. Your job is to extract transaction details for SEND or SWAP operations.

RULES:
1. **Supported Types**: Only 'SEND' or 'SWAP'. Ignore 'BUY' or 'SELL'.
2. **No Guessing**: If the user does not provide a piece of information (like address, amount, or network), return null for that field. **DO NOT** make up addresses or amounts.
3. **Network Standardization**: You MUST normalize the network name to one of the following exact strings if detected:
   - "Ethereum Mainnet" (for ETH, Mainnet)
   - "Sepolia Testnet" (for Sepolia, Testnet)
   - "Binance Smart Chain" (for BSC, BNB Chain, Binance)
   - "Polygon" (for Matic, Polygon PoS)
   - "Avalanche C-Chain" (for Avax, Avalanche)
   Any other network (for example Solana) is not supported, return it unchanged.
4. **Extraction**:
   - 'token': The asset being sent or swapped from.
   - 'targetToken': The asset being received (only for SWAP).
   - 'amount': The numerical value.
   - 'toAddress': The recipient wallet address (only for SEND).
   - 'network': The blockchain network.
   - 'summary': One sentence describing the transaction.

Examples:
- "Send ETH" -> { "type": "SEND", "token": "ETH", "amount": null, "toAddress": null, "network": "Ethereum Mainnet" }
- "Swap 1 BNB to USDT on BSC" -> { "type": "SWAP", "token": "BNB", "targetToken": "USDT", "amount": 1, "network": "Binance Smart Chain" }
- "Send 10 MATIC to 0x123... on Polygon" -> { "type": "SEND", "token": "MATIC", "amount": 10, "toAddress": "0x123...", "network": "Polygon" }

Respond with JSON only.`

// Drafter extracts a transaction draft from free text without guessing missing fields.
type Drafter struct {
	generator ai.Generator
	logger    *slog.Logger
}

func NewDrafter(generator ai.Generator, logger *slog.Logger) *Drafter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Drafter{generator: generator, logger: logger}
}

type generatedDraft struct {
	Type        string          `json:"type"`
	Token       *string         `json:"token"`
	TargetToken *string         `json:"targetToken"`
	Amount      json.RawMessage `json:"amount"`
	ToAddress   *string         `json:"toAddress"`
	Network     *string         `json:"network"`
	Summary     string          `json:"summary"`
}

// Draft returns the extracted draft. Fields the user did not give stay nil.
// Model failures match ai.ErrUpstreamExhausted, quota failures ai.ErrQuotaExceeded.
func (d *Drafter) Draft(ctx context.Context, text string) (*models.TransactionDraft, error) {
	var out generatedDraft
	err := ai.GenerateJSON(ctx, d.generator, &ai.Request{
		System:     systemPrompt,
		Prompt:     fmt.Sprintf("Parse this transaction request: %q", text),
		Schema:     ai.TransactionSchema,
		SchemaName: "transaction",
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to draft transaction: %w", err)
	}

	draft, err := normalize(&out)
	if err != nil {
		return nil, err
	}
	if len(draft.Issues) > 0 {
		d.logger.Warn("transaction draft has issues", "issues", draft.Issues)
	}
	return draft, nil
}

func normalize(g *generatedDraft) (*models.TransactionDraft, error) {
	kind := models.TransactionType(strings.ToUpper(strings.TrimSpace(g.Type)))
	if kind != models.TransactionSend && kind != models.TransactionSwap {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, g.Type)
	}

	draft := &models.TransactionDraft{
		Type:    kind,
		Token:   strings.ToUpper(deref(g.Token)),
		Amount:  parseAmount(g.Amount),
		Summary: strings.TrimSpace(g.Summary),
	}
	if draft.Amount == nil && strings.Contains(string(g.Amount), ",") {
		draft.Issues = append(draft.Issues, fmt.Sprintf("amount %s is ambiguous, restate it without separators", strings.TrimSpace(string(g.Amount))))
	}

	if kind == models.TransactionSwap {
		if target := strings.ToUpper(deref(g.TargetToken)); target != "" {
			draft.TargetToken = &target
		}
	}

	if kind == models.TransactionSend {
		if addr := deref(g.ToAddress); addr != "" {
			if common.IsHexAddress(addr) {
				checksummed := common.HexToAddress(addr).Hex()
				draft.ToAddress = &checksummed
			} else {
				draft.Issues = append(draft.Issues, fmt.Sprintf("recipient address %q is not a valid EVM address", addr))
			}
		}
	}

	if name := deref(g.Network); name != "" {
		if network, ok := NormalizeNetwork(name); ok {
			draft.Network = &network
		} else {
			draft.Issues = append(draft.Issues, fmt.Sprintf("network %q is not supported, choose one of %s", name, networkList()))
		}
	}

	if draft.Summary == "" {
		draft.Summary = describe(draft)
	}
	return draft, nil
}

// parseAmount accepts numbers and numeric strings. Anything else, zero or negative is absent.
// 逗号既可能是千分位也可能是小数点, 一律不猜.
func parseAmount(raw json.RawMessage) *float64 {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" || strings.Contains(s, ",") {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func describe(d *models.TransactionDraft) string {
	amount := "an unspecified amount of"
	if d.Amount != nil {
		amount = strconv.FormatFloat(*d.Amount, 'f', -1, 64)
	}
	token := d.Token
	if token == "" {
		token = "tokens"
	}

	var b strings.Builder
	if d.Type == models.TransactionSwap {
		fmt.Fprintf(&b, "Swap %s %s", amount, token)
		if d.TargetToken != nil {
			fmt.Fprintf(&b, " to %s", *d.TargetToken)
		}
	} else {
		fmt.Fprintf(&b, "Send %s %s", amount, token)
		if d.ToAddress != nil {
			fmt.Fprintf(&b, " to %s", *d.ToAddress)
		}
	}
	if d.Network != nil {
		fmt.Fprintf(&b, " on %s", *d.Network)
	}
	return b.String()
}

func networkList() string {
	names := make([]string, 0, len(models.Networks))
	for _, n := range models.Networks {
		names = append(names, string(n))
	}
	return strings.Join(names, ", ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
