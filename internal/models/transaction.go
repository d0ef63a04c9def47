package models

// TransactionType is the kind of on-chain operation a draft describes.
type TransactionType string

const (
	TransactionSend TransactionType = "SEND"
	TransactionSwap TransactionType = "SWAP"
)

// Network is one of the canonical EVM networks the wallet can sign for.
type Network string

const (
	NetworkEthereum  Network = "Ethereum Mainnet"
	NetworkSepolia   Network = "Sepolia Testnet"
	NetworkBSC       Network = "Binance Smart Chain"
	NetworkPolygon   Network = "Polygon"
	NetworkAvalanche Network = "Avalanche C-Chain"
)

// Networks lists the canonical networks.
var Networks = []Network{NetworkEthereum, NetworkSepolia, NetworkBSC, NetworkPolygon, NetworkAvalanche}

// Valid reports whether n is canonical.
func (n Network) Valid() bool {
	for _, c := range Networks {
		if n == c {
			return true
		}
	}
	return false
}

// TransactionDraft 交易草稿, 未提供的字段保持 nil, 绝不猜测
type TransactionDraft struct {
	Type        TransactionType `json:"type"`
	Token       string          `json:"token"`
	TargetToken *string         `json:"targetToken"`
	Amount      *float64        `json:"amount"`
	ToAddress   *string         `json:"toAddress"`
	Network     *Network        `json:"network"`
	Summary     string          `json:"summary"`
	Issues      []string        `json:"issues,omitempty"`
}

// MissingFields names the fields the user still has to provide.
func (d *TransactionDraft) MissingFields() []string {
	var missing []string
	if d.Token == "" {
		missing = append(missing, "token")
	}
	if d.Amount == nil {
		missing = append(missing, "amount")
	}
	switch d.Type {
	case TransactionSend:
		if d.ToAddress == nil {
			missing = append(missing, "recipient address")
		}
	case TransactionSwap:
		if d.TargetToken == nil {
			missing = append(missing, "target token")
		}
	}
	if d.Network == nil {
		missing = append(missing, "network")
	}
	return missing
}
