// Package web3 describes the EVM networks a draft can target and turns complete drafts
// into unsigned transfer plans for an external wallet.
package web3

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/songzhibin97/cryptoinsight/internal/models"
)

// Chain is the wallet facing description of one network.
type Chain struct {
	Network      models.Network
	ChainID      string // hex, as wallet_switchEthereumChain expects
	Name         string
	RPCURL       string
	NativeName   string
	NativeSymbol string
	Decimals     uint8
	Explorer     string
}

// ChainIDBig parses the hex chain id.
func (c Chain) ChainIDBig() *big.Int {
	id, _ := new(big.Int).SetString(strings.TrimPrefix(c.ChainID, "0x"), 16)
	return id
}

var chains = map[models.Network]Chain{
	models.NetworkEthereum: {
		Network: models.NetworkEthereum, ChainID: "0x1", Name: "Ethereum Mainnet",
		RPCURL: "https://mainnet.infura.io/v3/", NativeName: "Ether", NativeSymbol: "ETH", Decimals: 18,
		Explorer: "https://etherscan.io",
	},
	models.NetworkSepolia: {
		Network: models.NetworkSepolia, ChainID: "0xaa36a7", Name: "Sepolia Testnet",
		RPCURL: "https://rpc.sepolia.org", NativeName: "Sepolia Ether", NativeSymbol: "SEP", Decimals: 18,
		Explorer: "https://sepolia.etherscan.io",
	},
	models.NetworkBSC: {
		Network: models.NetworkBSC, ChainID: "0x38", Name: "Binance Smart Chain",
		RPCURL: "https://bsc-dataseed.binance.org/", NativeName: "BNB", NativeSymbol: "BNB", Decimals: 18,
		Explorer: "https://bscscan.com",
	},
	models.NetworkPolygon: {
		Network: models.NetworkPolygon, ChainID: "0x89", Name: "Polygon Mainnet",
		RPCURL: "https://polygon-rpc.com/", NativeName: "MATIC", NativeSymbol: "MATIC", Decimals: 18,
		Explorer: "https://polygonscan.com",
	},
	models.NetworkAvalanche: {
		Network: models.NetworkAvalanche, ChainID: "0xa86a", Name: "Avalanche C-Chain",
		RPCURL: "https://api.avax.network/ext/bc/C/rpc", NativeName: "AVAX", NativeSymbol: "AVAX", Decimals: 18,
		Explorer: "https://snowtrace.io",
	},
}

// ChainFor returns the chain of a canonical network.
func ChainFor(network models.Network) (Chain, bool) {
	c, ok := chains[network]
	return c, ok
}

// Token is an ERC20 contract on one network.
type Token struct {
	Symbol   string
	Address  common.Address
	Decimals uint8
}

var tokens = map[models.Network]map[string]Token{
	models.NetworkBSC: {
		"ETH":  {Symbol: "ETH", Address: common.HexToAddress("0x2170Ed081Fd40655d751827c5aF1d1Fe0E00f608"), Decimals: 18},
		"USDT": {Symbol: "USDT", Address: common.HexToAddress("0x55d398326f99059fF775485246999027B3197955"), Decimals: 18},
		"USDC": {Symbol: "USDC", Address: common.HexToAddress("0x8AC76a51cc950d9822D68b83fE1Ad97B32Cd580d"), Decimals: 18},
	},
	models.NetworkEthereum: {
		"USDT": {Symbol: "USDT", Address: common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7"), Decimals: 6},
		"USDC": {Symbol: "USDC", Address: common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"), Decimals: 6},
	},
	models.NetworkPolygon: {
		"USDT": {Symbol: "USDT", Address: common.HexToAddress("0xc2132D05D31c914a87C6611C10748AEb04B58e8F"), Decimals: 6},
		"WETH": {Symbol: "WETH", Address: common.HexToAddress("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619"), Decimals: 18},
	},
}

// TokenFor looks up an ERC20 token by symbol on a network.
func TokenFor(network models.Network, symbol string) (Token, bool) {
	t, ok := tokens[network][strings.ToUpper(symbol)]
	return t, ok
}
