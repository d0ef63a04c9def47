package transaction

import (
	"strings"

	"github.com/songzhibin97/cryptoinsight/internal/models"
)

// networkSynonyms maps lower cased names to canonical networks.
var networkSynonyms = map[string]models.Network{
	"ethereum mainnet":    models.NetworkEthereum,
	"ethereum":            models.NetworkEthereum,
	"eth":                 models.NetworkEthereum,
	"mainnet":             models.NetworkEthereum,
	"sepolia testnet":     models.NetworkSepolia,
	"sepolia":             models.NetworkSepolia,
	"testnet":             models.NetworkSepolia,
	"binance smart chain": models.NetworkBSC,
	"bsc":                 models.NetworkBSC,
	"bnb chain":           models.NetworkBSC,
	"bnb smart chain":     models.NetworkBSC,
	"binance":             models.NetworkBSC,
	"polygon":             models.NetworkPolygon,
	"polygon pos":         models.NetworkPolygon,
	"matic":               models.NetworkPolygon,
	"avalanche c-chain":   models.NetworkAvalanche,
	"avalanche":           models.NetworkAvalanche,
	"avax":                models.NetworkAvalanche,
}

// NormalizeNetwork maps a network name or synonym to a canonical network.
func NormalizeNetwork(name string) (models.Network, bool) {
	key := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	n, ok := networkSynonyms[key]
	return n, ok
}
