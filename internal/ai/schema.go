package ai

import "github.com/sashabaranov/go-openai/jsonschema"

// IntentSchema shapes the classifier reply.
var IntentSchema = &jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"type": {
			Type: jsonschema.String,
			Enum: []string{"ANALYZE", "PORTFOLIO_ANALYSIS", "TRANSACTION", "CHAT"},
		},
		"coinName": {Type: jsonschema.String},
	},
	Required: []string{"type"},
}

// MarketSnapshotSchema shapes the dashboard generation reply.
var MarketSnapshotSchema = &jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"coinName":     {Type: jsonschema.String, Description: "Name of the cryptocurrency"},
		"symbol":       {Type: jsonschema.String, Description: "Ticker symbol (e.g. BTC, ETH)"},
		"currentPrice": {Type: jsonschema.Number, Description: "Current price in USD"},
		"summary":      {Type: jsonschema.String, Description: "A brief analytical summary based on the provided real data."},
		"priceHistory": {
			Type: jsonschema.Array,
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"time":  {Type: jsonschema.String},
					"price": {Type: jsonschema.Number},
				},
			},
		},
		"tokenomics": {
			Type: jsonschema.Array,
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"name":  {Type: jsonschema.String},
					"value": {Type: jsonschema.Number},
				},
			},
		},
		"sentimentScore": {Type: jsonschema.Number},
		"longShortRatio": {
			Type: jsonschema.Array,
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"time":  {Type: jsonschema.String},
					"long":  {Type: jsonschema.Number},
					"short": {Type: jsonschema.Number},
				},
			},
		},
		"projectScores": {
			Type: jsonschema.Array,
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"subject":  {Type: jsonschema.String},
					"score":    {Type: jsonschema.Number},
					"fullMark": {Type: jsonschema.Number},
				},
			},
		},
	},
	Required: []string{"coinName", "symbol", "currentPrice", "summary", "priceHistory", "tokenomics", "sentimentScore", "longShortRatio", "projectScores"},
}

// TransactionSchema shapes the drafter reply. Only type and summary are required.
var TransactionSchema = &jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"type":        {Type: jsonschema.String, Enum: []string{"SEND", "SWAP"}},
		"token":       {Type: jsonschema.String},
		"targetToken": {Type: jsonschema.String},
		"amount":      {Type: jsonschema.Number},
		"toAddress":   {Type: jsonschema.String},
		"network":     {Type: jsonschema.String},
		"summary":     {Type: jsonschema.String},
	},
	Required: []string{"type", "summary"},
}

// PortfolioSchema shapes the structured portfolio reply.
var PortfolioSchema = &jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"totalValue": {Type: jsonschema.Number},
		"positions": {
			Type: jsonschema.Array,
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"asset":        {Type: jsonschema.String},
					"amount":       {Type: jsonschema.Number},
					"avgPrice":     {Type: jsonschema.Number},
					"currentPrice": {Type: jsonschema.Number},
					"currentValue": {Type: jsonschema.Number},
					"pnlPercent":   {Type: jsonschema.Number},
					"allocation":   {Type: jsonschema.Number},
				},
			},
		},
		"riskAnalysis":           {Type: jsonschema.String},
		"rebalancingSuggestions": {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}},
	},
	Required: []string{"totalValue", "positions", "riskAnalysis", "rebalancingSuggestions"},
}
