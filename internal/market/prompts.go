package market

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/songzhibin97/cryptoinsight/internal/models"
)

const reportPrompt = `You are a senior cryptocurrency market analyst.
Write a "Deep Dive Analysis" based on provided data.

Structure:
- **Market Sentiment & Price Action**: specific comments on chart and Fear & Greed
- **On-Chain & Derivatives**: comments on Long/Short ratio
- **Fundamental Health**: comments on project scores and tokenomics
- **Verdict**: Bullish, Bearish, or Neutral?`

func buildSnapshotPrompt(query string, fetched *models.RealMarketData) string {
	name := query
	symbol := DefaultSymbol
	currentPrice := "Unknown, please estimate"
	history := "Unavailable, please generate realistic data"
	historyRule := "Generate a realistic 7-day \"priceHistory\" ending at today's date."
	priceRule := "Estimate \"currentPrice\" in USD from your knowledge of the project."
	sentiment := "Unavailable, please estimate from 0 to 100"
	sentimentRule := `Estimate "sentimentScore" from 0 to 100.`
	longShort := "Unavailable, please generate realistic 50/50ish data"
	longShortRule := "Generate realistic 50/50ish data, long + short MUST equal 100 for every entry"

	if fetched != nil {
		name = fetched.Coin.Name
		symbol = fetched.Coin.Symbol
		sentiment = fmt.Sprintf("%d", fetched.Sentiment)
		sentimentRule = fmt.Sprintf(`**CRITICAL**: In your JSON output, set "sentimentScore": %d EXACTLY. Do NOT use any other number.`, fetched.Sentiment)
		if fetched.Price != nil {
			currentPrice = fmt.Sprintf("$%v", fetched.Price.CurrentPrice)
			history = mustJSON(fetched.Price.History)
			historyRule = "**CRITICAL**: Copy the priceHistory array EXACTLY as provided: " + history
			priceRule = fmt.Sprintf("**CRITICAL**: Set \"currentPrice\": %v EXACTLY.", fetched.Price.CurrentPrice)
		}
		if fetched.LongShort != nil {
			longShort = mustJSON(fetched.LongShort)
			longShortRule = "Use this exact array: " + longShort
		}
	}

	var b strings.Builder
	b.WriteString("You are a Crypto Data Aggregator.\n")
	b.WriteString("I have fetched REAL-TIME data from external APIs.\n")
	b.WriteString("Your job is to structure this data into the required JSON format and generate the missing pieces (Tokenomics, Project Score) based on your knowledge of the project.\n\n")
	b.WriteString("CRITICAL REAL DATA - DO NOT MODIFY THESE VALUES:\n")
	fmt.Fprintf(&b, "- Coin Name: %s\n", name)
	fmt.Fprintf(&b, "- Symbol: %s\n", symbol)
	fmt.Fprintf(&b, "- Current Price: %s\n", currentPrice)
	fmt.Fprintf(&b, "- Price History (7D): %s\n", history)
	fmt.Fprintf(&b, "- sentimentScore: %s\n", sentiment)
	fmt.Fprintf(&b, "- Long/Short Ratio (Binance): %s\n\n", longShort)
	b.WriteString("INSTRUCTIONS:\n")
	fmt.Fprintf(&b, "1. %s\n", sentimentRule)
	fmt.Fprintf(&b, "2. %s\n", historyRule)
	fmt.Fprintf(&b, "3. %s\n", priceRule)
	fmt.Fprintf(&b, "4. **Generate 'tokenomics'**: MUST be array of objects like [{\"name\": \"Retail Holders\", \"value\": 45}, {\"name\": \"Team/Insiders\", \"value\": 20}, {\"name\": \"Miners/Validators\", \"value\": 35}] summing to 100. Create realistic distribution for %s.\n", name)
	fmt.Fprintf(&b, "5. **Generate 'projectScores'**: MUST be array with exactly 5 items rating %s on %s. Format: [{\"subject\": \"Security\", \"score\": 85, \"fullMark\": 100}, ...].\n", name, strings.Join(models.ProjectScoreSubjects, ", "))
	fmt.Fprintf(&b, "6. **Copy 'longShortRatio'**: %s\n", longShortRule)
	fmt.Fprintf(&b, "7. **Generate 'summary'**: Write a 2-sentence analysis referencing the sentiment score of %s and price trend.\n", sentiment)
	b.WriteString("Respond with JSON only.")
	return b.String()
}

func mustJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(raw)
}
