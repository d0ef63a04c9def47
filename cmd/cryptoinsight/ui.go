package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/songzhibin97/cryptoinsight/internal/dispatcher"
	"github.com/songzhibin97/cryptoinsight/internal/models"
	"github.com/songzhibin97/cryptoinsight/internal/portfolio"
	"github.com/songzhibin97/cryptoinsight/internal/web3"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")).Padding(0, 1)
	cardStyle      = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#3B82F6")).Padding(0, 2).Width(80)
	txStyle        = cardStyle.BorderForeground(lipgloss.Color("#F59E0B"))
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
)

var statusText = map[dispatcher.Status]string{
	dispatcher.StatusThinking:            "Thinking...",
	dispatcher.StatusFetchingData:        "Fetching market data...",
	dispatcher.StatusAnalyzing:           "Writing the report...",
	dispatcher.StatusAnalyzingPortfolio:  "Analyzing your portfolio...",
	dispatcher.StatusCreatingTransaction: "Preparing the transaction...",
}

func renderStatus(s dispatcher.Status) string {
	text, ok := statusText[s]
	if !ok {
		return ""
	}
	return statusStyle.Render(text)
}

func renderMessage(msg models.ChatMessage) string {
	switch {
	case msg.Snapshot != nil:
		return renderSnapshot(msg.Snapshot)
	case msg.Portfolio != nil:
		return renderValuation(msg.Portfolio)
	case msg.Transaction != nil:
		return assistantStyle.Render(msg.Text) + "\n" + renderDraft(msg.Transaction)
	case msg.Role == models.RoleUser:
		return "> " + msg.Text
	default:
		return assistantStyle.Render(msg.Text)
	}
}

func renderSnapshot(s *models.MarketSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(fmt.Sprintf("%s (%s)  $%.2f", s.CoinName, s.Symbol, s.CurrentPrice)))
	fmt.Fprintf(&b, "Sentiment: %d/100\n", s.SentimentScore)

	prices := make([]string, 0, len(s.PriceHistory))
	for _, p := range s.PriceHistory {
		prices = append(prices, fmt.Sprintf("%s $%.2f", p.Time, p.Price))
	}
	fmt.Fprintf(&b, "7d: %s\n", strings.Join(prices, " | "))

	if n := len(s.LongShortRatio); n > 0 {
		last := s.LongShortRatio[n-1]
		fmt.Fprintf(&b, "Long/Short (%s): %.1f%% / %.1f%%\n", last.Time, last.Long, last.Short)
	}

	scores := make([]string, 0, len(s.ProjectScores))
	for _, p := range s.ProjectScores {
		scores = append(scores, fmt.Sprintf("%s %.0f", p.Subject, p.Score))
	}
	fmt.Fprintf(&b, "Scores: %s\n", strings.Join(scores, ", "))

	shares := make([]string, 0, len(s.Tokenomics))
	for _, t := range s.Tokenomics {
		shares = append(shares, fmt.Sprintf("%s %.1f%%", t.Name, t.Percentage))
	}
	fmt.Fprintf(&b, "Tokenomics: %s\n\n%s", strings.Join(shares, ", "), s.Summary)
	return cardStyle.Render(b.String())
}

func renderValuation(v *models.PortfolioValuation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(fmt.Sprintf("Portfolio  $%.2f", v.TotalValue)))
	for _, p := range v.Positions {
		style := gainStyle
		if p.PnLPercent < 0 {
			style = lossStyle
		}
		pnl := style.Render(fmt.Sprintf("%+.2f%%", p.PnLPercent))
		if !p.CostBasisKnown {
			pnl = statusStyle.Render("n/a")
		}
		fmt.Fprintf(&b, "%-20s $%12.2f  %6.2f%%  %s\n", p.Asset, p.CurrentValue, p.Allocation, pnl)
	}
	if v.RiskAnalysis != "" {
		fmt.Fprintf(&b, "\n%s\n", v.RiskAnalysis)
	}
	for _, f := range v.RiskFactors {
		fmt.Fprintf(&b, "%s %s\n", warnStyle.Render("!"), f)
	}
	for _, s := range v.RebalancingSuggestions {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func renderDraft(d *models.TransactionDraft) string {
	missing := statusStyle.Render("missing")
	field := func(s *string) string {
		if s == nil {
			return missing
		}
		return *s
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(string(d.Type)))
	fmt.Fprintf(&b, "Token:   %s\n", orMissing(d.Token, missing))
	if d.Type == models.TransactionSwap {
		fmt.Fprintf(&b, "Target:  %s\n", field(d.TargetToken))
	}
	amount := missing
	if d.Amount != nil {
		amount = fmt.Sprintf("%g", *d.Amount)
	}
	fmt.Fprintf(&b, "Amount:  %s\n", amount)
	if d.Type == models.TransactionSend {
		fmt.Fprintf(&b, "To:      %s\n", field(d.ToAddress))
	}
	network := missing
	if d.Network != nil {
		network = string(*d.Network)
		if chain, ok := web3.ChainFor(*d.Network); ok {
			network += fmt.Sprintf(" (chain %s)", chain.ChainID)
		}
	}
	fmt.Fprintf(&b, "Network: %s\n", network)
	fmt.Fprintf(&b, "\n%s", d.Summary)
	for _, issue := range d.Issues {
		fmt.Fprintf(&b, "\n%s %s", warnStyle.Render("!"), issue)
	}
	return txStyle.Render(b.String())
}

func renderPlan(p *web3.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render("Unsigned transaction"))
	fmt.Fprintf(&b, "Chain:  %s (%s)\n", p.Chain.Name, p.Chain.ChainID)
	fmt.Fprintf(&b, "To:     %s\n", p.To.Hex())
	fmt.Fprintf(&b, "Value:  %s wei\n", p.Value.String())
	if len(p.Data) > 0 {
		fmt.Fprintf(&b, "Data:   0x%x\n", p.Data)
	}
	fmt.Fprintf(&b, "Token:  %s", p.Token)
	return txStyle.Render(b.String())
}

func renderHoldings(items []models.PortfolioItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%-20s %12g @ $%.2f\n", portfolio.AssetLabel(item), item.Amount, item.CurrentPrice)
	}
	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func renderSessions(sessions []models.ChatSession, activeID string) string {
	var b strings.Builder
	for _, s := range sessions {
		marker := " "
		if s.ID == activeID {
			marker = "*"
		}
		fmt.Fprintf(&b, "%s %s  %s  (%d messages)\n", marker, s.ID[:8], s.Title, len(s.Messages))
	}
	return strings.TrimRight(b.String(), "\n")
}

func orMissing(s, missing string) string {
	if s == "" {
		return missing
	}
	return s
}
