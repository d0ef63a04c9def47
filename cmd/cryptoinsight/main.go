package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/songzhibin97/cryptoinsight/internal/configs"
	"github.com/songzhibin97/cryptoinsight/internal/dispatcher"
	"github.com/songzhibin97/cryptoinsight/internal/portfolio"
	"github.com/songzhibin97/cryptoinsight/internal/utils/logger"
	"github.com/songzhibin97/cryptoinsight/internal/web3"
)

var (
	flagconf string

	log = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelInfo,
	}))
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var app *App

	rootCmd := &cobra.Command{
		Use:          "cryptoinsight",
		Short:        "CryptoInsight - conversational crypto market analysis",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config, err := configs.Load(flagconf)
			if err != nil {
				return err
			}
			log = logger.New(config.Log.Level, config.Log.Format, os.Stderr)
			log.Debug("Loaded config", "config", config.Redacted())

			if config.Proxy != "" {
				_ = os.Setenv("HTTP_PROXY", config.Proxy)
				_ = os.Setenv("HTTPS_PROXY", config.Proxy)
				log.Debug("set proxy ok", "proxy", config.Proxy)
			}

			app, err = NewApp(cmd.Context(), config, log, printStatus)
			return err
		},
	}
	rootCmd.PersistentFlags().StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: --conf config.yaml")

	appFn := func() *App { return app }
	rootCmd.AddCommand(
		newChatCmd(appFn),
		newAnalyzeCmd(appFn),
		newPortfolioCmd(appFn),
		newTxCmd(appFn),
		newChartCmd(appFn),
	)
	return rootCmd
}

func printStatus(s dispatcher.Status) {
	if line := renderStatus(s); line != "" {
		fmt.Println(line)
	}
}

func newChatCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd.Context(), app())
		},
	}
}

const replHelp = `Commands:
  /new                    start a new chat
  /sessions               list chats
  /switch <id>            switch chat (id prefix is enough)
  /delete <id>            delete chat
  /wallet <addr> [eth]    connect a wallet, balance read from RPC when omitted
  /disconnect             disconnect the wallet
  /holdings               show holdings
  /refresh                refresh holding prices
  /quit                   exit`

func runREPL(ctx context.Context, app *App) error {
	for _, msg := range app.sessions.Active().Messages {
		fmt.Println(renderMessage(msg))
	}
	fmt.Println(statusStyle.Render("Type /help for commands."))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := app.command(ctx, line)
			if err != nil {
				fmt.Println(warnStyle.Render(err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		msgs, err := app.dispatcher.Handle(ctx, "", line)
		if err != nil {
			fmt.Println(warnStyle.Render(err.Error()))
			continue
		}
		for _, msg := range msgs {
			fmt.Println(renderMessage(msg))
		}
	}
}

func (a *App) command(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	arg := func(i int) string {
		if len(fields) > i {
			return fields[i]
		}
		return ""
	}

	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Println(replHelp)
	case "/new":
		s := a.sessions.NewSession()
		fmt.Println(renderMessage(s.Messages[0]))
	case "/sessions":
		fmt.Println(renderSessions(a.sessions.List(), a.sessions.Active().ID))
	case "/switch", "/delete":
		id, err := a.resolveSession(arg(1))
		if err != nil {
			return false, err
		}
		if fields[0] == "/delete" {
			if err := a.sessions.Delete(id); err != nil {
				return false, err
			}
			a.assistant.Reset(id)
		} else if _, err := a.sessions.Switch(id); err != nil {
			return false, err
		}
		for _, msg := range a.sessions.Active().Messages {
			fmt.Println(renderMessage(msg))
		}
	case "/wallet":
		balance := -1.0
		if raw := arg(2); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return false, fmt.Errorf("invalid balance %q", raw)
			}
			balance = v
		}
		if err := a.ConnectWallet(ctx, arg(1), balance); err != nil {
			return false, err
		}
		fmt.Println(assistantStyle.Render("Wallet connected: " + a.holdings.WalletAddress()))
	case "/disconnect":
		a.holdings.DisconnectWallet()
		fmt.Println(assistantStyle.Render("Wallet disconnected."))
	case "/holdings":
		fmt.Println(renderHoldings(a.holdings.Items()))
	case "/refresh":
		fmt.Println(renderHoldings(a.holdings.Refresh(ctx, a.refresher)))
	default:
		return false, fmt.Errorf("unknown command %s, try /help", fields[0])
	}
	return false, nil
}

func (a *App) resolveSession(prefix string) (string, error) {
	if prefix == "" {
		return "", errors.New("session id is required")
	}
	var match string
	for _, s := range a.sessions.List() {
		if strings.HasPrefix(s.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("session id %q is ambiguous", prefix)
			}
			match = s.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no session matches %q", prefix)
	}
	return match, nil
}

func newAnalyzeCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze [COIN]",
		Short: "Build the market dashboard and report for a coin",
		Long: `Build the market dashboard for a coin and write the deep dive report.
Example: cryptoinsight analyze solana`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			printStatus(dispatcher.StatusFetchingData)
			snapshot, err := a.market.Analyze(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Println(renderSnapshot(snapshot))

			printStatus(dispatcher.StatusAnalyzing)
			fmt.Println(assistantStyle.Render(a.market.GenerateReport(cmd.Context(), snapshot)))
			return nil
		},
	}
}

func newPortfolioCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Analyze the configured holdings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			refresh, _ := cmd.Flags().GetBool("refresh")
			mode, _ := cmd.Flags().GetString("mode")
			if mode == "" {
				mode = a.config.Portfolio.Mode
			}

			items := a.holdings.Items()
			if refresh {
				items = a.holdings.Refresh(cmd.Context(), a.refresher)
			}

			printStatus(dispatcher.StatusAnalyzingPortfolio)
			if portfolio.Mode(mode) == portfolio.ModeNarrative {
				text, err := a.portfolio.AnalyzeNarrative(cmd.Context(), items)
				if err != nil {
					return err
				}
				fmt.Println(assistantStyle.Render(text))
				return nil
			}

			valuation, err := a.portfolio.AnalyzeStructured(cmd.Context(), items)
			if err != nil {
				return err
			}
			fmt.Println(renderValuation(valuation))
			return nil
		},
	}
	cmd.Flags().Bool("refresh", false, "refresh prices before analyzing")
	cmd.Flags().String("mode", "", "structured or narrative, defaults to the config value")
	return cmd
}

func newTxCmd(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tx [REQUEST]",
		Short: "Draft a SEND or SWAP transaction from plain text",
		Long: `Draft a transaction and, when every field is present, print the unsigned payload.
Example: cryptoinsight tx "Send 0.1 ETH to 0x... on Sepolia"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			printStatus(dispatcher.StatusCreatingTransaction)
			draft, err := a.drafter.Draft(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Println(renderDraft(draft))

			if missing := draft.MissingFields(); len(missing) > 0 {
				fmt.Println(statusStyle.Render("Still needed: " + strings.Join(missing, ", ")))
				return nil
			}
			if assessment, err := a.risk.CheckTransaction(cmd.Context(), draft, a.holdings.Items()); err == nil {
				for _, f := range assessment.RiskFactors {
					fmt.Println(warnStyle.Render("! " + f))
				}
			}

			plan, err := web3.BuildPlan(draft)
			if err != nil {
				fmt.Println(statusStyle.Render(err.Error()))
				return nil
			}
			fmt.Println(renderPlan(plan))
			return nil
		},
	}
}

func newChartCmd(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart [PNG]",
		Short: "Analyze an annotated chart screenshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read chart: %w", err)
			}
			prompt, _ := cmd.Flags().GetString("prompt")
			printStatus(dispatcher.StatusAnalyzing)
			fmt.Println(assistantStyle.Render(app().vision.AnalyzeChart(cmd.Context(), image, prompt)))
			return nil
		},
	}
	cmd.Flags().String("prompt", "What does this setup suggest?", "question about the chart")
	return cmd
}
