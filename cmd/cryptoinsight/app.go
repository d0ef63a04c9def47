package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/benbjohnson/clock"

	"github.com/songzhibin97/cryptoinsight/internal/ai"
	"github.com/songzhibin97/cryptoinsight/internal/ai/deepseek"
	"github.com/songzhibin97/cryptoinsight/internal/ai/openai"
	"github.com/songzhibin97/cryptoinsight/internal/chat"
	"github.com/songzhibin97/cryptoinsight/internal/configs"
	"github.com/songzhibin97/cryptoinsight/internal/data"
	collectorData "github.com/songzhibin97/cryptoinsight/internal/data/collector"
	"github.com/songzhibin97/cryptoinsight/internal/data/collector/alternative"
	"github.com/songzhibin97/cryptoinsight/internal/data/collector/binance"
	"github.com/songzhibin97/cryptoinsight/internal/data/collector/coingecko"
	"github.com/songzhibin97/cryptoinsight/internal/data/storage"
	"github.com/songzhibin97/cryptoinsight/internal/dispatcher"
	"github.com/songzhibin97/cryptoinsight/internal/intent"
	"github.com/songzhibin97/cryptoinsight/internal/market"
	"github.com/songzhibin97/cryptoinsight/internal/portfolio"
	"github.com/songzhibin97/cryptoinsight/internal/risk"
	"github.com/songzhibin97/cryptoinsight/internal/transaction"
	"github.com/songzhibin97/cryptoinsight/internal/utils/request"
	"github.com/songzhibin97/cryptoinsight/internal/vision"
	"github.com/songzhibin97/cryptoinsight/internal/web3/ethereum"
)

// App 组装所有组件
type App struct {
	config     *configs.Config
	log        *slog.Logger
	market     *market.Aggregator
	portfolio  *portfolio.Analyzer
	holdings   *portfolio.Holdings
	refresher  *portfolio.Refresher
	drafter    *transaction.Drafter
	risk       risk.RiskManager
	assistant  *chat.Assistant
	vision     *vision.Analyzer
	sessions   *storage.MemoryStorage
	dispatcher *dispatcher.Dispatcher
}

func newGenerator(cfg *configs.Config) ai.Generator {
	if cfg.LLM.Provider == configs.ProviderDeepSeek {
		return deepseek.NewGenerator(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL, cfg.LLMTimeout())
	}
	return openai.NewGenerator(openai.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLMTimeout(),
	})
}

func NewApp(ctx context.Context, cfg *configs.Config, log *slog.Logger, onStatus func(dispatcher.Status)) (*App, error) {
	gen := newGenerator(cfg)
	log.Debug("init generator", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	client := request.New(cfg.DataTimeout())
	gecko := coingecko.NewCoinGeckoDataSource(cfg.DataSources.CoinGeckoURL, client)
	history := collectorData.NewMultiSourceHistory([]data.PriceHistorySource{
		gecko,
		binance.NewSpotHistorySource(cfg.DataSources.BinanceSpotURL, cfg.DataTimeout()),
	}, log)
	collector := collectorData.NewMarketCollector(
		history,
		alternative.NewFearGreedSource(cfg.DataSources.AlternativeURL, client),
		binance.NewFuturesDataSource(cfg.DataSources.BinanceFuturesURL, client),
		cfg.DataTimeout(),
		log,
	)
	log.Debug("init collector")

	riskManager := risk.NewBasicRiskManager(risk.DefaultParameters)
	if err := riskManager.SetRiskParameters(ctx, &cfg.RiskParams); err != nil {
		return nil, err
	}
	log.Debug("set risk parameters ok!")

	app := &App{
		config:    cfg,
		log:       log,
		market:    market.NewAggregator(gecko, collector, gen, log),
		portfolio: portfolio.NewAnalyzer(gen, riskManager, log),
		holdings:  portfolio.NewHoldings(cfg.Portfolio.Holdings),
		refresher: portfolio.NewRefresher(gecko, log),
		drafter:   transaction.NewDrafter(gen, log),
		risk:      riskManager,
		assistant: chat.NewAssistant(gen, chat.NewMemory(cfg.Chat.HistoryLimit), log),
		vision:    vision.NewAnalyzer(gen, log),
		sessions:  storage.NewMemoryStorage(clock.New(), cfg.Chat.TitleLength),
	}

	if cfg.Wallet.Address != "" {
		if err := app.ConnectWallet(ctx, cfg.Wallet.Address, -1); err != nil {
			log.Warn("failed to connect configured wallet", "err", err)
		}
	}

	app.dispatcher = dispatcher.New(dispatcher.Options{
		Classifier: intent.NewClassifier(gen, log),
		Market:     app.market,
		Portfolio:  app.portfolio,
		Holdings:   app.holdings,
		Drafter:    app.drafter,
		Chat:       app.assistant,
		Sessions:   app.sessions,
		Risk:       riskManager,
		Mode:       portfolio.Mode(cfg.Portfolio.Mode),
		OnStatus:   onStatus,
		Logger:     log,
	})
	log.Debug("init dispatcher")
	return app, nil
}

// ConnectWallet adds the wallet's ETH to the holdings. A negative balance reads it from the configured RPC.
func (a *App) ConnectWallet(ctx context.Context, address string, balance float64) error {
	if balance < 0 {
		reader, err := ethereum.Dial(ctx, a.config.Wallet.RPCURL)
		if err != nil {
			return err
		}
		defer reader.Close()

		info, err := reader.Wallet(ctx, address)
		if err != nil {
			return err
		}
		return a.holdings.ConnectWallet(info)
	}
	if err := a.holdings.ConnectWallet(portfolio.WalletInfo{Address: address, Balance: balance}); err != nil {
		return fmt.Errorf("failed to connect wallet: %w", err)
	}
	return nil
}
