package configs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/songzhibin97/cryptoinsight/internal/models"
	"github.com/songzhibin97/cryptoinsight/internal/risk"
)

const (
	ProviderOpenAI   = "openai"
	ProviderDeepSeek = "deepseek"

	ModeStructured = "structured"
	ModeNarrative  = "narrative"

	defaultLLMTimeout  = 30 * time.Second
	defaultDataTimeout = 8 * time.Second
)

type Config struct {
	// AI 模型参数
	LLM LLMConfig `json:"llm" yaml:"llm"`

	// 行情数据源
	DataSources DataSources `json:"data_sources" yaml:"data_sources"`

	Chat      ChatConfig      `json:"chat" yaml:"chat"`
	Portfolio PortfolioConfig `json:"portfolio" yaml:"portfolio"`

	// 风险控制参数
	RiskParams risk.RiskParameters `json:"risk_parameters" yaml:"risk_params"`

	Wallet WalletConfig `json:"wallet" yaml:"wallet"`
	Log    LogConfig    `json:"log" yaml:"log"`

	Proxy string `json:"proxy" yaml:"proxy"` // HTTP(S) 代理
}

type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider"` // openai / deepseek
	APIKey   string `json:"api_key" yaml:"api_key"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	Model    string `json:"model" yaml:"model"`
	Timeout  string `json:"timeout" yaml:"timeout"` // 例如 30s
}

type DataSources struct {
	CoinGeckoURL      string `json:"coingecko_url" yaml:"coingecko_url"`
	AlternativeURL    string `json:"alternative_url" yaml:"alternative_url"`
	BinanceFuturesURL string `json:"binance_futures_url" yaml:"binance_futures_url"`
	BinanceSpotURL    string `json:"binance_spot_url" yaml:"binance_spot_url"`
	Timeout           string `json:"timeout" yaml:"timeout"` // 单次请求超时, 不重试
}

type ChatConfig struct {
	HistoryLimit int `json:"history_limit" yaml:"history_limit"`
	TitleLength  int `json:"title_length" yaml:"title_length"`
}

type PortfolioConfig struct {
	Mode     string                 `json:"mode" yaml:"mode"` // structured / narrative
	Holdings []models.PortfolioItem `json:"holdings" yaml:"holdings"`
}

type WalletConfig struct {
	RPCURL  string `json:"rpc_url" yaml:"rpc_url"`
	Address string `json:"address" yaml:"address"`
}

type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"` // json / text
}

// DefaultHoldings is the demo profile used when no holdings are configured.
func DefaultHoldings() []models.PortfolioItem {
	return []models.PortfolioItem{
		{Symbol: "BTC", Name: "Bitcoin", Amount: 0.45, AvgPrice: 45000, CurrentPrice: 64200},
		{Symbol: "ETH", Name: "Ethereum", Amount: 5.2, AvgPrice: 2100, CurrentPrice: 3450},
		{Symbol: "SOL", Name: "Solana", Amount: 150, AvgPrice: 45, CurrentPrice: 148},
		{Symbol: "DOT", Name: "Polkadot", Amount: 500, AvgPrice: 8.5, CurrentPrice: 7.2},
	}
}

func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Timeout:  defaultLLMTimeout.String(),
		},
		DataSources: DataSources{
			CoinGeckoURL:      "https://api.coingecko.com/api/v3",
			AlternativeURL:    "https://api.alternative.me",
			BinanceFuturesURL: "https://fapi.binance.com",
			BinanceSpotURL:    "https://api.binance.com",
			Timeout:           defaultDataTimeout.String(),
		},
		Chat:       ChatConfig{HistoryLimit: 10, TitleLength: 30},
		Portfolio:  PortfolioConfig{Mode: ModeStructured, Holdings: DefaultHoldings()},
		RiskParams: risk.DefaultParameters,
		Log:        LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads the config file, then .env and the environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := decode(path, raw, cfg); err != nil {
				return nil, err
			}
		}
	}

	_ = godotenv.Load()
	cfg.loadFromEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, raw []byte, cfg *Config) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, cfg)
	default:
		err = json.Unmarshal(raw, cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLM.Provider = strings.ToLower(val)
	}
	if val := os.Getenv("LLM_MODEL"); val != "" {
		c.LLM.Model = val
	}
	if val := os.Getenv("LLM_BASE_URL"); val != "" {
		c.LLM.BaseURL = val
	}

	// 优先 LLM_API_KEY, 其次按 provider 取对应的 key
	switch {
	case os.Getenv("LLM_API_KEY") != "":
		c.LLM.APIKey = os.Getenv("LLM_API_KEY")
	case c.LLM.APIKey != "":
	case c.LLM.Provider == ProviderDeepSeek:
		c.LLM.APIKey = os.Getenv("DEEPSEEK_API_KEY")
	default:
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if val := os.Getenv("WALLET_RPC_URL"); val != "" {
		c.Wallet.RPCURL = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.LLM.Provider == "" {
		c.LLM.Provider = def.LLM.Provider
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
		if c.LLM.Provider == ProviderDeepSeek {
			c.LLM.Model = "deepseek-chat"
		}
	}
	if c.LLM.Timeout == "" {
		c.LLM.Timeout = def.LLM.Timeout
	}
	if c.DataSources.CoinGeckoURL == "" {
		c.DataSources.CoinGeckoURL = def.DataSources.CoinGeckoURL
	}
	if c.DataSources.AlternativeURL == "" {
		c.DataSources.AlternativeURL = def.DataSources.AlternativeURL
	}
	if c.DataSources.BinanceFuturesURL == "" {
		c.DataSources.BinanceFuturesURL = def.DataSources.BinanceFuturesURL
	}
	if c.DataSources.BinanceSpotURL == "" {
		c.DataSources.BinanceSpotURL = def.DataSources.BinanceSpotURL
	}
	if c.DataSources.Timeout == "" {
		c.DataSources.Timeout = def.DataSources.Timeout
	}
	if c.Chat.HistoryLimit <= 0 {
		c.Chat.HistoryLimit = def.Chat.HistoryLimit
	}
	if c.Chat.TitleLength <= 0 {
		c.Chat.TitleLength = def.Chat.TitleLength
	}
	if c.Portfolio.Mode == "" {
		c.Portfolio.Mode = def.Portfolio.Mode
	}
	if c.RiskParams == (risk.RiskParameters{}) {
		c.RiskParams = def.RiskParams
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderDeepSeek:
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}
	switch c.Portfolio.Mode {
	case ModeStructured, ModeNarrative:
	default:
		return fmt.Errorf("unsupported portfolio mode %q", c.Portfolio.Mode)
	}
	if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
		return fmt.Errorf("invalid llm timeout %q: %w", c.LLM.Timeout, err)
	}
	if _, err := time.ParseDuration(c.DataSources.Timeout); err != nil {
		return fmt.Errorf("invalid data source timeout %q: %w", c.DataSources.Timeout, err)
	}
	return nil
}

// LLMTimeout returns the parsed model call timeout.
func (c *Config) LLMTimeout() time.Duration {
	return parseDuration(c.LLM.Timeout, defaultLLMTimeout)
}

// DataTimeout returns the parsed per fetch timeout.
func (c *Config) DataTimeout() time.Duration {
	return parseDuration(c.DataSources.Timeout, defaultDataTimeout)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.LLM.APIKey != "" {
		cp.LLM.APIKey = "***"
	}
	return cp
}
