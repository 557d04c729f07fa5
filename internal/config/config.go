package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"YieldGuardian/internal/model"
)

// TokenConfig describes a stablecoin tracked on the monitored wallet.
type TokenConfig struct {
	Symbol   string `yaml:"symbol"`
	Address  string `yaml:"address"`
	Decimals int    `yaml:"decimals"`
}

// SourceConfig describes a manually configured yield source.
type SourceConfig struct {
	Name         string  `yaml:"name"`
	PrincipalUSD float64 `yaml:"principal_usd"`
	APYPercent   float64 `yaml:"apy_percent"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Wallet struct {
		Address        string `yaml:"address"`
		SafeAddress    string `yaml:"safe_address"`
		ExplorerAPIKey string `yaml:"explorer_api_key"`
	} `yaml:"wallet"`
	Chain struct {
		RPCURL      string        `yaml:"rpc_url"`
		ExplorerAPI string        `yaml:"explorer_api"`
		ExplorerURL string        `yaml:"explorer_url"`
		Tokens      []TokenConfig `yaml:"tokens"`
	} `yaml:"chain"`
	Aave struct {
		Pool         string  `yaml:"pool"`
		AUSDC        string  `yaml:"ausdc"`
		EstimatedAPY float64 `yaml:"estimated_apy"`
	} `yaml:"aave"`
	Ledger struct {
		PrincipalUSD    float64 `yaml:"principal_usd"`
		InitialYieldUSD float64 `yaml:"initial_yield_usd"`
		SpendingMode    string  `yaml:"spending_mode"`
	} `yaml:"ledger"`
	YieldSources []SourceConfig `yaml:"yield_sources"`
	Executor     struct {
		RelayURL    string `yaml:"relay_url"`
		APIKey      string `yaml:"api_key"`
		Destination string `yaml:"destination"`
	} `yaml:"executor"`
	Schedule struct {
		TickCron     string `yaml:"tick_cron"`
		RefreshCron  string `yaml:"refresh_cron"`
		SnapshotCron string `yaml:"snapshot_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("WALLET_ADDRESS"); v != "" {
		cfg.Wallet.Address = v
	}
	if v := os.Getenv("SAFE_ADDRESS"); v != "" {
		cfg.Wallet.SafeAddress = v
	}
	if v := os.Getenv("BASESCAN_API_KEY"); v != "" {
		cfg.Wallet.ExplorerAPIKey = v
	}
	if v := os.Getenv("RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("SPENDING_MODE"); v != "" {
		cfg.Ledger.SpendingMode = v
	}
	if v := os.Getenv("RELAY_URL"); v != "" {
		cfg.Executor.RelayURL = v
	}
	if v := os.Getenv("RELAY_API_KEY"); v != "" {
		cfg.Executor.APIKey = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.Chain.RPCURL == "" {
		cfg.Chain.RPCURL = "https://mainnet.base.org"
	}
	if cfg.Chain.ExplorerAPI == "" {
		cfg.Chain.ExplorerAPI = "https://api.basescan.org/api"
	}
	if cfg.Chain.ExplorerURL == "" {
		cfg.Chain.ExplorerURL = "https://basescan.org"
	}
	if len(cfg.Chain.Tokens) == 0 {
		cfg.Chain.Tokens = []TokenConfig{
			{Symbol: "USDC", Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6},
			{Symbol: "USDbC", Address: "0xd9aAEc86B65D86f6A7B5B1b0c42FFA531710b6CA", Decimals: 6},
			{Symbol: "DAI", Address: "0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb", Decimals: 18},
		}
	}
	if cfg.Aave.Pool == "" {
		cfg.Aave.Pool = "0xA238Dd80C259a72e81d7e4664a9801593F98d1c5"
	}
	if cfg.Aave.AUSDC == "" {
		cfg.Aave.AUSDC = "0x4e65fE4DbA92790696d040ac24Aa414708F5c0AB"
	}
	if cfg.Aave.EstimatedAPY == 0 {
		cfg.Aave.EstimatedAPY = 4.0
	}
	if cfg.Ledger.SpendingMode == "" {
		cfg.Ledger.SpendingMode = string(model.ModeBalanced)
	}
	if cfg.Schedule.TickCron == "" {
		cfg.Schedule.TickCron = "*/30 * * * * *"
	}
	if cfg.Schedule.RefreshCron == "" {
		cfg.Schedule.RefreshCron = "0 0 * * * *"
	}
	if cfg.Schedule.SnapshotCron == "" {
		cfg.Schedule.SnapshotCron = "0 30 * * * *"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/yield_guardian.db"
	}

	return cfg, nil
}

// WatchAddress returns the address the guardian monitors: the Safe if
// configured, otherwise the plain wallet address.
func (c *Config) WatchAddress() string {
	if c.Wallet.SafeAddress != "" {
		return c.Wallet.SafeAddress
	}
	return c.Wallet.Address
}

// Validate checks that all required fields are set and well-formed.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	if c.WatchAddress() == "" {
		return fmt.Errorf("wallet.address or wallet.safe_address is required")
	}
	if _, err := model.ParseSpendingMode(c.Ledger.SpendingMode); err != nil {
		return fmt.Errorf("ledger.spending_mode: %w", err)
	}
	if c.Ledger.PrincipalUSD < 0 {
		return fmt.Errorf("ledger.principal_usd must be non-negative")
	}
	if c.Ledger.InitialYieldUSD < 0 {
		return fmt.Errorf("ledger.initial_yield_usd must be non-negative")
	}
	for _, s := range c.YieldSources {
		if s.Name == "" {
			return fmt.Errorf("yield_sources: name is required")
		}
		if s.PrincipalUSD < 0 || s.APYPercent < 0 {
			return fmt.Errorf("yield_sources %q: principal_usd and apy_percent must be non-negative", s.Name)
		}
	}
	if c.Executor.RelayURL != "" && c.Executor.Destination == "" {
		return fmt.Errorf("executor.destination is required when executor.relay_url is set")
	}
	return nil
}
