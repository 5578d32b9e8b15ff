// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type Config struct {
	Network         string            `mapstructure:"network"`
	Endpoints       map[string]string `mapstructure:"endpoints"`
	ModuleAddress   string            `mapstructure:"module_address"`
	TreasuryAddress string            `mapstructure:"treasury_address"`
	WalletsFile     string            `mapstructure:"wallets_file"`
	WalletBridgeURL string            `mapstructure:"wallet_bridge_url"`
	BatchWidth      int               `mapstructure:"batch_width"`
	RefreshDelay    int               `mapstructure:"refresh_delay"`
	StaleDelay      int               `mapstructure:"stale_delay"`
	RefetchOnFocus  bool              `mapstructure:"refetch_on_focus"`
	ConfirmTimeout  int               `mapstructure:"confirm_timeout"`
	SweepBudget     uint64            `mapstructure:"sweep_budget"`
	SweepDelay      int               `mapstructure:"sweep_delay"`
	BurnAmount      uint64            `mapstructure:"burn_amount"`
	MetricsAddr     string            `mapstructure:"metrics_addr"`
	DebugLogging    bool              `mapstructure:"debug_logging"`
}

// Delays are milliseconds; amounts are in the ledger's smallest unit
// (8 implied decimal places).
const (
	DefaultBatchWidth     = 10
	DefaultRefreshDelay   = 15000
	DefaultStaleDelay     = 10000
	DefaultConfirmTimeout = 30000
	DefaultSweepDelay     = 60000
)

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"network":          "testnet",
		"batch_width":      DefaultBatchWidth,
		"refresh_delay":    DefaultRefreshDelay,
		"stale_delay":      DefaultStaleDelay,
		"refetch_on_focus": true,
		"confirm_timeout":  DefaultConfirmTimeout,
		"sweep_delay":      DefaultSweepDelay,
		"metrics_addr":     ":9090",
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

// Endpoint returns the fullnode URL for the configured network.
func (c *Config) Endpoint() (string, error) {
	endpoint, ok := c.Endpoints[c.Network]
	if !ok || endpoint == "" {
		return "", errors.New("no endpoint configured for network " + c.Network)
	}
	return endpoint, nil
}

func validateConfig(cfg *Config) error {
	if cfg.ModuleAddress == "" {
		return errors.New("missing module_address in configuration")
	}
	if cfg.TreasuryAddress == "" {
		return errors.New("missing treasury_address in configuration")
	}
	if len(cfg.Endpoints) == 0 {
		return errors.New("endpoints map is empty")
	}
	if _, err := cfg.Endpoint(); err != nil {
		return err
	}
	for _, endpoint := range cfg.Endpoints {
		if err := validateURLWithCache(endpoint, "http"); err != nil {
			return errors.New("invalid endpoint URL protocol")
		}
	}
	if cfg.SweepBudget > 0 && cfg.WalletBridgeURL == "" {
		return errors.New("sweep_budget set but wallet_bridge_url missing")
	}
	if cfg.WalletBridgeURL != "" {
		if err := validateURLWithCache(cfg.WalletBridgeURL, "http"); err != nil {
			return errors.New("invalid wallet_bridge_url protocol")
		}
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.BatchWidth <= 0 {
		return errors.New("invalid batch_width")
	}
	if cfg.RefreshDelay <= 0 {
		return errors.New("invalid refresh_delay")
	}
	if cfg.StaleDelay <= 0 {
		return errors.New("invalid stale_delay")
	}
	if cfg.ConfirmTimeout <= 0 {
		return errors.New("invalid confirm_timeout")
	}
	if cfg.SweepDelay <= 0 {
		return errors.New("invalid sweep_delay")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("FLOORBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envNetwork := v.GetString("NETWORK")
	if envNetwork != "" {
		cfg.Network = envNetwork
	}

	envModule := v.GetString("MODULE_ADDRESS")
	if envModule != "" {
		cfg.ModuleAddress = envModule
	}

	envTreasury := v.GetString("TREASURY_ADDRESS")
	if envTreasury != "" {
		cfg.TreasuryAddress = envTreasury
	}
	return nil
}
