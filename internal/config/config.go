package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	UI       UIConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	CurrencyCode string
	DateFormat   string
	PageSize     int
}

// Load reads configuration from file and env. Env var overrides use prefix
// LEDGERVIEW_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "ledgerview", "ledgerview.db"))
	v.SetDefault("ui.currency_code", "USD")
	v.SetDefault("ui.date_format", "02/01")
	v.SetDefault("ui.page_size", 25)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("LEDGERVIEW_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "ledgerview"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("LEDGERVIEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
