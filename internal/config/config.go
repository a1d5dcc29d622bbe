package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all SIPCA service configuration.
type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Pairing  PairingConfig  `mapstructure:"pairing"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// TelegramConfig defines the alert bot settings.
type TelegramConfig struct {
	Token       string `mapstructure:"token"`
	PollTimeout int    `mapstructure:"poll_timeout"`
}

// PairingConfig defines where the chat pairing file lives.
type PairingConfig struct {
	Path string `mapstructure:"path"`
}

// StorageConfig defines the alert history database settings.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// ChatConfig defines assistant provider settings.
type ChatConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	CatalogPath string `mapstructure:"catalog_path"`
}

// ServerConfig defines HTTP server settings.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("find home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".sipca"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	home, _ := os.UserHomeDir()
	v.SetDefault("telegram.poll_timeout", 50)
	v.SetDefault("pairing.path", "telegram_connection.json")
	v.SetDefault("storage.path", filepath.Join(home, ".sipca", "alerts.db"))
	v.SetDefault("chat.provider", "openrouter")
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Environment variables
	v.SetEnvPrefix("SIPCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// The bot token and provider keys normally arrive via the environment,
	// matching the deployment's .env file.
	if cfg.Telegram.Token == "" {
		cfg.Telegram.Token = os.Getenv("TELEGRAM_TOKEN")
	}
	if cfg.Chat.APIKey == "" {
		cfg.Chat.APIKey = providerKeyFromEnv(cfg.Chat.Provider)
	}

	return &cfg, nil
}

// providerKeyFromEnv resolves the API key for the configured provider from
// its conventional environment variable.
func providerKeyFromEnv(provider string) string {
	switch provider {
	case "openrouter":
		return os.Getenv("OPENROUTER_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}
