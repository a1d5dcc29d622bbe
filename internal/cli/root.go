package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/internal/config"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/chat"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/history"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/pairing"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/telegram"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "sipca",
	Short: "SIPCA - Water quality alerting and assistant service",
	Long: `SIPCA evaluates water quality predictions against safety rules, delivers
alerts to a paired Telegram chat, and answers operator questions through a
multi-provider LLM assistant.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.sipca/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initPairings creates the pairing store from config.
func initPairings(cfg *config.Config) pairing.Store {
	return pairing.NewFileStore(cfg.Pairing.Path)
}

// initAlertLog creates the alert dispatch log from config.
func initAlertLog(cfg *config.Config) (history.Store, error) {
	return history.NewSQLite(cfg.Storage.Path)
}

// initTelegram creates the bot client from config. The client is returned
// even without a token; callers decide whether that disables their feature.
func initTelegram(cfg *config.Config) *telegram.Client {
	return telegram.NewClient(cfg.Telegram.Token, "")
}

// initGateway wires the chat gateway for the configured provider, or returns
// nil when no API key is available.
func initGateway(cfg *config.Config, logger *slog.Logger) (*chat.Gateway, error) {
	if cfg.Chat.APIKey == "" {
		return nil, nil
	}

	catalog := chat.DefaultCatalog()
	if cfg.Chat.CatalogPath != "" {
		loaded, err := chat.LoadCatalog(cfg.Chat.CatalogPath)
		if err != nil {
			return nil, err
		}
		catalog = loaded
	}

	providerCfg, ok := catalog[cfg.Chat.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown chat provider %q", cfg.Chat.Provider)
	}

	completer, err := chat.NewCompleter(cfg.Chat.Provider, cfg.Chat.APIKey, providerCfg)
	if err != nil {
		return nil, err
	}
	return chat.NewGateway(completer, logger), nil
}
