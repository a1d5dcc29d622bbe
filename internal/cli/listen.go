package cli

import (
	"os/signal"
	"syscall"

	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/telegram"
	"github.com/spf13/cobra"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Run the Telegram pairing listener in the foreground",
	Long: `Long-polls the bot update stream and registers whoever sends /start as the
active alert recipient. Runs until interrupted.`,
	RunE: runListen,
}

func init() {
	rootCmd.AddCommand(listenCmd)
}

func runListen(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	client := initTelegram(cfg)
	pairings := initPairings(cfg)

	listener := telegram.NewListener(client, pairings, logger)
	listener.PollTimeout = cfg.Telegram.PollTimeout

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return listener.Run(ctx)
}
