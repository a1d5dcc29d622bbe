package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/chat"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the water quality assistant a question",
	Long: `Send one question to the configured LLM provider and print the reply.
The provider and API key come from the config or environment.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringP("provider", "p", "", "Chat provider (default from config)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
		cfg.Chat.Provider = provider
	}

	logger := newLogger(cfg)
	gateway, err := initGateway(cfg, logger)
	if err != nil {
		return err
	}
	if gateway == nil {
		return errors.New("no API key configured for the chat provider")
	}

	session := &chat.Session{Provider: gateway.Provider()}
	question := strings.Join(args, " ")

	reply, err := gateway.Reply(cmd.Context(), session, question)
	if err != nil {
		fmt.Println(chat.UserMessage(err))
		return err
	}

	fmt.Println(reply)
	return nil
}
