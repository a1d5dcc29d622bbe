package cli

import (
	"errors"
	"fmt"

	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/pairing"
	"github.com/spf13/cobra"
)

var pairingCmd = &cobra.Command{
	Use:   "pairing",
	Short: "Show the currently paired Telegram chat",
	RunE:  runPairing,
}

func init() {
	rootCmd.AddCommand(pairingCmd)
}

func runPairing(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	record, err := initPairings(cfg).Get()
	if errors.Is(err, pairing.ErrNotPaired) {
		fmt.Println("No chat paired. Send /start to the bot to register one.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Paired chat:\n")
	fmt.Printf("  Chat ID:  %d\n", record.ChatID)
	fmt.Printf("  Name:     %s\n", record.Name)
	fmt.Printf("  Username: %s\n", record.Username)
	return nil
}
