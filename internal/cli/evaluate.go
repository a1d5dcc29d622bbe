package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/alert"
	"github.com/fundestpuente/SIC25-Sistema-de-Prediccion-de-Calidad-de-Agua-para-Plantas-de-Tratamiento/pkg/notify"
	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate one water sample against the alert rules",
	Long: `Evaluate a model prediction and sample measurements against the safety
rules. With --notify, a triggered alert is also delivered to the paired
Telegram chat and logged.`,
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().String("label", "", "Model label (e.g., POTABLE, NO POTABLE)")
	evaluateCmd.Flags().Float64("confidence", 0, "Model confidence in [0,1]")
	evaluateCmd.Flags().StringSlice("sample", nil, "Sample measurement as name=value (repeatable)")
	evaluateCmd.Flags().Bool("notify", false, "Deliver a triggered alert to the paired chat")
	_ = evaluateCmd.MarkFlagRequired("label")
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	label, _ := cmd.Flags().GetString("label")
	confidence, _ := cmd.Flags().GetFloat64("confidence")
	rawSample, _ := cmd.Flags().GetStringSlice("sample")
	doNotify, _ := cmd.Flags().GetBool("notify")

	sample, err := parseSample(rawSample)
	if err != nil {
		return err
	}

	pred := alert.Prediction{Label: label, Confidence: confidence}
	event := alert.NewEvaluator().Evaluate(pred, sample)

	if !event.Triggered {
		fmt.Println("Sample within safe ranges, no alert.")
		return nil
	}

	fmt.Println("Alert triggered:")
	for _, reason := range event.Reasons {
		fmt.Printf("  - %s\n", reason)
	}

	if !doNotify {
		return nil
	}

	logger := newLogger(cfg)
	pairings := initPairings(cfg)

	recipient, err := pairings.Get()
	if err != nil {
		return fmt.Errorf("no paired chat, send /start to the bot first: %w", err)
	}

	alertLog, err := initAlertLog(cfg)
	if err != nil {
		return fmt.Errorf("open alert log: %w", err)
	}
	defer alertLog.Close()

	dispatcher := notify.NewDispatcher(initTelegram(cfg), alertLog, logger)
	delivered, detail := dispatcher.DispatchEvent(cmd.Context(), event, recipient)
	if !delivered {
		fmt.Printf("Delivery failed: %s\n", detail)
		return nil
	}

	fmt.Printf("Alert delivered to %s (chat %d)\n", recipient.Name, recipient.ChatID)
	return nil
}

// parseSample turns name=value flags into the measurement map.
func parseSample(raw []string) (map[string]float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	sample := make(map[string]float64, len(raw))
	for _, pair := range raw {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid sample %q, expected name=value", pair)
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid sample value %q: %w", pair, err)
		}
		sample[strings.TrimSpace(name)] = parsed
	}
	return sample, nil
}
