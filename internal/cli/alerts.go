package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List recent alert dispatches",
	Long:  `List the most recent alert dispatch attempts and their delivery outcomes.`,
	RunE:  runAlerts,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	alertsCmd.Flags().IntP("limit", "n", 20, "Maximum number of entries to show")
}

func runAlerts(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")

	alertLog, err := initAlertLog(cfg)
	if err != nil {
		return fmt.Errorf("open alert log: %w", err)
	}
	defer alertLog.Close()

	entries, err := alertLog.List(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list alerts: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No alerts dispatched yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TIMESTAMP\tCHAT\tDELIVERED\tREASONS\n")
	for _, e := range entries {
		delivered := "no"
		if e.Delivered {
			delivered = "yes"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n",
			e.Timestamp.Format("2006-01-02 15:04"),
			e.ChatID,
			delivered,
			strings.Join(e.Reasons, "; "),
		)
	}
	w.Flush()

	return nil
}
