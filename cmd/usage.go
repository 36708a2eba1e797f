package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docchat/internal/db"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token usage and estimated cost per model",
	Long:  `Reads the usage ledger configured by usage_db and prints question counts, tokens and estimated cost per model.`,
	RunE:  runUsage,
}

func init() {
	usageCmd.Flags().Duration("since", 0, "only count usage newer than this (e.g. 24h)")
	usageCmd.Flags().Int("recent", 0, "also list the N most recent questions")
	rootCmd.AddCommand(usageCmd)
}

func runUsage(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	since, _ := cmd.Flags().GetDuration("since")
	recent, _ := cmd.Flags().GetInt("recent")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.UsageDB == "" {
		return fmt.Errorf("usage_db is not set in %s; enable it to record usage", cfgFile)
	}

	database, err := db.Open(cfg.UsageDB)
	if err != nil {
		return fmt.Errorf("opening usage ledger: %w", err)
	}
	defer database.Close()
	store := db.NewUsageStore(database)

	var from time.Time
	if since > 0 {
		from = time.Now().Add(-since)
	}
	totals, err := store.Totals(ctx, from)
	if err != nil {
		return err
	}
	if len(totals) == 0 {
		fmt.Println("No usage recorded yet.")
		return nil
	}

	fmt.Printf("  %-24s %9s %12s %12s %10s\n", "Model", "Questions", "Input", "Output", "Cost")
	var cost float64
	for _, t := range totals {
		fmt.Printf("  %-24s %9d %12d %12d %10s\n", t.Model, t.Questions, t.InputTokens, t.OutputTokens, fmt.Sprintf("$%.4f", t.CostUSD))
		cost += t.CostUSD
	}
	fmt.Printf("  %-24s %9s %12s %12s %10s\n", "Total", "", "", "", fmt.Sprintf("$%.4f", cost))

	if recent > 0 {
		events, err := store.Recent(ctx, recent)
		if err != nil {
			return err
		}
		fmt.Println()
		for _, ev := range events {
			target := ev.Document
			if target == "" {
				target = "(general)"
			}
			fmt.Printf("  %s  %-8s %-24s %-16s %6d tokens\n",
				ev.CreatedAt.Local().Format("2006-01-02 15:04"), ev.Mode, truncate(target, 24), ev.Model, ev.InputTokens+ev.OutputTokens)
		}
	}
	return nil
}
