package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/config"
)

var (
	enrichMode   string
	deliveryMode string
	batchSize    int
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich NEW leads with persona, pain points and buying triggers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStageCommand(cmd, stageEnrich)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate outreach messages for ENRICHED leads",
	Long:  "Generates two emails and two LinkedIn messages per lead. Uses the configured AI provider when available, templates otherwise.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStageCommand(cmd, stageGenerate)
	},
}

var deliverCmd = &cobra.Command{
	Use:   "deliver",
	Short: "Send the primary email for MESSAGED leads",
	Long: "Sends the primary email with retries and rate limiting in live mode. Dry-run mode only logs what would be sent.\n\n" +
		"Live sends are committed one lead at a time regardless of --batch-size. Delivery is at-least-once: " +
		"if the process dies between a send and its commit, that one lead is sent again on the next run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStageCommand(cmd, stageDeliver)
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run enrichment, generation and delivery in order",
	Long: "Runs enrichment, generation and delivery in order. --batch-size applies to enrichment and generation; " +
		"live delivery always commits one lead at a time and is at-least-once (see deliver --help).",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStageCommand(cmd, stageAll)
	},
}

// applyStageFlags copies explicitly set flags over the loaded config.
func applyStageFlags(cmd *cobra.Command, c *config.Config) {
	if f := cmd.Flags().Lookup("enrich-mode"); f != nil && f.Changed {
		c.Enrichment.Mode = enrichMode
	}
	if f := cmd.Flags().Lookup("delivery-mode"); f != nil && f.Changed {
		c.Delivery.Mode = deliveryMode
	}
	if f := cmd.Flags().Lookup("batch-size"); f != nil && f.Changed {
		c.Store.BatchSize = batchSize
	}
}

func runStageCommand(cmd *cobra.Command, name string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	applyStageFlags(cmd, cfg)
	mode := name
	if name == stageAll {
		mode = "run"
	}

	env, err := initEnv(ctx, cfg, mode)
	if err != nil {
		return err
	}
	defer env.Close()

	reports, err := env.runLocked(ctx, name)
	if len(reports) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), renderReports(reports))
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			zap.L().Warn("run interrupted; committed leads keep their new status")
		}
		return err
	}
	return nil
}

func init() {
	enrichCmd.Flags().StringVar(&enrichMode, "enrich-mode", "", "enrichment mode: offline or ai (default from config)")
	deliverCmd.Flags().StringVar(&deliveryMode, "delivery-mode", "", "delivery mode: dry_run or live (default from config)")
	runCmd.Flags().StringVar(&enrichMode, "enrich-mode", "", "enrichment mode: offline or ai (default from config)")
	runCmd.Flags().StringVar(&deliveryMode, "delivery-mode", "", "delivery mode: dry_run or live (default from config)")

	for _, c := range []*cobra.Command{enrichCmd, generateCmd, deliverCmd, runCmd} {
		c.Flags().IntVar(&batchSize, "batch-size", 0, "transitions committed per transaction (default from config)")
		rootCmd.AddCommand(c)
	}
}
