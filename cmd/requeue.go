package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/pipeline"
)

var requeueCmd = &cobra.Command{
	Use:   "requeue [lead-id...]",
	Short: "Move FAILED leads back to MESSAGED for another delivery attempt",
	Long:  "Moves the given FAILED leads, or every FAILED lead when no id is given, back to MESSAGED and clears their dead letters. Pipeline runs never do this on their own.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, cfg, "requeue")
		if err != nil {
			return err
		}
		defer env.Close()

		lock, err := pipeline.AcquireLock(cfg.Pipeline.LockPath)
		if err != nil {
			return err
		}
		defer lock.Release() //nolint:errcheck

		n, err := env.Store.RequeueFailed(ctx, args)
		if err != nil {
			return err
		}
		zap.L().Info("leads requeued", zap.Int("count", n))
		fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d lead(s)\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(requeueCmd)
}
