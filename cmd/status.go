package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show lead counts per status",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, cfg, "status")
		if err != nil {
			return err
		}
		defer env.Close()

		counts, err := env.Store.CountByStatus(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderCounts(counts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
