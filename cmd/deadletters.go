package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deadLetterLimit int

var deadLettersCmd = &cobra.Command{
	Use:   "dead-letters",
	Short: "List leads whose delivery exhausted its retries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, cfg, "dead-letters")
		if err != nil {
			return err
		}
		defer env.Close()

		dls, err := env.Store.ListDeadLetters(ctx, deadLetterLimit)
		if err != nil {
			return err
		}
		if len(dls) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No dead letters.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderDeadLetters(dls))
		return nil
	},
}

func init() {
	deadLettersCmd.Flags().IntVar(&deadLetterLimit, "limit", 50, "maximum entries to show")
	rootCmd.AddCommand(deadLettersCmd)
}
