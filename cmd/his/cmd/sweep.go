package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired sessions once and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		swept, err := a.sweeper().RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		a.log.Info().Int("swept", swept).Msg("expired sessions removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
