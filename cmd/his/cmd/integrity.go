package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Report cycles in the service dependency graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		store, _ := a.entitlements()
		cycles, err := store.CheckIntegrity(ctx)
		if err != nil {
			return err
		}
		for _, c := range cycles {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(c, " -> "))
		}
		if len(cycles) > 0 {
			return fmt.Errorf("%d dependency cycle(s) found", len(cycles))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(integrityCmd)
}
