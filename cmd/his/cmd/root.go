package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/cobra"

	"github.com/homeinfo/his/internal/pkg/config"
	"github.com/homeinfo/his/pkg/logger"
)

const appName = "his"

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "HOMEINFO integrated services: sessions and service entitlements",
	Long: `his authenticates accounts, issues short-lived sessions and decides
which services an account may use. Configuration is read from the environment.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWith(cmd.Context(), envconfig.OsLookuper())
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		level := cfg.LogLevel
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			level = "debug"
		}
		logger.Init(logger.Options{
			Level:   level,
			Pretty:  cfg.Development(),
			Service: appName + "-" + cmd.Name(),
		})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (env: LOG_LEVEL)")
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func banner(subtitle string) {
	figure.NewFigure(appName, "cybermedium", true).Print()
	fmt.Println(subtitle)
	fmt.Println()
}
