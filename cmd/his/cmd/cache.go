package cmd

import (
	"github.com/spf13/cobra"

	infrahttp "github.com/homeinfo/his/internal/infrastructure/http"
	"github.com/homeinfo/his/pkg/logger"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Start the session cache authority",
	Long: `Serves the in-process session cache on CACHE_PORT for API nodes
configured with SESSION_CACHE_URL. Token routes require an HS256 bearer
signed with SESSION_CACHE_SECRET when it is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cfg.Development() {
			banner("session cache authority")
		}
		if cfg.Session.CacheSecret == "" {
			log := logger.Get()
			log.Warn().Msg("SESSION_CACHE_SECRET is empty, cache routes are unauthenticated")
		}

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		e := infrahttp.NewCacheRouter(infrahttp.CacheRouterConfig{
			Cache:  a.local,
			Secret: cfg.Session.CacheSecret,
			Checks: a.checks(),
			Log:    a.log,
		})

		a.startBackground(ctx)
		return a.listen(ctx, e, cfg.CachePort)
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
}
