package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/homeinfo/his/internal/api"
	"github.com/homeinfo/his/internal/core/service"
	"github.com/homeinfo/his/internal/infrastructure/credentials"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the public session and entitlement API",
	Long: `Starts the HTTP API on PORT. Sessions are cached in-process unless
SESSION_CACHE_URL points at a cache authority started with "his cache".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if cfg.Development() {
			banner("session & entitlement API")
		}

		a, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		store, entitlements := a.entitlements()
		a.checkIntegrity(ctx, store)

		sessions := service.NewSessionService(
			a.sessions, a.cache, a.accounts, credentials.NewVerifier(cfg.BcryptCost), a.log)
		resolver := service.NewContextResolver(a.cache, a.accounts, a.accounts.Customers())

		e := api.NewRouter(api.Deps{
			Sessions:     sessions,
			Entitlements: entitlements,
			Resolver:     resolver,
			Checks:       a.checks(),
			Log:          a.log,
		})

		a.startBackground(ctx)
		return a.listen(ctx, e, cfg.Port)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// listen serves e on port until ctx is cancelled, then shuts it down
// gracefully.
func (a *app) listen(ctx context.Context, e *echo.Echo, port string) error {
	serverErrors := make(chan error, 1)
	go func() {
		a.log.Info().Str("port", port).Msg("server listening")
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		_ = e.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	a.log.Info().Msg("server stopped")
	return nil
}
