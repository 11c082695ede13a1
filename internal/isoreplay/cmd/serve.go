package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	replayhttp "github.com/wrale/isoreplay/internal/isoreplay/http"
	"github.com/wrale/isoreplay/internal/isoreplay/ratelimit"
)

func newServeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the replay API over HTTP",
		Long: `Provision the tables and serve the replay API. Each POST to
/api/v1alpha1/replays replays the posted test-case file and answers with its
histories; stored results are listed under /api/v1alpha1/results.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := o.cfg
			logger := o.logger

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.prepare(ctx); err != nil {
				return err
			}

			opts := []replayhttp.Option{replayhttp.WithResetter(a.schema)}
			if cfg.Server.ReplayRateLimit > 0 {
				limit := ratelimit.Limit{Rate: cfg.Server.ReplayRateLimit, Period: cfg.Server.ReplayRatePeriod}
				opts = append(opts, replayhttp.WithReplayMiddleware(
					ratelimit.Middleware(a.limitStore(cfg), "replay", limit, logger),
				))
			}

			handler := replayhttp.NewHandler(a.engine, a.store, logger, opts...)
			server := &http.Server{
				Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
				Handler:      handler.Router(),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				IdleTimeout:  cfg.Server.IdleTimeout,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info().
					Str("host", cfg.Server.Host).
					Int("port", cfg.Server.Port).
					Msg("starting server")

				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(shutdown)

			select {
			case err, ok := <-errCh:
				if ok {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			case <-shutdown:
			}

			logger.Info().Msg("shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown error")
			}

			if err := a.schema.Reset(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("error resetting tables")
			}

			logger.Info().Msg("server stopped")
			return nil
		},
	}
}
