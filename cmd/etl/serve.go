package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/bird-observation-etl/internal/adapter/http"
	"github.com/couchcryptid/bird-observation-etl/internal/report"
)

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, metrics, and the report API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.String("http-addr", "", "listen address")
	flags.Int("report-cache-size", 0, "cached report results")
	flags.Duration("report-cache-ttl", 0, "report cache entry lifetime")
	bindFlags(a.v, flags)

	return cmd
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	metrics := a.newMetrics()

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	svc := report.NewService(store, store.Dialect(), store.Table(), metrics, a.logger)
	runner := report.NewCachedRunner(svc, cfg.ReportCacheSize, cfg.ReportCacheTTL, clockwork.NewRealClock(), metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, store, runner, a.logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", "error", err)
		return err
	}

	a.logger.Info("shutdown complete")
	return nil
}
