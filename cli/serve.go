package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/warp/insulation-engine/api"
	"github.com/warp/insulation-engine/config"
	"github.com/warp/insulation-engine/observability"
	"github.com/warp/insulation-engine/report"
)

// NewServerCmd creates the command run by cmd/server.
func NewServerCmd() *cobra.Command {
	s := &settings{}
	var addr string

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve the insulation calculator HTTP API",
		Example: `  # Defaults: :8000, constants from the built-in tables
  server

  # Constants from a SQLite store, seeded on first start
  server --db ./data/insulation.db --addr :9000`,
		Version:       config.Defaults().App.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.load(cmd); err != nil {
				return err
			}
			if addr != "" {
				s.cfg.HTTP.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return Serve(ctx, s.cfg, s.log)
		},
	}
	s.bind(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :8000)")
	return cmd
}

// Serve runs the API until ctx is cancelled, then drains in-flight
// requests for at most the configured shutdown timeout.
func Serve(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	src, closeSource, err := openSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSource(); err != nil {
			log.Error().Err(err).Msg("failed to close constants store")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(reg)

	handler := api.NewHandler(cfg.App.Name, cfg.App.Version, src, report.NewRenderer(), metrics, log)
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Gatherer:    reg,
	})

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.HTTP.Addr, err)
	}

	server := &http.Server{
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", ln.Addr().String()).
			Str("version", cfg.App.Version).
			Msg("server starting")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
