package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/aretw0/viewhost"
	httpAdapter "github.com/aretw0/viewhost/pkg/adapters/http"
	"github.com/aretw0/viewhost/pkg/adapters/sim"
	"github.com/aretw0/viewhost/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP host",
	Long: `Binds a simulated view and exposes the host over HTTP: document rendering,
commands, backstack navigation, SSE state streams and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}

		metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
		streams := httpAdapter.NewStreamManager()
		h, err := newHost(cfg, logger,
			viewhost.WithLifecycleHooks(observability.Combine(metrics.Hooks(), logHooks(logger))),
			viewhost.WithStateListener(streams),
		)
		if err != nil {
			return err
		}
		defer h.Close()

		view, _ := cmd.Flags().GetString("view")
		h.vh.Bind(sim.NewView(view))

		router := chi.NewRouter()
		router.Handle("/metrics", promhttp.Handler())
		router.Mount("/", httpAdapter.NewHandler(h.vh,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithStreams(streams),
		))

		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting viewhost server", "addr", srv.Addr, "view", view)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("shutting down", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("kill server: %w", err)
				}
			}
			logger.Info("viewhost server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides http.addr)")
	serveCmd.Flags().String("view", "main", "Name of the simulated view")
}
