package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/unklstewy/whatdatplane/internal/api"
	"github.com/unklstewy/whatdatplane/internal/cache"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		svc, err := buildServices(cfg)
		if err != nil {
			return err
		}

		server := api.NewServer(api.Deps{
			Finder:         svc.finder,
			Geocoder:       svc.geocoder,
			GeocodeCache:   svc.geoCache,
			GeocodeTTL:     cfg.Cache.TTL.Geocode,
			Enricher:       svc.enricher,
			Limiters:       svc.limiters,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
		})

		sweepCtx, stopSweeper := context.WithCancel(context.Background())
		sweeperDone := make(chan struct{})
		go func() {
			defer close(sweeperDone)
			cache.RunSweeper(sweepCtx, cfg.Cache.SweepInterval, svc.sweepables...)
		}()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, port),
			Handler:      server,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("starting server", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			stopSweeper()
			<-sweeperDone
			if err != nil {
				return eris.Wrap(err, "server listen")
			}
			return nil
		case <-ctx.Done():
		}

		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		err = srv.Shutdown(shutdownCtx)
		stopSweeper()
		<-sweeperDone
		if err != nil {
			return eris.Wrap(err, "server shutdown")
		}

		zap.L().Info("server stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
