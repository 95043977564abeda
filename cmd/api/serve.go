package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/xpanvictor/parley/internal/app"
	"github.com/xpanvictor/parley/internal/config"
	"github.com/xpanvictor/parley/internal/database"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, cfg, logger, db, err := bootstrap()
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}

			rc, err := database.NewRedis(cfg.Redis)
			if err != nil {
				// the cache is optional, retrieval still works without it
				logger.Warnf("redis unavailable, continuing without cache: %v", err)
				rc = nil
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.NewApp(ctx, cfg, logger, db, rc)
			if err != nil {
				return fmt.Errorf("failed to build app: %w", err)
			}
			loader.Watch(a.Store, logger, func(next *config.Settings) {
				logger.Infof("new sessions will use form=%s, tts=%s", next.Voice.Form, next.TTS.Default.Service)
			})
			if err := a.Start(); err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              cfg.Server.Addr(),
				Handler:           a.Engine().Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				logger.Infof("listening on %s", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				a.Shutdown()
				return fmt.Errorf("server exited: %w", err)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			// hijacked websocket conns are not tracked by Shutdown; the app closes them
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Errorf("Shutdown err %v", err)
			}
			a.Shutdown()
			logger.Info("Shutdown system")
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}
