package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/casting-intake/internal/app/casting"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the recheck queue and session sweeper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := wireApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return serve(cmd.Context(), app)
		},
	}
}

func serve(parent context.Context, app *casting.App) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := app.Logger
	if err := app.SubscribeReadinessRecheck(ctx); err != nil {
		return err
	}

	server := &http.Server{
		Addr:              ":" + app.Config.Port,
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		runQueueProcessor(gctx, app, app.Config.QueueTickInterval)
		return nil
	})
	g.Go(func() error {
		runSessionSweeper(gctx, app, app.Config.SessionSweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}

func runQueueProcessor(ctx context.Context, app *casting.App, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.Queue.Tick(ctx)
		}
	}
}

func runSessionSweeper(ctx context.Context, app *casting.App, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := app.SweepSessions(ctx)
			if err != nil {
				app.Logger.Warn("session sweep failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				app.Logger.Debug("expired upload sessions removed", zap.Int("removed", removed))
			}
		}
	}
}
