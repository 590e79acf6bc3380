package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/timelocker/tracker/internal/api"
	"github.com/timelocker/tracker/internal/scheduler"
)

const shutdownTimeout = 15 * time.Second

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook and report server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		if mins := cfg.Scheduler.ReanalyzeIntervalMins; mins > 0 {
			r := scheduler.NewReanalyzer(env.Store, env.Processor, cfg.Scheduler.ReanalyzeBatchSize)
			sched, err := scheduler.Start(ctx, r, time.Duration(mins)*time.Minute)
			if err != nil {
				return err
			}
			defer sched.Shutdown() //nolint:errcheck
		}

		server := api.NewServer(api.Config{
			NotebookID:     cfg.Notion.DatabaseID,
			AllowedOrigins: cfg.Server.AllowedOrigins,
		}, env.Processor, env.Analyzer, env.Reports, env.Notifier)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
