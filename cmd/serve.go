/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rncflow/internal/bootstrap"
	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/errs"
	"rncflow/internal/transport/httpapi"
	"rncflow/internal/usecase/notification"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and run the deadline scheduler until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var (
			server    *httpapi.Server
			engine    *notification.Engine
			scheduler *notification.Scheduler
		)
		return runWithApp(cmd, func(app *bootstrap.App) error {
			ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

			migrate, _ := cmd.Flags().GetBool("migrate")
			if migrate {
				if err := app.InitSchema(ctx); err != nil {
					return errs.Wrap(err, "initialize schema")
				}
			}

			if err := engine.SyncTypes(ctx); err != nil {
				logging.Error(ctx, "sync notification types failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "sync notification types")
			}

			sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			group, groupCtx := errgroup.WithContext(sigCtx)
			group.Go(func() error {
				return server.Start(groupCtx)
			})
			if app.Config.Notifications.Enabled {
				group.Go(func() error {
					return scheduler.Run(groupCtx)
				})
			} else {
				logging.Info(ctx, "deadline scheduler disabled by config")
			}

			if err := group.Wait(); err != nil {
				return err
			}
			logging.Info(context.WithoutCancel(ctx), "serve stopped")
			return nil
		}, &server, &engine, &scheduler)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("migrate", false, "Run schema migration before serving")
}
