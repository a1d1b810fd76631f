/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"rncflow/internal/bootstrap"
	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/errs"
	"rncflow/internal/usecase/notification"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Operate the deadline notification engine",
}

var notificationsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one deadline sweep now and print its report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var engine *notification.Engine
		return runWithApp(cmd, func(_ *bootstrap.App) error {
			ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

			if err := engine.SyncTypes(ctx); err != nil {
				return errs.Wrap(err, "sync notification types")
			}
			report, err := engine.Sweep(ctx)
			if err != nil {
				logging.Error(ctx, "deadline sweep failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "sweep")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return errs.Wrap(err, "write sweep report")
			}
			return nil
		}, &engine)
	},
}

var notificationsSyncTypesCmd = &cobra.Command{
	Use:   "sync-types",
	Short: "Register the rule catalogue as notification types",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var engine *notification.Engine
		return runWithApp(cmd, func(_ *bootstrap.App) error {
			ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

			if err := engine.SyncTypes(ctx); err != nil {
				logging.Error(ctx, "sync notification types failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "sync notification types")
			}
			for _, t := range engine.Types() {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", t.Code, t.Name); err != nil {
					return errs.Wrap(err, "write sync-types output")
				}
			}
			return nil
		}, &engine)
	},
}

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.AddCommand(notificationsSweepCmd)
	notificationsCmd.AddCommand(notificationsSyncTypesCmd)
}
