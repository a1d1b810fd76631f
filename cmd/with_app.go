package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"rncflow/internal/bootstrap"
	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/errs"
)

func withApp(run func(cmd *cobra.Command, app *bootstrap.App) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return runWithApp(cmd, func(app *bootstrap.App) error { return run(cmd, app) })
	}
}

// runWithApp starts the fx graph, fills targets (pointers to provided
// types), runs fn and stops the graph. Once config is loaded the command
// context logs with the configured level and format.
func runWithApp(cmd *cobra.Command, run func(app *bootstrap.App) error, targets ...any) error {
	ctx := logging.WithAttrs(
		cmd.Context(),
		slog.String("command", cmd.CommandPath()),
		slog.String("config_file", cfgFile),
	)

	var app *bootstrap.App
	fxApp := fx.New(
		bootstrap.Module,
		fx.Provide(func() context.Context { return ctx }),
		fx.Provide(
			fx.Annotate(
				func() string { return cfgFile },
				fx.ResultTags(`name:"configFile"`),
			),
		),
		fx.Populate(append([]any{&app}, targets...)...),
	)

	startCtx, cancelStart := context.WithTimeout(ctx, 10*time.Second)
	defer cancelStart()
	if err := fxApp.Start(startCtx); err != nil {
		logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
		return errs.Wrap(err, "start fx application")
	}

	defer func() {
		stopCtx, cancelStop := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelStop()
		if err := fxApp.Stop(stopCtx); err != nil {
			logging.Error(ctx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
		}
	}()

	logger := logging.New(cmd.ErrOrStderr(), app.Config.Log.Level, app.Config.Log.Format)
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))

	if err := run(app); err != nil {
		return errs.Wrap(err, "run command")
	}
	return nil
}
