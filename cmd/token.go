/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"rncflow/internal/bootstrap"
	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/errs"
	"rncflow/internal/infrastructure/auth"
	"rncflow/internal/ports"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Bearer tokens for local testing",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue an HS256 token for an existing user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var (
			tokens    *auth.Tokens
			directory ports.Directory
		)
		return runWithApp(cmd, func(_ *bootstrap.App) error {
			ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

			userID, _ := cmd.Flags().GetUint64("user")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			user, err := directory.GetUser(ctx, userID)
			if err != nil {
				return errs.Wrap(err, "load user")
			}

			raw, err := tokens.Issue(user.ID, ttl)
			if err != nil {
				return errs.Wrap(err, "issue token")
			}
			logging.Info(ctx, "token issued", slog.Uint64("user_id", user.ID), slog.Duration("ttl", ttl))

			if _, err := fmt.Fprintln(cmd.OutOrStdout(), raw); err != nil {
				return errs.Wrap(err, "write token output")
			}
			return nil
		}, &tokens, &directory)
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenIssueCmd)

	tokenIssueCmd.Flags().Uint64("user", 0, "User id (token subject)")
	tokenIssueCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = tokenIssueCmd.MarkFlagRequired("user")
}
