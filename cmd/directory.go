/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"rncflow/internal/bootstrap"
	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/errs"
	"rncflow/internal/ports"
)

var directoryCmd = &cobra.Command{
	Use:   "directory",
	Short: "Seed the local supplier and user directory",
}

var directorySupplierCmd = &cobra.Command{
	Use:   "supplier",
	Short: "Manage suppliers",
}

var directoryUserCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users and their permission codes",
}

var directorySupplierAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a supplier",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var directory ports.Directory
		return runWithApp(cmd, func(_ *bootstrap.App) error {
			ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

			name, _ := cmd.Flags().GetString("name")
			cnpj, _ := cmd.Flags().GetString("cnpj")
			supplier := ports.Supplier{Name: name, CNPJ: cnpj}
			if err := directory.CreateSupplier(ctx, &supplier); err != nil {
				logging.Error(ctx, "create supplier failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "create supplier")
			}

			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "created supplier %d: %s\n", supplier.ID, supplier.Name); err != nil {
				return errs.Wrap(err, "write supplier output")
			}
			return nil
		}, &directory)
	},
}

var directoryUserAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a user with permission codes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var directory ports.Directory
		return runWithApp(cmd, func(_ *bootstrap.App) error {
			ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			perms, _ := cmd.Flags().GetStringSlice("perm")
			user := ports.User{Name: name, Email: email, Permissions: perms}
			if err := directory.CreateUser(ctx, &user); err != nil {
				logging.Error(ctx, "create user failed", slog.Any("err", errs.Loggable(err)))
				return errs.Wrap(err, "create user")
			}

			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "created user %d: %s [%s]\n",
				user.ID, user.Email, strings.Join(perms, ",")); err != nil {
				return errs.Wrap(err, "write user output")
			}
			return nil
		}, &directory)
	},
}

func init() {
	rootCmd.AddCommand(directoryCmd)
	directoryCmd.AddCommand(directorySupplierCmd)
	directoryCmd.AddCommand(directoryUserCmd)
	directorySupplierCmd.AddCommand(directorySupplierAddCmd)
	directoryUserCmd.AddCommand(directoryUserAddCmd)

	directorySupplierAddCmd.Flags().String("name", "", "Supplier name")
	directorySupplierAddCmd.Flags().String("cnpj", "", "Supplier CNPJ")
	_ = directorySupplierAddCmd.MarkFlagRequired("name")

	directoryUserAddCmd.Flags().String("name", "", "User display name")
	directoryUserAddCmd.Flags().String("email", "", "User email")
	directoryUserAddCmd.Flags().StringSlice("perm", nil, "Permission code (repeatable), e.g. rnc.read or admin.all")
	_ = directoryUserAddCmd.MarkFlagRequired("email")
}
