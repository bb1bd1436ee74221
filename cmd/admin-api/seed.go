package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/admin-app/admin-api/internal/app"
	"github.com/admin-app/admin-api/internal/platform/db"
	"github.com/admin-app/admin-api/internal/platform/validation"
	"github.com/admin-app/admin-api/internal/rbac"
	"github.com/admin-app/admin-api/internal/shared"
	"github.com/admin-app/admin-api/internal/users"
)

type seedOptions struct {
	adminEmail     string
	adminPassword  string
	adminFirstName string
	adminLastName  string
	skipSchema     bool
}

func newSeedCmd() *cobra.Command {
	var opts seedOptions
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the schema, default permissions and roles, and optionally an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (opts.adminEmail == "") != (opts.adminPassword == "") {
				return errors.New("--admin-email and --admin-password must be given together")
			}
			cfg, logger, err := loadRuntime()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			dbpool, err := db.New(ctx, cfg.PGDSN)
			if err != nil {
				logger.Error("connect postgres", slog.Any("error", err))
				return err
			}
			defer dbpool.Close()

			if !opts.skipSchema {
				if err := db.EnsureSchema(ctx, dbpool); err != nil {
					logger.Error("apply schema", slog.Any("error", err))
					return err
				}
			}

			services, err := app.NewServices(cfg, logger, dbpool, nil)
			if err != nil {
				return err
			}
			roleIDs, err := services.RBAC.Seed(ctx, shared.CoreScopes(), rbac.DefaultRoles())
			if err != nil {
				logger.Error("seed roles", slog.Any("error", err))
				return err
			}
			logger.Info("seeded roles", slog.Int("roles", len(roleIDs)), slog.Int("permissions", len(shared.CoreScopes())))

			if opts.adminEmail == "" {
				return nil
			}
			created, err := services.Users.EnsureAdmin(ctx, users.CreateInput{
				FirstName: opts.adminFirstName,
				LastName:  opts.adminLastName,
				Email:     validation.NormalizeEmail(opts.adminEmail),
				Password:  opts.adminPassword,
				RoleID:    roleIDs[shared.RoleAdmin],
			})
			if err != nil {
				logger.Error("ensure admin", slog.Any("error", err))
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s ready (created=%t)\n", opts.adminEmail, created)
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.adminEmail, "admin-email", "", "email of the bootstrap admin account")
	cmd.Flags().StringVar(&opts.adminPassword, "admin-password", "", "password of the bootstrap admin account")
	cmd.Flags().StringVar(&opts.adminFirstName, "admin-first-name", "Admin", "first name of the bootstrap admin account")
	cmd.Flags().StringVar(&opts.adminLastName, "admin-last-name", "User", "last name of the bootstrap admin account")
	cmd.Flags().BoolVar(&opts.skipSchema, "skip-schema", false, "do not apply the embedded schema")
	return cmd
}
