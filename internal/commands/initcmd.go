package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ongbook-dev/ongbook/internal/audit"
	"github.com/ongbook-dev/ongbook/internal/auth"
	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/seed"
)

func newInitCommand(cfgFile *string) *cobra.Command {
	var (
		email    string
		name     string
		password string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the database with the chart of accounts and a first director account",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, st, err := setup(*cfgFile)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := seed.Apply(ctx, st, logger); err != nil {
				return err
			}

			count, err := st.CountUsers(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("users already exist, skipping director creation")
				return nil
			}

			authSvc := auth.NewService(st, audit.NewRecorder(st), logger)
			user, err := authSvc.CreateUser(ctx, auth.CreateUserParams{
				Email:    email,
				Name:     name,
				Password: password,
				Role:     model.RoleDirector,
			})
			if err != nil {
				return fmt.Errorf("creating director account: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created director account %s (id %d)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "admin@example.org", "director email address")
	cmd.Flags().StringVar(&name, "name", "Administrator", "director display name")
	cmd.Flags().StringVar(&password, "password", "", "director password")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
