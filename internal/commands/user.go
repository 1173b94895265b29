package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ongbook-dev/ongbook/internal/audit"
	"github.com/ongbook-dev/ongbook/internal/auth"
	"github.com/ongbook-dev/ongbook/internal/model"
)

func newUserCommand(cfgFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserAddCommand(cfgFile))
	cmd.AddCommand(newUserListCommand(cfgFile))
	return cmd
}

func newUserAddCommand(cfgFile *string) *cobra.Command {
	var (
		email    string
		name     string
		password string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, st, err := setup(*cfgFile)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(); err != nil {
				return err
			}

			authSvc := auth.NewService(st, audit.NewRecorder(st), logger)
			user, err := authSvc.CreateUser(cmd.Context(), auth.CreateUserParams{
				Email:    email,
				Name:     name,
				Password: password,
				Role:     model.Role(role),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s user %s (id %d)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().StringVar(&role, "role", string(model.RoleAccountant), "role: accountant, director or auditor")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newUserListCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, st, err := setup(*cfgFile)
			if err != nil {
				return err
			}
			defer st.Close()

			authSvc := auth.NewService(st, audit.NewRecorder(st), logger)
			users, err := authSvc.List(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tACTIVE")
			for _, u := range users {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%t\n", u.ID, u.Email, u.Name, u.Role, u.Active)
			}
			return tw.Flush()
		},
	}
}
