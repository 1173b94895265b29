package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, st, err := setup(*cfgFile)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Migrate(); err != nil {
				return err
			}

			version, err := st.MigrationVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database at migration version %d\n", version)
			return nil
		},
	}
}
