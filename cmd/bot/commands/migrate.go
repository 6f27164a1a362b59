package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the postgres schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pg, err := app.Postgres()
			if err != nil {
				return err
			}

			if err := pg.RunMigrations(app.Ctx); err != nil {
				return err
			}

			fmt.Println("✓ Migrations applied")
			return nil
		},
	}
}
