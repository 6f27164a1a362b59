package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dndguild/keyevent-bot/pkg/core/services"
)

// ListSignupsCmd creates the listSignups command
func ListSignupsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listSignups",
		Short: "List the sign-ups in the active table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Store()
			if err != nil {
				return err
			}

			rows, err := store.ListRegistrations(app.Ctx)
			if err != nil {
				return err
			}

			info := services.EventInfoResult{SignupCount: len(rows), InfoLink: app.Cfg.EventInfoLink}
			fmt.Printf("\n%s\n\n", info.Message())

			for _, row := range rows {
				fmt.Printf("  %-12s %-20s %-14s %-7s %-6s %-8s %-20s %s\n",
					row.Character, row.Realm, row.Class, row.Role,
					row.ItemLevel, row.Rating, row.KeyRange, row.DiscordUser)
			}
			if len(rows) > 0 {
				fmt.Println()
			}
			return nil
		},
	}
}
