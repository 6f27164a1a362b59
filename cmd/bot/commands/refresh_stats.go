package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/dndguild/keyevent-bot/pkg/core/services"
)

// RefreshStatsCmd creates the refreshStats command
func RefreshStatsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refreshStats",
		Short: "Re-fetch item level, rating and highest key for every sign-up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Store()
			if err != nil {
				return err
			}

			refresher := services.NewStatsRefresher(store, app.Resolver, app.Tokens, app.Profiles,
				rate.NewLimiter(rate.Limit(app.Cfg.RefreshRate), 1), app.Metrics, app.Logger)
			summary, err := refresher.Run(app.Ctx)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Refreshed %d sign-up(s)\n\n", summary.Rows)
			fmt.Printf("  Updated:       %d\n", summary.Updated)
			fmt.Printf("  Unknown realm: %d\n", summary.UnknownRealm)
			fmt.Printf("  No data:       %d\n", summary.NoData)
			fmt.Printf("  Failed:        %d\n\n", summary.Failed)
			return nil
		},
	}
}
