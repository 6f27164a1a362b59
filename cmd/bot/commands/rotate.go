package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dndguild/keyevent-bot/pkg/core/services"
)

// RotateCmd creates the rotate command
func RotateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rotate",
		Short: "Retire the active sign-up table if today is rotation day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.Store()
			if err != nil {
				return err
			}

			outcome, err := services.RotateTables(app.Ctx, store, app.Metrics, app.Logger, time.Now())
			if err != nil {
				return err
			}

			fmt.Printf("Rotation: %s\n", outcome)
			return nil
		},
	}
}
