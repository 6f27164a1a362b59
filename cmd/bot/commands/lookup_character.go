package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dndguild/keyevent-bot/pkg/core/model"
	"github.com/dndguild/keyevent-bot/pkg/core/services"
)

// LookupCharacterCmd creates the lookupCharacter command
func LookupCharacterCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lookupCharacter <character> <realm>",
		Short: "Fetch a character's class, item level, rating and highest key",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			character := args[0]
			realmInput := strings.Join(args[1:], " ")

			result, err := services.LookupCharacter(app.Ctx, app.Resolver, app.Tokens, app.Profiles, app.Logger, character, realmInput)
			if err != nil {
				return err
			}

			stats := result.Profile.Stats()
			fmt.Printf("\n%s-%s (%s)\n\n", model.Capitalize(character), result.Realm.Name, result.Realm.Slug)
			fmt.Printf("  Class:       %s\n", valueOrNA(result.Profile.Class))
			fmt.Printf("  Item level:  %s\n", orNA(stats.ItemLevel))
			fmt.Printf("  Rating:      %s\n", orNA(stats.Rating))
			fmt.Printf("  Highest key: %s\n\n", orNA(stats.HighestKey))
			return nil
		},
	}
}

func valueOrNA(s *string) string {
	if s == nil {
		return model.NotAvailable
	}
	return *s
}

func orNA(s string) string {
	if s == "" {
		return model.NotAvailable
	}
	return s
}
