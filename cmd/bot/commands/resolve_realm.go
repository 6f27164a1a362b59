package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// ResolveRealmCmd creates the resolveRealm command
func ResolveRealmCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolveRealm <realm name>",
		Short: "Show how a realm name would be matched",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.Join(args, " ")
			result := app.Resolver.Resolve(input)

			if !result.Found() {
				fmt.Printf("No realm matches %q (best score %d)\n", input, result.Score)
				return nil
			}

			fmt.Printf("Realm: %s\n", result.Name)
			fmt.Printf("Slug:  %s\n", result.Slug)
			fmt.Printf("Match: %s (score %d)\n", result.Outcome, result.Score)
			return nil
		},
	}
}
