package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"modkit/internal/registry"
)

var (
	listInstalled bool
	listUpdates   bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:     "list",
	Short:   "List mods from the registry",
	Long:    `List every mod the registry knows about, grouped by category, with markers for installed mods and available updates.`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList()
	},
}

func init() {
	listCmd.Flags().BoolVar(&listInstalled, "installed", false, "only show installed mods")
	listCmd.Flags().BoolVar(&listUpdates, "updates", false, "only show mods with updates available")
}

func runList() error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	reg, err := eng.cache.Fetch(context.Background(), false)
	if err != nil {
		return err
	}

	if len(reg.Mods) == 0 {
		fmt.Println("The registry lists no mods.")
		return nil
	}

	shown := 0
	for _, category := range categoriesInOrder(reg) {
		printed := false
		for i := range reg.Mods {
			mod := &reg.Mods[i]
			if mod.Category != category {
				continue
			}
			if listInstalled && !mod.IsInstalled {
				continue
			}
			if listUpdates && !mod.HasUpdate {
				continue
			}

			if !printed {
				fmt.Printf("\n%s\n", category)
				printed = true
			}

			fmt.Printf("  %s %s (%s) — %s\n", modMarker(mod), mod.Name, displayVersion(mod), mod.ID)
			if mod.HasUpdate {
				fmt.Printf("       installed %s, %s available\n", mod.InstalledVersion, mod.Version)
			}
			shown++
		}
	}

	if shown == 0 {
		fmt.Println("No mods match the given filters.")
	}

	return nil
}

// categoriesInOrder keeps the registry's declared category order, then
// appends any category a mod uses that the document forgot to declare.
func categoriesInOrder(reg *registry.Registry) []string {
	seen := make(map[string]bool)
	order := make([]string, 0, len(reg.Categories))

	for _, c := range reg.Categories {
		if !seen[c] {
			seen[c] = true
			order = append(order, c)
		}
	}
	for _, mod := range reg.Mods {
		if !seen[mod.Category] {
			seen[mod.Category] = true
			order = append(order, mod.Category)
		}
	}

	return order
}
