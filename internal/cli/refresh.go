package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refetch the registry, bypassing the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRefresh()
	},
}

func runRefresh() error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	reg, err := eng.cache.Fetch(context.Background(), true)
	if err != nil {
		return err
	}

	installed, updates, unresolved := 0, 0, 0
	for i := range reg.Mods {
		if reg.Mods[i].IsInstalled {
			installed++
		}
		if reg.Mods[i].HasUpdate {
			updates++
		}
		if !reg.Mods[i].Resolved() {
			unresolved++
		}
	}

	fmt.Printf("🔄 Registry refreshed: %d mods, %d installed, %d update(s) available\n",
		len(reg.Mods), installed, updates)
	if unresolved > 0 {
		fmt.Printf("⚠️  %d mod(s) have no resolvable release yet\n", unresolved)
	}

	return nil
}
