package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// uninstallCmd represents the uninstall command
var uninstallCmd = &cobra.Command{
	Use:     "uninstall <mod-id>",
	Short:   "Remove an installed mod",
	Long:    `Delete the mod's payload file and its sidecar manifest from the packages directory.`,
	Aliases: []string{"remove", "rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUninstall(args[0])
	},
}

func runUninstall(id string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	reg, err := eng.cache.Fetch(context.Background(), false)
	if err != nil {
		return err
	}

	mod := reg.FindMod(id)
	if mod == nil {
		return fmt.Errorf("the registry does not list a mod with id '%s'", id)
	}

	result := eng.manager.Uninstall(mod)
	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}

	fmt.Printf("🗑️  %s\n", result.Message)
	return nil
}
