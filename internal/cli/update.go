package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var updateAll bool

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update [mod-id]",
	Short: "Update installed mods",
	Long: `Check installed mods against their latest releases and reinstall the ones
that are behind. With a mod id, updates just that mod; with --all, every mod
that has an update.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return runUpdateOne(args[0])
		}
		return runUpdateAll()
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateAll, "all", false, "update every mod with an update available")
}

func runUpdateOne(id string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	ctx := context.Background()
	reg, err := eng.cache.Fetch(ctx, false)
	if err != nil {
		return err
	}

	mod := reg.FindMod(id)
	if mod == nil {
		return fmt.Errorf("the registry does not list a mod with id '%s'", id)
	}
	if !mod.IsInstalled {
		return fmt.Errorf("%s is not installed", mod.Name)
	}
	if !mod.HasUpdate {
		fmt.Printf("✅ %s %s is already current\n", mod.Name, mod.InstalledVersion)
		return nil
	}

	result := eng.manager.DownloadAndInstall(ctx, mod, renderProgress)
	fmt.Println()
	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}

	fmt.Printf("⬆️  %s: %s → %s\n", mod.Name, mod.InstalledVersion, mod.Version)
	return nil
}

func runUpdateAll() error {
	if !updateAll {
		return fmt.Errorf("pass a mod id, or --all to update everything")
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}

	ctx := context.Background()
	updates, err := eng.cache.CheckForUpdates(ctx)
	if err != nil {
		return err
	}

	if len(updates) == 0 {
		fmt.Println("✅ Everything is up to date.")
		return nil
	}

	fmt.Printf("⬆️  %d update(s) available\n", len(updates))

	failures := 0
	for i := range updates {
		mod := updates[i]
		fmt.Printf("\n%s: %s → %s\n", mod.Name, mod.InstalledVersion, mod.Version)

		result := eng.manager.DownloadAndInstall(ctx, &mod, renderProgress)
		fmt.Println()
		if !result.Success {
			failures++
			fmt.Printf("❌ %s\n", result.Message)
			continue
		}
		fmt.Printf("✅ %s\n", result.Message)
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d updates failed", failures, len(updates))
	}
	return nil
}
