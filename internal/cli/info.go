package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <mod-id>",
	Short: "Show details for one mod",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInfo(args[0])
	},
}

func runInfo(id string) error {
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

	fmt.Printf("📦 %s (%s)\n", mod.Name, mod.ID)
	fmt.Printf("   Author:    %s\n", mod.Author)
	fmt.Printf("   Category:  %s\n", mod.Category)
	fmt.Printf("   Version:   %s\n", displayVersion(mod))

	if mod.IsInstalled {
		fmt.Printf("   Installed: %s", mod.InstalledVersion)
		if mod.HasUpdate {
			fmt.Printf("  (update available)")
		}
		fmt.Println()
	}

	if desc := plainText(mod.Description); desc != "" {
		fmt.Printf("\n   %s\n", desc)
	}
	if mod.Requirements != "" {
		fmt.Printf("\n   Requires: %s\n", plainText(mod.Requirements))
	}
	if mod.MinHostVersion != "" {
		fmt.Printf("   Minimum host version: %s\n", mod.MinHostVersion)
	}
	if len(mod.Dependencies) > 0 {
		fmt.Printf("   Depends on: %s\n", strings.Join(mod.Dependencies, ", "))
	}
	if len(mod.Tags) > 0 {
		fmt.Printf("   Tags: %s\n", strings.Join(mod.Tags, ", "))
	}
	if changelog := plainText(mod.Changelog); changelog != "" {
		fmt.Printf("\n   Changelog:\n   %s\n", changelog)
	}
	if mod.ReleasePageURL != "" {
		fmt.Printf("\n   Release page: %s\n", mod.ReleasePageURL)
	}
	fmt.Printf("   Repository:   %s\n", mod.RepositoryURL)

	return nil
}
