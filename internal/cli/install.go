package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"modkit/internal/download"
	"modkit/internal/registry"
)

var installForce bool

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:   "install <mod-id>",
	Short: "Download and install a mod",
	Long: `Resolve the mod's latest release, download its payload, and place it in
the packages directory. An already-current mod is skipped unless --force is
given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInstall(args[0])
	},
}

func init() {
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "reinstall even when already up-to-date")
}

func runInstall(id string) error {
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

	if mod.IsInstalled && !mod.HasUpdate && !installForce {
		fmt.Printf("✅ %s %s is already installed and current (use --force to reinstall)\n",
			mod.Name, mod.InstalledVersion)
		return nil
	}

	warnMissingDependencies(reg, mod)

	if verbose {
		fmt.Printf("⏬ Downloading %s %s\n", mod.Name, displayVersion(mod))
	}

	result := eng.manager.DownloadAndInstall(ctx, mod, renderProgress)
	fmt.Println()

	if !result.Success {
		return fmt.Errorf("%s", result.Message)
	}

	fmt.Printf("✅ %s\n", result.Message)
	if verbose {
		fmt.Printf("📁 %s\n", result.InstalledPath)
	}
	return nil
}

// warnMissingDependencies points out uninstalled dependencies. Modkit does
// not resolve dependency graphs; it just tells the user what the mod says
// it needs.
func warnMissingDependencies(reg *registry.Registry, mod *registry.Mod) {
	for _, depID := range mod.Dependencies {
		dep := reg.FindMod(depID)
		if dep == nil {
			fmt.Printf("⚠️  %s depends on '%s', which the registry does not list\n", mod.Name, depID)
			continue
		}
		if !dep.IsInstalled {
			fmt.Printf("⚠️  %s depends on %s, which is not installed\n", mod.Name, dep.Name)
		}
	}
}

// renderProgress draws a single updating progress line.
func renderProgress(p download.Progress) {
	if p.TotalBytes > 0 {
		fmt.Printf("\r%-12s %3.0f%%  %s / %s  %s  ETA %s    ",
			p.Status, p.Percent,
			download.HumanBytes(p.BytesDownloaded), download.HumanBytes(p.TotalBytes),
			download.HumanRate(p.BytesPerSecond), download.HumanETA(p.ETA))
		return
	}

	if p.BytesDownloaded > 0 {
		fmt.Printf("\r%-12s %3.0f%%  %s    ", p.Status, p.Percent, download.HumanBytes(p.BytesDownloaded))
		return
	}

	fmt.Printf("\r%-12s %3.0f%%    ", p.Status, p.Percent)
}
