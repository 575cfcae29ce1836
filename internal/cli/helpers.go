package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/microcosm-cc/bluemonday"

	"modkit/internal/config"
	"modkit/internal/download"
	"modkit/internal/install"
	"modkit/internal/inventory"
	"modkit/internal/ledger"
	"modkit/internal/registry"
)

// engine bundles the wired-up pieces every command needs.
type engine struct {
	cfg     config.Config
	cache   *registry.Cache
	manager *install.Manager
}

// newEngine loads configuration and assembles the registry cache and
// install manager around it.
func newEngine() (*engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.RegistryURL == "" {
		return nil, fmt.Errorf("no registry configured: set registry_url in the config file or MODKIT_REGISTRY_URL")
	}
	if cfg.PackagesDir == "" {
		return nil, fmt.Errorf("no packages directory configured: set packages_dir in the config file")
	}

	ledgerPath, err := ledger.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("failed to locate ledger: %w", err)
	}
	l, err := ledger.Load(ledgerPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	logger := log.Default()
	inv := inventory.New(cfg.PackagesDir, cfg.PayloadPatterns, l)
	fetcher := registry.NewDocumentFetcher(cfg.RegistryURL, logger)
	resolver := registry.NewResolver(cfg.GitHubToken, logger)

	cache := registry.NewCache(registry.NewLoader(fetcher, resolver, inv, logger))
	manager := install.NewManager(cfg.PackagesDir, download.New(), l, cache.Invalidate, logger)

	return &engine{cfg: cfg, cache: cache, manager: manager}, nil
}

// Registry descriptions and changelogs may carry HTML; the terminal gets
// plain text only.
var textPolicy = bluemonday.StrictPolicy()

func plainText(s string) string {
	return strings.TrimSpace(textPolicy.Sanitize(s))
}

// modMarker renders the installed/update state shown next to a mod.
func modMarker(mod *registry.Mod) string {
	switch {
	case mod.HasUpdate:
		return "⬆️ "
	case mod.IsInstalled:
		return "✅"
	default:
		return "  "
	}
}

// displayVersion renders the resolved version, falling back to a marker
// when release resolution found nothing.
func displayVersion(mod *registry.Mod) string {
	if mod.Version == "" {
		return "version unknown"
	}
	return mod.Version
}
