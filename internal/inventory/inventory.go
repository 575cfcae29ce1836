package inventory

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"modkit/internal/ledger"
	"modkit/internal/registry"
)

// DefaultPatterns matches the payload file types mods ship as.
var DefaultPatterns = []string{"*.dll", "*.zip"}

// Inventory scans the local packages directory for installed payload files
// and pairs each with the version the ledger last recorded for it.
type Inventory struct {
	packagesDir string
	patterns    []string
	ledger      *ledger.Ledger
}

// New creates an inventory over packagesDir. Empty patterns fall back to
// DefaultPatterns.
func New(packagesDir string, patterns []string, l *ledger.Ledger) *Inventory {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return &Inventory{
		packagesDir: packagesDir,
		patterns:    patterns,
		ledger:      l,
	}
}

// ListInstalled returns every payload file present under the packages
// directory that matches a configured pattern. A missing packages directory
// means nothing is installed, not an error.
func (inv *Inventory) ListInstalled() ([]registry.InstalledFile, error) {
	if _, err := os.Stat(inv.packagesDir); os.IsNotExist(err) {
		return nil, nil
	}

	var files []registry.InstalledFile
	seen := make(map[string]bool)

	for _, pattern := range inv.patterns {
		matches, err := doublestar.FilepathGlob(filepath.Join(inv.packagesDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("bad payload pattern %s: %w", pattern, err)
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}

			name := filepath.Base(match)
			if seen[name] {
				continue
			}
			seen[name] = true

			installedVersion, _ := inv.ledger.Get(name)
			files = append(files, registry.InstalledFile{
				FileName: name,
				Version:  installedVersion,
			})
		}
	}

	return files, nil
}
