package install

import (
	"fmt"
	"os"
	"path/filepath"

	"modkit/internal/registry"
)

// Uninstall removes the mod's payload and its optional sidecar manifest
// from the packages directory. Each removal is independently best-effort:
// an absent file is fine, and only a payload that is present but cannot be
// deleted fails the operation. A deletable sidecar failure is logged and
// swallowed.
func (m *Manager) Uninstall(mod *registry.Mod) registry.OperationResult {
	payloadPath := filepath.Join(m.packagesDir, mod.FileName)

	if removed, err := removeIfPresent(payloadPath); err != nil {
		return registry.OperationResult{
			Success: false,
			Message: fmt.Sprintf("could not remove %s: %v — close the running application and try again", mod.FileName, err),
			Mod:     mod,
		}
	} else if removed {
		m.logger.Debug("removed payload", "mod", mod.ID, "path", payloadPath)
	}

	sidecarPath := filepath.Join(m.packagesDir, sidecarName(mod.FileName))
	if _, err := removeIfPresent(sidecarPath); err != nil {
		m.logger.Warn("could not remove sidecar manifest", "mod", mod.ID, "err", err)
	}

	if err := m.ledger.Remove(mod.FileName); err != nil {
		m.logger.Warn("could not update ledger", "mod", mod.ID, "err", err)
	}
	m.invalidate()

	return registry.OperationResult{
		Success: true,
		Message: fmt.Sprintf("Uninstalled %s", mod.Name),
		Mod:     mod,
	}
}

// removeIfPresent deletes path when it exists, reporting whether anything
// was removed.
func removeIfPresent(path string) (bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, err
	}
	return true, nil
}
