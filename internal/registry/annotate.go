package registry

import (
	"strings"

	"modkit/internal/version"
)

// Annotate returns a copy of reg with installed-status fields populated
// from the local inventory. The match is a case-insensitive comparison of
// payload file names. This is a pure annotation pass: local state is read,
// never written.
func Annotate(reg Registry, inv Inventory) (Registry, error) {
	out := reg
	out.Mods = make([]Mod, len(reg.Mods))
	copy(out.Mods, reg.Mods)

	installed, err := inv.ListInstalled()
	if err != nil {
		return Registry{}, NewEngineError(ErrFilesystem,
			"could not read the packages directory: "+err.Error())
	}

	for i := range out.Mods {
		mod := &out.Mods[i]
		mod.IsInstalled = false
		mod.InstalledVersion = ""
		mod.HasUpdate = false

		for _, file := range installed {
			if !strings.EqualFold(file.FileName, mod.FileName) {
				continue
			}

			mod.IsInstalled = true
			mod.InstalledVersion = file.Version
			mod.HasUpdate = version.HasUpdate(file.Version, mod.Version)
			break
		}
	}

	return out, nil
}
