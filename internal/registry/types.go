package registry

// Registry is the parsed catalog document listing every mod known to the
// remote registry, in the order the document declares them.
type Registry struct {
	SchemaVersion  int      `json:"schemaVersion"`
	LastUpdated    string   `json:"lastUpdated"`
	RegistryURL    string   `json:"registryUrl"`
	ReleasesAPIURL string   `json:"releasesApiUrl,omitempty"`
	Categories     []string `json:"categories"`
	Mods           []Mod    `json:"mods"`
}

// Mod is one catalog entry. The static fields come straight from the
// registry document; Version, DownloadURL and ReleasePageURL are filled in
// by release resolution, and the local-only fields by the installed-status
// annotation pass. Mod ids are unique within a registry instance.
type Mod struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Author         string   `json:"author"`
	MinHostVersion string   `json:"minHostVersion,omitempty"`
	Requirements   string   `json:"requirements,omitempty"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags,omitempty"`
	RepositoryURL  string   `json:"repositoryUrl"`
	FileName       string   `json:"fileName"`
	IconURL        string   `json:"iconUrl,omitempty"`
	ScreenshotURLs []string `json:"screenshotUrls,omitempty"`
	Changelog      string   `json:"changelog,omitempty"`
	Dependencies   []string `json:"dependencies,omitempty"`
	Enabled        bool     `json:"enabled"`

	// Resolved from the release API; empty until resolution succeeds.
	Version        string `json:"version,omitempty"`
	DownloadURL    string `json:"downloadUrl,omitempty"`
	ReleasePageURL string `json:"releasePageUrl,omitempty"`

	// Local state, never serialized back to the registry document.
	IsInstalled      bool   `json:"-"`
	InstalledVersion string `json:"-"`
	HasUpdate        bool   `json:"-"`
}

// Resolved reports whether release resolution produced a usable download
// location for this mod.
func (m *Mod) Resolved() bool {
	return m.Version != "" && m.DownloadURL != ""
}

// FindMod returns the entry with the given id, or nil if the registry does
// not list it.
func (r *Registry) FindMod(id string) *Mod {
	for i := range r.Mods {
		if r.Mods[i].ID == id {
			return &r.Mods[i]
		}
	}
	return nil
}

// OperationResult is the outcome value every engine operation reports.
// Engine operations never panic and never leak transport or filesystem
// errors; they describe what happened here instead.
type OperationResult struct {
	Success       bool
	Message       string
	InstalledPath string
	Mod           *Mod
}

// InstalledFile is one payload file found in the packages directory,
// paired with the version the local ledger last recorded for it.
type InstalledFile struct {
	FileName string
	Version  string
}

// Inventory lists the payload files currently present in the local
// packages directory.
type Inventory interface {
	ListInstalled() ([]InstalledFile, error)
}
