package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// Ledger is the persisted record of which version of each payload file was
// last installed, keyed by file name. Lookups are case-insensitive because
// payload file names come from both the registry document and the local
// filesystem, which need not agree on casing. Every mutation rewrites the
// whole file.
type Ledger struct {
	path     string
	Versions map[string]string `json:"versions"`
}

// DefaultPath returns the per-user location of the ledger file.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".modkit", "ledger.json"), nil
}

// Load reads the ledger at path, returning an empty ledger when the file
// does not exist yet.
func Load(path string) (*Ledger, error) {
	l := &Ledger{
		path:     path,
		Versions: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, l); err != nil {
		return nil, err
	}
	if l.Versions == nil {
		l.Versions = make(map[string]string)
	}

	return l, nil
}

// Get returns the last-known-installed version for a payload file name,
// matched case-insensitively.
func (l *Ledger) Get(fileName string) (string, bool) {
	for name, version := range l.Versions {
		if strings.EqualFold(name, fileName) {
			return version, true
		}
	}
	return "", false
}

// Set records a version for a payload file name, replacing any existing
// entry that differs only in case, and persists the whole ledger.
func (l *Ledger) Set(fileName, version string) error {
	for name := range l.Versions {
		if strings.EqualFold(name, fileName) {
			delete(l.Versions, name)
		}
	}
	l.Versions[fileName] = version

	return l.save()
}

// Remove drops the entry for a payload file name if one exists and persists
// the ledger. Removing an absent entry is not an error.
func (l *Ledger) Remove(fileName string) error {
	removed := false
	for name := range l.Versions {
		if strings.EqualFold(name, fileName) {
			delete(l.Versions, name)
			removed = true
		}
	}
	if !removed {
		return nil
	}

	return l.save()
}

func (l *Ledger) save() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(l.path, data, 0o644)
}
