package install

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"modkit/internal/download"
	"modkit/internal/ledger"
	"modkit/internal/registry"
)

// Manager installs and removes mod payloads in the local packages
// directory. Every operation reports an OperationResult; transport and
// filesystem faults never escape as errors or panics.
type Manager struct {
	packagesDir string
	downloader  *download.Downloader
	ledger      *ledger.Ledger
	invalidate  func()
	logger      *log.Logger
}

// NewManager creates an install manager. invalidate is called after any
// operation that changes installed state, so the registry cache refetches.
func NewManager(packagesDir string, dl *download.Downloader, l *ledger.Ledger, invalidate func(), logger *log.Logger) *Manager {
	if invalidate == nil {
		invalidate = func() {}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		packagesDir: packagesDir,
		downloader:  dl,
		ledger:      l,
		invalidate:  invalidate,
		logger:      logger,
	}
}

// DownloadAndInstall streams the mod's resolved payload to a temporary
// file, places it in the packages directory, and records the installed
// version. The temporary file is removed on every exit path. Progress runs
// 0-10 preparing, 10-80 downloading, 80-100 installing, and a successful
// operation always ends with one event at exactly 100.
func (m *Manager) DownloadAndInstall(ctx context.Context, mod *registry.Mod, report download.Func) registry.OperationResult {
	if mod.DownloadURL == "" {
		return failure(mod, registry.NewEngineError(registry.ErrAssetMissing,
			fmt.Sprintf("no release resolved for %s", mod.ID)))
	}

	if err := os.MkdirAll(m.packagesDir, 0o755); err != nil {
		return failure(mod, registry.NewEngineError(registry.ErrFilesystem,
			fmt.Sprintf("could not create packages directory: %v", err)))
	}

	tmp, err := os.CreateTemp("", "modkit-download-*")
	if err != nil {
		return failure(mod, registry.NewEngineError(registry.ErrFilesystem,
			fmt.Sprintf("could not create temporary file: %v", err)))
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := m.downloader.Fetch(ctx, mod.DownloadURL, tmp, report); err != nil {
		return failure(mod, err)
	}
	if err := tmp.Close(); err != nil {
		return failure(mod, registry.NewEngineError(registry.ErrFilesystem,
			fmt.Sprintf("could not finish writing download: %v", err)))
	}

	emit(report, download.Progress{Percent: download.PercentDownloaded, TotalBytes: -1, Status: "Installing"})

	installedPath, err := m.place(tmp.Name(), mod)
	if err != nil {
		return failure(mod, err)
	}

	if mod.Version != "" {
		if err := m.ledger.Set(mod.FileName, mod.Version); err != nil {
			m.logger.Warn("could not record installed version", "mod", mod.ID, "err", err)
		}
	}
	m.invalidate()

	emit(report, download.Progress{Percent: 100, TotalBytes: -1, Status: "Complete"})

	return registry.OperationResult{
		Success:       true,
		Message:       fmt.Sprintf("Installed %s %s", mod.Name, mod.Version),
		InstalledPath: installedPath,
		Mod:           mod,
	}
}

// place puts the downloaded payload into the packages directory. A .zip
// download is treated as an archive; anything else is the payload itself.
func (m *Manager) place(tmpPath string, mod *registry.Mod) (string, error) {
	if isArchiveURL(mod.DownloadURL) {
		return m.placeFromArchive(tmpPath, mod)
	}

	dest := filepath.Join(m.packagesDir, mod.FileName)
	if err := copyFile(tmpPath, dest); err != nil {
		return "", registry.NewEngineError(registry.ErrFilesystem,
			fmt.Sprintf("could not copy %s into place: %v", mod.FileName, err))
	}
	return dest, nil
}

// placeFromArchive extracts the archive into a call-scoped temporary
// directory, locates the payload file inside it, and copies it (plus a
// same-named .json sidecar when one sits beside it) into the packages
// directory. Extraction never touches the packages directory directly, so
// a bad archive leaves any existing install intact.
func (m *Manager) placeFromArchive(tmpPath string, mod *registry.Mod) (string, error) {
	extractDir, err := os.MkdirTemp("", "modkit-extract-*")
	if err != nil {
		return "", registry.NewEngineError(registry.ErrFilesystem,
			fmt.Sprintf("could not create extraction directory: %v", err))
	}
	defer os.RemoveAll(extractDir)

	if err := unzip(tmpPath, extractDir); err != nil {
		return "", registry.NewEngineError(registry.ErrBadDocument,
			fmt.Sprintf("archive for %s did not extract: %v", mod.ID, err))
	}

	payloadPath, err := findPayload(extractDir, mod.FileName)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(m.packagesDir, mod.FileName)
	if err := copyFile(payloadPath, dest); err != nil {
		return "", registry.NewEngineError(registry.ErrFilesystem,
			fmt.Sprintf("could not copy %s into place: %v", mod.FileName, err))
	}

	sidecar := sidecarName(payloadPath)
	if _, err := os.Stat(sidecar); err == nil {
		sidecarDest := filepath.Join(m.packagesDir, sidecarName(mod.FileName))
		if err := copyFile(sidecar, sidecarDest); err != nil {
			m.logger.Warn("could not copy sidecar manifest", "mod", mod.ID, "err", err)
		}
	}

	return dest, nil
}

// findPayload searches the extraction directory recursively for the payload
// file.
func findPayload(root, fileName string) (string, error) {
	var found string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(d.Name(), fileName) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", registry.NewEngineError(registry.ErrFilesystem,
			fmt.Sprintf("could not search extracted archive: %v", err))
	}

	if found == "" {
		return "", registry.NewEngineError(registry.ErrAssetMissing,
			fmt.Sprintf("archive does not contain %s", fileName))
	}
	return found, nil
}

// unzip extracts a zip archive into destDir, refusing entries that would
// escape it.
func unzip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if err := extractZipEntry(file, destDir); err != nil {
			return fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
	}

	return nil
}

func extractZipEntry(file *zip.File, destDir string) error {
	cleanName := filepath.Clean(file.Name)
	if strings.Contains(cleanName, "..") {
		return fmt.Errorf("invalid file path: %s", file.Name)
	}

	destPath := filepath.Join(destDir, cleanName)

	if file.FileInfo().IsDir() {
		return os.MkdirAll(destPath, 0o755)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, src)
	return err
}

// sidecarName maps a payload path to its optional .json manifest beside it.
func sidecarName(payloadPath string) string {
	return strings.TrimSuffix(payloadPath, filepath.Ext(payloadPath)) + ".json"
}

func isArchiveURL(url string) bool {
	return strings.HasSuffix(strings.ToLower(url), ".zip")
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func emit(report download.Func, p download.Progress) {
	if report != nil {
		report(p)
	}
}

// failure converts an engine error into the outcome value a caller sees,
// phrasing the message by failure category so the UI knows whether a retry
// is worth offering.
func failure(mod *registry.Mod, err error) registry.OperationResult {
	message := err.Error()

	var engineErr *registry.EngineError
	if errors.As(err, &engineErr) {
		switch engineErr.Category() {
		case registry.CategoryTransient:
			message = fmt.Sprintf("%s is temporarily unavailable, try again later (%s)", mod.Name, engineErr.Message)
		case registry.CategoryEnvironment:
			message = fmt.Sprintf("%s could not be installed: %s — close the running application and try again", mod.Name, engineErr.Message)
		default:
			message = fmt.Sprintf("could not find a working download for %s: %s", mod.Name, engineErr.Message)
		}
	}

	return registry.OperationResult{
		Success: false,
		Message: message,
		Mod:     mod,
	}
}
