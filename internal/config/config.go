package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config is the CLI configuration stored at ~/.modkit/config.toml.
type Config struct {
	RegistryURL     string   `toml:"registry_url"`
	PackagesDir     string   `toml:"packages_dir"`
	GitHubToken     string   `toml:"github_token,omitempty"`
	PayloadPatterns []string `toml:"payload_patterns,omitempty"`
}

// ConfigDir returns the CLI config directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".modkit"), nil
}

// ConfigPath returns the full path to config.toml.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the configuration, returning zero values when no config file
// exists yet. The MODKIT_REGISTRY_URL and MODKIT_GITHUB_TOKEN environment
// variables override the file.
func Load() (Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}

	cfg, err := loadFile(configPath)
	if err != nil {
		return Config{}, err
	}

	if v := os.Getenv("MODKIT_REGISTRY_URL"); v != "" {
		cfg.RegistryURL = v
	}
	if v := os.Getenv("MODKIT_GITHUB_TOKEN"); v != "" {
		cfg.GitHubToken = v
	}

	return cfg, nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Save writes the configuration to ~/.modkit/config.toml. Tokens live in
// this file, so it is not world-readable.
func Save(cfg Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	return saveFile(cfg, configPath)
}

func saveFile(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}
