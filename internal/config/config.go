package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds deployment parameters for the pypi-deployer binary.
type Config struct {
	// ManifestPath is the path to the Python project manifest (pyproject.toml).
	ManifestPath string `yaml:"manifest_path"`
	// DistFolder is the directory where the build tool writes artifacts.
	DistFolder string `yaml:"dist_folder"`
	// CleanPaths are directories and globs removed before a build.
	CleanPaths []string `yaml:"clean_paths"`
	// BuildCommand is the argv of the tool producing distributable artifacts.
	BuildCommand []string `yaml:"build_command"`
	// PublishCommand is the argv of the tool uploading artifacts to the registry.
	// The expanded artifact paths are appended at invocation time.
	PublishCommand []string `yaml:"publish_command"`
}

const (
	// DefaultConfigFilename is the default filename for deployment settings.
	DefaultConfigFilename = "pypi-deployer-settings.yaml"

	// DefaultManifestFilename is the default Python project manifest.
	DefaultManifestFilename = "pyproject.toml"

	// DefaultDistFolder is the default build output directory.
	DefaultDistFolder = "dist"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errBuildCommandRequired is returned when the build command is empty.
	errBuildCommandRequired = errors.New("build command must be provided")
	// errPublishCommandRequired is returned when the publish command is empty.
	errPublishCommandRequired = errors.New("publish command must be provided")
)

// Default returns settings matching a conventional Python project layout:
// pyproject.toml manifest, dist/ artifacts, PEP 517 build and twine upload.
func Default() *Config {
	return &Config{
		ManifestPath:   DefaultManifestFilename,
		DistFolder:     DefaultDistFolder,
		CleanPaths:     []string{"dist", "build", "*.egg-info"},
		BuildCommand:   []string{"python", "-m", "build"},
		PublishCommand: []string{"python", "-m", "twine", "upload"},
	}
}

// Load reads configuration from the provided path and validates essential fields.
// The default settings file is optional: when it is absent, defaults are
// returned so the tool works in a conventional project without one. An
// explicitly provided path must exist, so a mistyped flag cannot silently
// run with surprise settings.
func Load(path string) (*Config, error) {
	explicit := path != "" && path != DefaultConfigFilename
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ManifestPath == "" {
		cfg.ManifestPath = DefaultManifestFilename
	}

	if cfg.DistFolder == "" {
		cfg.DistFolder = DefaultDistFolder
	}

	if len(cfg.CleanPaths) == 0 {
		cfg.CleanPaths = Default().CleanPaths
	}

	if len(cfg.BuildCommand) == 0 {
		return errBuildCommandRequired
	}

	if len(cfg.PublishCommand) == 0 {
		return errPublishCommandRequired
	}

	return nil
}
