package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/pypi-deployer/internal/domain/release"
)

const sampleManifest = `[build-system]
requires = ["setuptools>=61.0"]
build-backend = "setuptools.build_meta"

[project]
name = "mercury-co-nz-api"
version = "1.0.4"
description = "API client"

[tool.pytest.ini_options]
addopts = "-ra"
`

// writeManifest creates a manifest file in a temp dir and returns its path.
func writeManifest(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pyproject.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

// TestFileRepository_NotFound verifies Read returns ErrNotFound for a missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.toml"))

	info, err := repo.Read(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, info)
}

// TestFileRepository_Read extracts name and version from a realistic manifest.
func TestFileRepository_Read(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(writeManifest(t, sampleManifest))

	info, err := repo.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, "mercury-co-nz-api", info.Name)
	require.Equal(t, release.Version{Major: 1, Minor: 0, Patch: 4}, info.Version)
}

// TestFileRepository_Read_NoVersionLine rejects manifests without a version line.
func TestFileRepository_Read_NoVersionLine(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(writeManifest(t, "[project]\nname = \"x\"\n"))

	_, err := repo.Read(context.Background())
	require.ErrorIs(t, err, ErrNoVersionLine)
}

// TestFileRepository_WriteVersion rewrites only the version line.
func TestFileRepository_WriteVersion(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, sampleManifest)
	repo := NewFileRepository(path)

	target := release.Version{Major: 1, Minor: 0, Patch: 5}
	require.NoError(t, repo.WriteVersion(context.Background(), target))

	info, err := repo.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, target, info.Version)

	// Everything outside the version line is untouched.
	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	want := versionPattern.ReplaceAll([]byte(sampleManifest), []byte(`version = "1.0.5"`))
	require.Equal(t, string(want), string(contents))
}

// TestFileRepository_WriteVersion_Missing fails cleanly when there is no manifest.
func TestFileRepository_WriteVersion_Missing(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.toml"))

	err := repo.WriteVersion(context.Background(), release.Version{Major: 1})
	require.ErrorIs(t, err, ErrNotFound)
}
