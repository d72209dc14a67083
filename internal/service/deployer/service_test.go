package deployer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/pypi-deployer/internal/config"
	"github.com/oshokin/pypi-deployer/internal/domain/release"
	"github.com/oshokin/pypi-deployer/internal/repository/manifest"
)

const testManifest = `[project]
name = "mercury-co-nz-api"
version = "1.0.4"
`

// scriptedConfirmer replays a fixed sequence of answers to the two gates.
type scriptedConfirmer struct {
	answers []bool
}

func (s *scriptedConfirmer) Confirm(_ context.Context, _ string) (bool, error) {
	if len(s.answers) == 0 {
		return false, nil
	}

	answer := s.answers[0]
	s.answers = s.answers[1:]

	return answer, nil
}

// testProject is a throwaway Python project layout with absolute paths.
type testProject struct {
	dir          string
	configPath   string
	manifestPath string
	distFolder   string
}

// newTestProject writes a manifest and a settings file whose build command
// produces one artifact and whose publish command succeeds.
func newTestProject(t *testing.T) *testProject {
	t.Helper()

	dir := t.TempDir()
	p := &testProject{
		dir:          dir,
		configPath:   filepath.Join(dir, "settings.yaml"),
		manifestPath: filepath.Join(dir, "pyproject.toml"),
		distFolder:   filepath.Join(dir, "dist"),
	}

	require.NoError(t, os.WriteFile(p.manifestPath, []byte(testManifest), 0o644))
	p.saveConfig(t,
		[]string{"sh", "-c", fmt.Sprintf("mkdir -p %q && touch %q", p.distFolder, filepath.Join(p.distFolder, "pkg-1.0.5.whl"))},
		[]string{"true"})

	return p
}

// saveConfig persists settings with the provided build and publish commands.
func (p *testProject) saveConfig(t *testing.T, buildCommand, publishCommand []string) {
	t.Helper()

	cfg := &config.Config{
		ManifestPath:   p.manifestPath,
		DistFolder:     p.distFolder,
		CleanPaths:     []string{p.distFolder},
		BuildCommand:   buildCommand,
		PublishCommand: publishCommand,
	}
	require.NoError(t, config.Save(p.configPath, cfg))
}

// run executes the deployer against the project with scripted answers.
func (p *testProject) run(t *testing.T, version string, answers ...bool) error {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	return Run(ctx, &Options{
		ConfigPath: p.configPath,
		Version:    version,
		Confirmer:  &scriptedConfirmer{answers: answers},
		Output:     &bytes.Buffer{},
	})
}

// manifestVersion reads the version currently on disk.
func (p *testProject) manifestVersion(t *testing.T) release.Version {
	t.Helper()

	info, err := manifest.NewFileRepository(p.manifestPath).Read(context.Background())
	require.NoError(t, err)

	return info.Version
}

// backupExists reports whether a backup file is left behind.
func (p *testProject) backupExists() bool {
	_, err := os.Stat(p.manifestPath + manifest.BackupSuffix)
	return err == nil
}

// TestRun_Success walks the happy path: yes/yes, build and publish succeed.
func TestRun_Success(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)

	require.NoError(t, p.run(t, "1.0.5", true, true))
	require.Equal(t, release.Version{Major: 1, Minor: 0, Patch: 5}, p.manifestVersion(t))
	require.False(t, p.backupExists())

	// Artifacts are produced.
	entries, err := os.ReadDir(p.distFolder)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}

// TestRun_InvalidVersion rejects malformed input before any side effect.
func TestRun_InvalidVersion(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)

	err := p.run(t, "1.0")
	require.ErrorIs(t, err, release.ErrInvalidVersion)
	require.Equal(t, release.Version{Major: 1, Minor: 0, Patch: 4}, p.manifestVersion(t))
	require.False(t, p.backupExists())
}

// TestRun_MissingManifest fails the precondition check.
func TestRun_MissingManifest(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)
	require.NoError(t, os.Remove(p.manifestPath))

	err := p.run(t, "1.0.5", true, true)
	require.ErrorIs(t, err, manifest.ErrNotFound)
}

// TestRun_MissingTool fails the preflight when a tool is not on PATH.
func TestRun_MissingTool(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)
	p.saveConfig(t, []string{"definitely-not-a-real-build-tool"}, []string{"true"})

	err := p.run(t, "1.0.5", true, true)
	require.ErrorIs(t, err, errToolMissing)
	require.Equal(t, release.Version{Major: 1, Minor: 0, Patch: 4}, p.manifestVersion(t))
}

// TestRun_DeclineFirstGate leaves the filesystem untouched.
func TestRun_DeclineFirstGate(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)

	require.NoError(t, p.run(t, "1.0.5", false))
	require.Equal(t, release.Version{Major: 1, Minor: 0, Patch: 4}, p.manifestVersion(t))
	require.False(t, p.backupExists())
}

// TestRun_DeclineSecondGate keeps the version bump and the artifacts,
// removes the backup and exits cleanly.
func TestRun_DeclineSecondGate(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)

	require.NoError(t, p.run(t, "1.0.5", true, false))
	require.Equal(t, release.Version{Major: 1, Minor: 0, Patch: 5}, p.manifestVersion(t))
	require.False(t, p.backupExists())

	entries, err := os.ReadDir(p.distFolder)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
}

// TestRun_BuildFailure restores the previous version and removes the backup.
func TestRun_BuildFailure(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)
	p.saveConfig(t, []string{"false"}, []string{"true"})

	err := p.run(t, "1.0.5", true, true)
	require.Error(t, err)
	require.Equal(t, release.Version{Major: 1, Minor: 0, Patch: 4}, p.manifestVersion(t))
	require.False(t, p.backupExists())
}

// TestRun_EmptyArtifactSet treats a build that produces nothing as a failure.
func TestRun_EmptyArtifactSet(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)
	p.saveConfig(t, []string{"true"}, []string{"true"})

	err := p.run(t, "1.0.5", true, true)
	require.ErrorIs(t, err, errNoArtifacts)
	require.Equal(t, release.Version{Major: 1, Minor: 0, Patch: 4}, p.manifestVersion(t))
	require.False(t, p.backupExists())
}

// mismatchRepository delegates to the real repository but reports a stale
// version on every read after a write, simulating a rewrite that did not land.
type mismatchRepository struct {
	*manifest.FileRepository

	wrote bool
}

func (r *mismatchRepository) WriteVersion(ctx context.Context, version release.Version) error {
	r.wrote = true
	return r.FileRepository.WriteVersion(ctx, version)
}

func (r *mismatchRepository) Read(ctx context.Context) (*manifest.Info, error) {
	info, err := r.FileRepository.Read(ctx)
	if err == nil && r.wrote {
		info.Version = release.Version{Major: 0, Minor: 0, Patch: 0}
	}

	return info, err
}

// TestRun_VerificationMismatch exercises the integrity guard: when the
// re-read after the rewrite does not show the requested version, the manifest
// is restored from backup and the backup is removed.
func TestRun_VerificationMismatch(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)

	cfg := &config.Config{
		ManifestPath:   p.manifestPath,
		DistFolder:     p.distFolder,
		CleanPaths:     []string{p.distFolder},
		BuildCommand:   []string{"true"},
		PublishCommand: []string{"true"},
	}

	repo := manifest.NewFileRepository(p.manifestPath)
	d := &deployer{
		cfg:     cfg,
		repo:    &mismatchRepository{FileRepository: repo},
		backup:  manifest.NewBackupManager(repo.Path()),
		confirm: &scriptedConfirmer{answers: []bool{true, true}},
		out:     newPrinter(&bytes.Buffer{}),
	}

	err := d.Run(context.Background(), release.Version{Major: 1, Minor: 0, Patch: 5})
	require.ErrorIs(t, err, errVersionMismatch)

	// Restored-then-deleted.
	require.Equal(t, release.Version{Major: 1, Minor: 0, Patch: 4}, p.manifestVersion(t))
	require.False(t, p.backupExists())
}

// erroringConfirmer fails at the given gate, affirming earlier ones.
type erroringConfirmer struct {
	failAt int
	calls  int
}

func (e *erroringConfirmer) Confirm(_ context.Context, _ string) (bool, error) {
	e.calls++
	if e.calls >= e.failAt {
		return false, context.Canceled
	}

	return true, nil
}

// TestRun_InterruptAtSecondGate verifies an interrupt while waiting on the
// pre-publish prompt rolls the version edit back instead of keeping it.
func TestRun_InterruptAtSecondGate(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)

	err := Run(context.Background(), &Options{
		ConfigPath: p.configPath,
		Version:    "1.0.5",
		Confirmer:  &erroringConfirmer{failAt: 2},
		Output:     &bytes.Buffer{},
	})
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, release.Version{Major: 1, Minor: 0, Patch: 4}, p.manifestVersion(t))
	require.False(t, p.backupExists())
}

// TestRun_PublishFailure restores the previous version but keeps the
// artifacts on disk for inspection.
func TestRun_PublishFailure(t *testing.T) {
	t.Parallel()

	p := newTestProject(t)
	p.saveConfig(t,
		[]string{"sh", "-c", fmt.Sprintf("mkdir -p %q && touch %q", p.distFolder, filepath.Join(p.distFolder, "pkg-1.0.5.whl"))},
		[]string{"false"})

	err := p.run(t, "1.0.5", true, true)
	require.Error(t, err)
	require.Equal(t, release.Version{Major: 1, Minor: 0, Patch: 4}, p.manifestVersion(t))
	require.False(t, p.backupExists())

	entries, readErr := os.ReadDir(p.distFolder)
	require.NoError(t, readErr)
	require.NotEmpty(t, entries)
}
