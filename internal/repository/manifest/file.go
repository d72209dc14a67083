package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/oshokin/pypi-deployer/internal/domain/release"
)

// Repository defines read and rewrite operations on the project manifest.
type Repository interface {
	Read(ctx context.Context) (*Info, error)
	WriteVersion(ctx context.Context, version release.Version) error
}

// Info is what the deployer needs from the manifest: the distribution name
// and the version currently declared in it.
type Info struct {
	// Name is the value of the `name = "..."` line, empty when absent.
	Name string
	// Version is the parsed value of the `version = "..."` line.
	Version release.Version
}

var (
	// ErrNotFound is returned when the manifest file does not exist.
	ErrNotFound = errors.New("manifest not found")
	// ErrNoVersionLine is returned when no `version = "..."` line is present.
	ErrNoVersionLine = errors.New("no version line in manifest")
)

// Line-anchored so values inside nested tables or comments are not touched.
var (
	namePattern    = regexp.MustCompile(`(?m)^name = "([^"]+)"$`)
	versionPattern = regexp.MustCompile(`(?m)^version = "([^"]+)"$`)
)

// FileRepository reads and rewrites a pyproject.toml-style manifest on disk.
// Only the first version line is ever rewritten, the rest of the file is
// preserved byte for byte.
type FileRepository struct {
	// path is the filesystem location of the manifest.
	path string
	// mu protects concurrent access to the manifest file.
	mu sync.Mutex
}

// NewFileRepository creates a repository for the manifest at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the cleaned manifest location.
func (r *FileRepository) Path() string {
	return r.path
}

// Read extracts the distribution name and current version from the manifest.
func (r *FileRepository) Read(_ context.Context) (*Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", r.path, ErrNotFound)
		}

		return nil, fmt.Errorf("read manifest: %w", err)
	}

	versionMatch := versionPattern.FindSubmatch(contents)
	if versionMatch == nil {
		return nil, fmt.Errorf("%s: %w", r.path, ErrNoVersionLine)
	}

	version, err := release.Parse(string(versionMatch[1]))
	if err != nil {
		return nil, fmt.Errorf("manifest version: %w", err)
	}

	info := &Info{
		Version: version,
	}

	if nameMatch := namePattern.FindSubmatch(contents); nameMatch != nil {
		info.Name = string(nameMatch[1])
	}

	return info, nil
}

// WriteVersion replaces the first version line with the provided version.
// The file is rewritten in full with its original permissions; all content
// outside the version line is kept unchanged.
func (r *FileRepository) WriteVersion(_ context.Context, version release.Version) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fileInfo, err := os.Stat(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", r.path, ErrNotFound)
		}

		return fmt.Errorf("stat manifest: %w", err)
	}

	contents, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	location := versionPattern.FindIndex(contents)
	if location == nil {
		return fmt.Errorf("%s: %w", r.path, ErrNoVersionLine)
	}

	replacement := fmt.Sprintf("version = %q", version.String())

	updated := make([]byte, 0, len(contents)+len(replacement))
	updated = append(updated, contents[:location[0]]...)
	updated = append(updated, replacement...)
	updated = append(updated, contents[location[1]:]...)

	if err := os.WriteFile(r.path, updated, fileInfo.Mode().Perm()); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

var _ Repository = (*FileRepository)(nil)
