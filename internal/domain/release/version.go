package release

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrInvalidVersion is returned when input does not follow MAJOR.MINOR.PATCH.
var ErrInvalidVersion = errors.New("invalid version format")

// versionPattern matches strict semantic versions without prerelease or build metadata.
var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)$`)

// Version is a parsed semantic version.
type Version struct {
	// Major is incremented for incompatible API changes.
	Major int
	// Minor is incremented for backwards-compatible functionality.
	Minor int
	// Patch is incremented for backwards-compatible bug fixes.
	Patch int
}

// Parse validates and decomposes a MAJOR.MINOR.PATCH string.
func Parse(s string) (Version, error) {
	matches := versionPattern.FindStringSubmatch(s)
	if matches == nil {
		return Version{}, fmt.Errorf("%w: %q, expected MAJOR.MINOR.PATCH (e.g. 1.0.5)", ErrInvalidVersion, s)
	}

	// Segments are digit-only by the pattern, Atoi cannot fail here.
	major, _ := strconv.Atoi(matches[1])
	minor, _ := strconv.Atoi(matches[2])
	patch, _ := strconv.Atoi(matches[3])

	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

// String renders the version in MAJOR.MINOR.PATCH form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Equal reports whether two versions are identical.
func (v Version) Equal(other Version) bool {
	return v == other
}

// Request captures a validated release: the version currently in the manifest
// and the version the operator asked for. Immutable once built.
type Request struct {
	// PackageName is the distribution name read from the manifest.
	PackageName string
	// Current is the version found in the manifest before mutation.
	Current Version
	// Target is the requested version.
	Target Version
}
