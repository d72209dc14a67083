// Package manifest provides access to the Python project manifest
// (pyproject.toml) and the backup lifecycle around its mutation.
//
// FileRepository extracts the distribution name and version and rewrites the
// single version line while preserving everything else byte for byte.
// BackupManager copies the manifest aside before mutation and restores it
// through a checksummed atomic apply when a later stage fails.
package manifest
