// Package deployer implements the release workflow for a Python package:
// bump the manifest version, build distributable artifacts and upload them
// to a package registry.
//
// The workflow is a linear sequence of stages—validate, tool preflight,
// confirm, backup, mutate, clean, build, artifact check, confirm, publish.
// A backup of the manifest is taken before the mutation; any failure in a
// later stage restores the manifest and removes the backup. Declining the
// first gate leaves the filesystem untouched; declining the second keeps the
// version bump and the artifacts for a manual upload.
package deployer
