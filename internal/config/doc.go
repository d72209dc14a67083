// Package config defines deployment settings used by the pypi-deployer binary
// and provides helpers to load, validate and save them in YAML format.
//
// The Config type holds the manifest path, the artifact output folder and the
// build and publish command lines. Missing settings fall back to the defaults
// of a conventional Python project.
package config
