// Package release holds the domain model of a versioned release:
// the semantic Version type with strict MAJOR.MINOR.PATCH parsing and the
// Request describing a single deployment run.
package release
