// Package profile finds Presto profile directories and the containers in
// them, classifies container files and copies them out of a live profile
// before decoding. All file access goes through an afero.Fs so callers and
// tests can substitute an in-memory filesystem.
package profile
