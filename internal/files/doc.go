// Package files provides the file system plumbing shared by the stores and
// the report pipeline: atomic document writes and discovery of published
// report artifacts.
package files
