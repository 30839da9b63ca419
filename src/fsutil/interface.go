package fsutil

import "io"

// FileStore provides an interface for file system operations
type FileStore interface {
	// WriteFile streams r into a new file at path, truncating any existing file
	WriteFile(path string, r io.Reader) (int64, error)

	// ReadFile reads a file and returns its contents
	ReadFile(path string) ([]byte, error)

	// MakeDirectory creates a new directory and all necessary parents
	MakeDirectory(path string) error

	// Remove deletes a single file. Removing a missing file is not an error.
	Remove(path string) error

	// GetFileStats returns the total count and size of files in a directory
	GetFileStats(path string) (Stat, error)
}

// Stat represents statistics about files in a directory
type Stat struct {
	Count int   `json:"count"`
	Size  int64 `json:"size"`
}
