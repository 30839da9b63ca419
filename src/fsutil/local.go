package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// LocalFileStore implements FileStore using the local filesystem
type LocalFileStore struct{}

// NewLocalFileStore creates a new LocalFileStore
func NewLocalFileStore() FileStore {
	return &LocalFileStore{}
}

func (s *LocalFileStore) WriteFile(path string, r io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return n, fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("failed to close file: %w", err)
	}
	return n, nil
}

func (s *LocalFileStore) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (s *LocalFileStore) MakeDirectory(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (s *LocalFileStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalFileStore) GetFileStats(path string) (Stat, error) {
	var stat Stat

	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stat, nil
		}
		return stat, err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return Stat{}, err
		}
		stat.Count++
		stat.Size += info.Size()
	}

	return stat, nil
}
