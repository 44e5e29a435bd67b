package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

const tempSuffix = ".tmp"

// FileStore keeps one file per component in a directory.
type FileStore struct {
	dir string
}

// Usage describes the disk footprint of a FileStore.
type Usage struct {
	Files     int
	Bytes     int64
	FreeBytes int64
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmtErrorf("directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmtErrorf("failed to create config directory '%s': %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Load returns the configuration stored under name. The error wraps
// fs.ErrNotExist when there is none.
func (s *FileStore) Load(name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmtErrorf("failed to read config '%s': %w", name, err)
	}
	return data, nil
}

// Save replaces the configuration stored under name. The file is written
// beside its target and renamed over it, so a reader never sees a partial
// configuration.
func (s *FileStore) Save(name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	path := filepath.Join(s.dir, name)
	tmp := path + tempSuffix

	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmtErrorf("failed to create config file '%s': %w", tmp, err)
	}
	_, err = file.Write(data)
	if syncErr := file.Sync(); err == nil {
		err = syncErr
	}
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmtErrorf("failed to write config '%s': %w", name, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmtErrorf("failed to replace config '%s': %w", name, err)
	}
	return nil
}

// Erase removes every stored configuration.
func (s *FileStore) Erase() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmtErrorf("failed to read config directory '%s': %w", s.dir, err)
	}

	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmtErrorf("failed to erase configs: %w", errors.Join(errs...))
	}
	return nil
}

// Names lists the stored configurations.
func (s *FileStore) Names() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmtErrorf("failed to read config directory '%s': %w", s.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), tempSuffix) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// Usage reports the stored file count and size and the free space left on
// the underlying filesystem.
func (s *FileStore) Usage() (Usage, error) {
	var usage Usage
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return usage, fmtErrorf("failed to read config directory '%s': %w", s.dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, errInfo := entry.Info()
		if errInfo != nil {
			continue
		}
		usage.Files++
		usage.Bytes += info.Size()
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(s.dir, &stat); err != nil {
		return usage, fmtErrorf("failed to get disk stats for '%s': %w", s.dir, err)
	}
	usage.FreeBytes = int64(stat.Bavail) * int64(stat.Bsize)
	return usage, nil
}
