package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalStore is a Store backed by a local directory tree. It serves local
// pipeline runs and tests; the pipeline itself is agnostic to which Store
// implementation it talks to.
type LocalStore struct {
	root string
}

// NewLocalStore creates a store rooted at dir, creating it if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store root %s: %w", dir, err)
	}
	return &LocalStore{root: dir}, nil
}

// resolve maps a store path onto the root, refusing escapes.
func (s *LocalStore) resolve(path string) (string, error) {
	cleaned := filepath.Clean("/" + strings.TrimPrefix(path, "/"))
	if cleaned == "/" {
		return s.root, nil
	}
	full := filepath.Join(s.root, filepath.FromSlash(cleaned))
	if !strings.HasPrefix(full, s.root) {
		return "", fmt.Errorf("path %q escapes store root", path)
	}
	return full, nil
}

// List implements Store.
func (s *LocalStore) List(_ context.Context, dir string) ([]FileInfo, error) {
	full, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}
		files = append(files, FileInfo{Name: entry.Name(), Size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Download implements Store.
func (s *LocalStore) Download(_ context.Context, path string, w io.Writer) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	f, err := os.Open(full)
	if err != nil {
		return fmt.Errorf("download %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("download %s: %w", path, err)
	}
	return nil
}

// Upload implements Store.
func (s *LocalStore) Upload(_ context.Context, path string, r io.Reader) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("upload %s: %w", path, err)
	}
	return f.Close()
}
