// Package transfer moves staged pipeline files between the local
// workspace and the file-sync service holding solver inputs and outputs.
package transfer

import (
	"context"
	"io"
)

// FileInfo describes one remote file entry.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Store is the file-sync collaborator. Paths are forward-slash separated
// and relative to the store root.
type Store interface {
	// List enumerates the files directly under dir.
	List(ctx context.Context, dir string) ([]FileInfo, error)
	// Download copies the remote file at path into w.
	Download(ctx context.Context, path string, w io.Writer) error
	// Upload replaces the remote file at path with the contents of r.
	Upload(ctx context.Context, path string, r io.Reader) error
}
