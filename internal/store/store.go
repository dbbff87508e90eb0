// Package store abstracts the shared artifact store under the sync root.
//
// Keys are slash-separated paths relative to the store root, e.g.
// "Game/Content/Maps/Foo_BuiltData_abc123.uasset". Implementations must
// preserve the source file's modification time across Upload/Download, as
// the equivalence and retention logic both order artifacts by mtime.
package store

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotExist is returned by Stat/Open when the key has no entry.
	ErrNotExist = errors.New("entry does not exist")
)

// EntryInfo describes a stored artifact.
type EntryInfo struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Store is a write/read target for derived artifacts.
type Store interface {
	// Stat returns metadata for an entry, or ErrNotExist.
	Stat(ctx context.Context, key string) (*EntryInfo, error)

	// Open returns a reader over the entry's content, or ErrNotExist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Upload copies the local file at localPath to key, creating any
	// intermediate directories. An existing entry at key is overwritten.
	Upload(ctx context.Context, key string, localPath string) error

	// Download copies the entry at key to localPath, creating the parent
	// directory and overwriting any existing local file.
	Download(ctx context.Context, key string, localPath string) error

	// Delete removes the entry at key. Deleting a missing key is an error.
	Delete(ctx context.Context, key string) error

	// List returns all entries directly under dir whose base name starts
	// with prefix, in no particular order.
	List(ctx context.Context, dir string, prefix string) ([]*EntryInfo, error)
}

// Exists reports whether key has an entry in s.
func Exists(ctx context.Context, s Store, key string) (bool, error) {
	_, err := s.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
