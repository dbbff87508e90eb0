package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Svengali/UE4Scripts/internal/utils"
)

// LocalStore is a Store rooted at a directory on a local or mounted
// filesystem (the common case: a network share used as the sync root).
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	resolved, err := utils.ResolvePath(root)
	if err != nil {
		return nil, fmt.Errorf("resolve store root %q: %w", root, err)
	}
	if !utils.DirExists(resolved) {
		return nil, fmt.Errorf("store root %q: %w", resolved, os.ErrNotExist)
	}
	return &LocalStore{root: resolved}, nil
}

// Root returns the resolved root directory of the store.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) absPath(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

func (s *LocalStore) Stat(ctx context.Context, key string) (*EntryInfo, error) {
	info, err := os.Stat(s.absPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("stat %q: %w", key, ErrNotExist)
		}
		return nil, fmt.Errorf("stat %q: %w", key, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("stat %q: %w", key, ErrNotExist)
	}
	return &EntryInfo{Key: key, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.absPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("open %q: %w", key, ErrNotExist)
		}
		return nil, fmt.Errorf("open %q: %w", key, err)
	}
	return f, nil
}

func (s *LocalStore) Upload(ctx context.Context, key string, localPath string) error {
	if err := utils.CopyFile(localPath, s.absPath(key)); err != nil {
		return fmt.Errorf("upload %q: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Download(ctx context.Context, key string, localPath string) error {
	if err := utils.CopyFile(s.absPath(key), localPath); err != nil {
		return fmt.Errorf("download %q: %w", key, err)
	}
	return nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(s.absPath(key)); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *LocalStore) List(ctx context.Context, dir string, prefix string) ([]*EntryInfo, error) {
	absDir := s.absPath(dir)
	entries, err := os.ReadDir(absDir)
	if err != nil {
		if os.IsNotExist(err) {
			// An asset that was never pushed has no remote directory.
			return nil, nil
		}
		return nil, fmt.Errorf("list %q: %w", dir, err)
	}

	var result []*EntryInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", dir, err)
		}
		result = append(result, &EntryInfo{
			Key:     path.Join(dir, entry.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return result, nil
}
