package sync

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Svengali/UE4Scripts/internal/store"
	"github.com/Svengali/UE4Scripts/internal/utils"
)

// DefaultModTimeTolerance absorbs mtime granularity differences between
// filesystems (FAT stores 2-second resolution).
const DefaultModTimeTolerance = 2 * time.Second

// EquivalenceChecker decides whether a local artifact and a remote entry
// should be considered the same. A missing side is never equivalent.
type EquivalenceChecker interface {
	IsEquivalent(ctx context.Context, localPath, remoteKey string) (bool, error)
}

// StatChecker approximates equivalence by size and modification time. This
// deliberately trades a false-equivalence risk (same size, same mtime,
// different bytes) for not re-hashing multi-gigabyte artifacts every run.
// HashChecker is the strict alternative.
type StatChecker struct {
	store     store.Store
	tolerance time.Duration
}

func NewStatChecker(st store.Store) *StatChecker {
	return &StatChecker{store: st, tolerance: DefaultModTimeTolerance}
}

func (c *StatChecker) IsEquivalent(ctx context.Context, localPath, remoteKey string) (bool, error) {
	localInfo, err := os.Stat(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %q: %w", localPath, err)
	}

	remote, err := c.store.Stat(ctx, remoteKey)
	if err != nil {
		if errors.Is(err, store.ErrNotExist) {
			return false, nil
		}
		return false, err
	}

	if localInfo.Size() != remote.Size {
		return false, nil
	}

	delta := localInfo.ModTime().Sub(remote.ModTime)
	if delta < 0 {
		delta = -delta
	}
	return delta <= c.tolerance, nil
}

// HashChecker compares full MD5 content hashes. Strict but reads both
// artifacts end to end.
type HashChecker struct {
	store store.Store
}

func NewHashChecker(st store.Store) *HashChecker {
	return &HashChecker{store: st}
}

func (c *HashChecker) IsEquivalent(ctx context.Context, localPath, remoteKey string) (bool, error) {
	if !utils.FileExists(localPath) {
		return false, nil
	}

	remoteBody, err := c.store.Open(ctx, remoteKey)
	if err != nil {
		if errors.Is(err, store.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer remoteBody.Close()

	localHash, err := utils.FileHash(localPath)
	if err != nil {
		return false, fmt.Errorf("hash %q: %w", localPath, err)
	}

	hash := md5.New()
	if _, err := io.Copy(hash, remoteBody); err != nil {
		return false, fmt.Errorf("hash %q: %w", remoteKey, err)
	}
	remoteHash := fmt.Sprintf("%x", hash.Sum(nil))

	return localHash == remoteHash, nil
}
