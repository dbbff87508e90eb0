package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Svengali/UE4Scripts/internal/store"
)

// Deletion records one pruned (or would-be pruned) remote version.
type Deletion struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Pruner deletes superseded remote versions of an asset.
type Pruner struct {
	store store.Store
}

func NewPruner(st store.Store) *Pruner {
	return &Pruner{store: st}
}

// Prune removes every version in the asset's retention group that has a
// different content id than the current one and is not newer than it.
//
// Safety rules, in order:
//   - If the current version is absent from the store, nothing is deleted.
//     This checkout may simply be behind a newer push from someone else;
//     pruning on that basis could destroy versions ahead of us.
//   - A version whose mtime is strictly newer than the current version's is
//     kept. It came from a more recent contributor.
//   - The current version itself is never a candidate.
//
// Listing failures skip the group with a warning. Deletion failures are
// run-fatal.
func (p *Pruner) Prune(ctx context.Context, loc *ArtifactLocation, dryRun bool) ([]Deletion, error) {
	current, err := p.store.Stat(ctx, loc.RemoteKey)
	if err != nil {
		if errors.Is(err, store.ErrNotExist) {
			slog.Warn("prune skipped, current version not in store (checkout may be behind)",
				"remote", loc.RemoteKey)
			return nil, nil
		}
		slog.Warn("prune skipped, cannot stat current version", "remote", loc.RemoteKey, "error", err)
		return nil, nil
	}

	entries, err := p.store.List(ctx, loc.RemoteDir, loc.GroupPrefix)
	if err != nil {
		slog.Warn("prune skipped, cannot list retention group", "dir", loc.RemoteDir, "error", err)
		return nil, nil
	}

	var deletions []Deletion
	for _, entry := range entries {
		id, ok := ContentIDFromName(path.Base(entry.Key), loc.GroupPrefix)
		if !ok || id == loc.ContentID {
			continue
		}
		if entry.ModTime.After(current.ModTime) {
			slog.Debug("keeping version newer than current", "remote", entry.Key)
			continue
		}

		if dryRun {
			slog.Info("Would have pruned", "remote", entry.Key,
				"size", humanize.Bytes(uint64(entry.Size)))
		} else {
			if err := p.store.Delete(ctx, entry.Key); err != nil {
				return deletions, fmt.Errorf("prune %q: %w", entry.Key, err)
			}
			slog.Info("pruned", "remote", entry.Key, "size", humanize.Bytes(uint64(entry.Size)))
		}
		deletions = append(deletions, Deletion{Key: entry.Key, Size: entry.Size, ModTime: entry.ModTime})
	}
	return deletions, nil
}
