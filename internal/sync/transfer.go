package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/Svengali/UE4Scripts/internal/store"
	"github.com/Svengali/UE4Scripts/internal/utils"
)

type Direction string

const (
	// Push copies local artifacts into the store.
	Push Direction = "push"
	// Pull copies store artifacts over the local copies.
	Pull Direction = "pull"
)

type Outcome string

const (
	OutcomePushed  Outcome = "Pushed"
	OutcomePulled  Outcome = "Pulled"
	OutcomeSkipped Outcome = "Skipped"
	// OutcomeSkippedMissingSource means the transfer's source side does not
	// exist. A warning, never a run failure.
	OutcomeSkippedMissingSource Outcome = "SkippedMissingSource"
	OutcomeWouldPush            Outcome = "WouldPush"
	OutcomeWouldPull            Outcome = "WouldPull"
)

// Engine performs one-directional artifact transfers.
//
// Pushes never overwrite a differently-identified remote version: each
// content id maps to its own key, so only a re-push of the same id touches
// an existing entry (idempotent). Pulls overwrite the local artifact
// unconditionally; once a synchronized remote copy exists the local file is
// disposable.
type Engine struct {
	store   store.Store
	checker EquivalenceChecker
}

func NewEngine(st store.Store, checker EquivalenceChecker) *Engine {
	return &Engine{store: st, checker: checker}
}

func (e *Engine) Transfer(ctx context.Context, direction Direction, loc *ArtifactLocation, force, dryRun bool) (Outcome, error) {
	equivalent, err := e.checker.IsEquivalent(ctx, loc.LocalPath, loc.RemoteKey)
	if err != nil {
		return "", err
	}
	if equivalent && !force {
		slog.Info("skipped, local and remote are equivalent", "local", loc.LocalPath, "remote", loc.RemoteKey)
		return OutcomeSkipped, nil
	}

	switch direction {
	case Push:
		return e.push(ctx, loc, dryRun)
	case Pull:
		return e.pull(ctx, loc, dryRun)
	default:
		return "", fmt.Errorf("%w: unknown direction %q", ErrConfig, direction)
	}
}

func (e *Engine) push(ctx context.Context, loc *ArtifactLocation, dryRun bool) (Outcome, error) {
	info, err := os.Stat(loc.LocalPath)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("push skipped, local artifact missing", "local", loc.LocalPath)
			return OutcomeSkippedMissingSource, nil
		}
		return "", fmt.Errorf("stat %q: %w", loc.LocalPath, err)
	}

	if dryRun {
		slog.Info("Would have pushed", "local", loc.LocalPath, "remote", loc.RemoteKey,
			"size", humanize.Bytes(uint64(info.Size())))
		return OutcomeWouldPush, nil
	}

	if err := e.store.Upload(ctx, loc.RemoteKey, loc.LocalPath); err != nil {
		return "", err
	}
	slog.Info("pushed", "local", loc.LocalPath, "remote", loc.RemoteKey,
		"size", humanize.Bytes(uint64(info.Size())))
	return OutcomePushed, nil
}

func (e *Engine) pull(ctx context.Context, loc *ArtifactLocation, dryRun bool) (Outcome, error) {
	remote, err := e.store.Stat(ctx, loc.RemoteKey)
	if err != nil {
		if errors.Is(err, store.ErrNotExist) {
			slog.Warn("pull skipped, remote artifact missing", "remote", loc.RemoteKey)
			return OutcomeSkippedMissingSource, nil
		}
		return "", err
	}

	if dryRun {
		slog.Info("Would have pulled", "remote", loc.RemoteKey, "local", loc.LocalPath,
			"size", humanize.Bytes(uint64(remote.Size)))
		return OutcomeWouldPull, nil
	}

	if err := utils.EnsureParent(loc.LocalPath); err != nil {
		return "", err
	}
	if err := e.store.Download(ctx, loc.RemoteKey, loc.LocalPath); err != nil {
		return "", err
	}
	slog.Info("pulled", "remote", loc.RemoteKey, "local", loc.LocalPath,
		"size", humanize.Bytes(uint64(remote.Size)))
	return OutcomePulled, nil
}
