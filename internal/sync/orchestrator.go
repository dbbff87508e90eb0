package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Svengali/UE4Scripts/internal/config"
	"github.com/Svengali/UE4Scripts/internal/lfs"
	"github.com/Svengali/UE4Scripts/internal/store"
)

// Orchestrator drives a full sync run: precondition checks, a transfer pass
// over every tracked map asset, then an optional retention pass.
//
// The two passes are an explicit contract, not a call-order convention: an
// asset's current version must be confirmed present in the store (which the
// transfer pass establishes for pushes) before its older versions become
// deletion candidates. Assets are processed strictly one at a time.
type Orchestrator struct {
	cfg     *config.Config
	tracker lfs.Tracker
	locator *Locator
	engine  *Engine
	pruner  *Pruner
}

func NewOrchestrator(cfg *config.Config, tracker lfs.Tracker, st store.Store) *Orchestrator {
	var checker EquivalenceChecker
	if cfg.VerifyHash {
		checker = NewHashChecker(st)
	} else {
		checker = NewStatChecker(st)
	}

	return &Orchestrator{
		cfg:     cfg,
		tracker: tracker,
		locator: NewLocator(cfg.SourceDir, cfg.ProjectName),
		engine:  NewEngine(st, checker),
		pruner:  NewPruner(st),
	}
}

func (o *Orchestrator) Run(ctx context.Context, direction Direction) (*RunReport, error) {
	report := &RunReport{Direction: direction, DryRun: o.cfg.DryRun}

	if err := o.verifyPreconditions(ctx); err != nil {
		if !o.cfg.DryRun {
			return report, err
		}
		// Dry runs keep going so the full decision log is still produced.
		slog.Warn("continuing despite failed precondition (dry run)", "error", err)
	}

	assets, err := o.tracker.ListAssets(ctx)
	if err != nil {
		return report, fmt.Errorf("asset discovery: %w", err)
	}
	assets = o.filterAssets(assets)
	report.Assets = len(assets)
	slog.Info("starting transfer pass", "direction", direction, "assets", len(assets), "dryRun", o.cfg.DryRun)

	for _, asset := range assets {
		loc, err := o.locator.Locate(asset)
		if err != nil {
			return report, err
		}
		outcome, err := o.engine.Transfer(ctx, direction, loc, o.cfg.Force, o.cfg.DryRun)
		if err != nil {
			return report, fmt.Errorf("transfer %s: %w", asset.LogicalPath, err)
		}
		report.Record(outcome)
	}

	if o.cfg.Prune {
		slog.Info("starting retention pass", "assets", len(assets))
		for _, asset := range assets {
			loc, err := o.locator.Locate(asset)
			if err != nil {
				return report, err
			}
			deletions, err := o.pruner.Prune(ctx, loc, o.cfg.DryRun)
			if err != nil {
				return report, err
			}
			report.RecordPrune(deletions)
		}
	}

	return report, nil
}

func (o *Orchestrator) verifyPreconditions(ctx context.Context) error {
	enabled, err := o.tracker.IsEnabled(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPrecondition, err)
	}
	if !enabled {
		return fmt.Errorf("%w: lfs tracking is not enabled for %s", ErrPrecondition, o.cfg.SourceDir)
	}

	if o.cfg.AllowDirty {
		return nil
	}
	clean, err := o.tracker.IsClean(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPrecondition, err)
	}
	if !clean {
		return fmt.Errorf("%w: working copy has modified tracked binaries (use --allow-dirty to override)", ErrPrecondition)
	}
	return nil
}

// filterAssets keeps map assets matching the include patterns (all, when
// none are set) and none of the exclude patterns. Patterns were validated
// with the config.
func (o *Orchestrator) filterAssets(assets []lfs.TrackedAsset) []lfs.TrackedAsset {
	var kept []lfs.TrackedAsset
	for _, asset := range assets {
		if !o.locator.IsMapAsset(asset.LogicalPath) {
			continue
		}
		if len(o.cfg.Include) > 0 && !matchesAny(o.cfg.Include, asset.LogicalPath) {
			slog.Debug("asset not included", "path", asset.LogicalPath)
			continue
		}
		if matchesAny(o.cfg.Exclude, asset.LogicalPath) {
			slog.Debug("asset excluded", "path", asset.LogicalPath)
			continue
		}
		kept = append(kept, asset)
	}
	return kept
}

func matchesAny(patterns []string, logicalPath string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, logicalPath); ok {
			return true
		}
	}
	return false
}
