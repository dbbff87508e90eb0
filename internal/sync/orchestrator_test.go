package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Svengali/UE4Scripts/internal/config"
	"github.com/Svengali/UE4Scripts/internal/lfs"
	"github.com/Svengali/UE4Scripts/internal/store"
)

// fakeTracker is an in-memory lfs.Tracker.
type fakeTracker struct {
	enabled bool
	clean   bool
	assets  []lfs.TrackedAsset
	listErr error
}

func (f *fakeTracker) IsEnabled(ctx context.Context) (bool, error) { return f.enabled, nil }
func (f *fakeTracker) IsClean(ctx context.Context) (bool, error)   { return f.clean, nil }
func (f *fakeTracker) ListAssets(ctx context.Context) ([]lfs.TrackedAsset, error) {
	return f.assets, f.listErr
}

type orchestratorFixture struct {
	ctx     context.Context
	cfg     *config.Config
	tracker *fakeTracker
	store   *store.LocalStore
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	syncRoot := t.TempDir()
	st, err := store.NewLocalStore(syncRoot)
	require.NoError(t, err)

	cfg := &config.Config{
		SyncRoot:    syncRoot,
		SourceDir:   t.TempDir(),
		ProjectName: "Game",
	}

	return &orchestratorFixture{
		ctx: context.Background(),
		cfg: cfg,
		tracker: &fakeTracker{
			enabled: true,
			clean:   true,
		},
		store: st,
	}
}

func (f *orchestratorFixture) addAsset(t *testing.T, logicalPath, contentID, content string) {
	t.Helper()
	f.tracker.assets = append(f.tracker.assets, lfs.TrackedAsset{
		LogicalPath: logicalPath,
		ContentID:   contentID,
	})
	if !f.locator().IsMapAsset(logicalPath) {
		return
	}
	loc, err := f.locator().Locate(lfs.TrackedAsset{LogicalPath: logicalPath, ContentID: contentID})
	require.NoError(t, err)
	writeFileWithTime(t, loc.LocalPath, content, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
}

func (f *orchestratorFixture) locator() *Locator {
	return NewLocator(f.cfg.SourceDir, f.cfg.ProjectName)
}

func (f *orchestratorFixture) run(t *testing.T, direction Direction) (*RunReport, error) {
	t.Helper()
	return NewOrchestrator(f.cfg, f.tracker, f.store).Run(f.ctx, direction)
}

func TestOrchestrator_PushRun(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.addAsset(t, "Content/Maps/Foo.umap", "abc123", "foo data")
	f.addAsset(t, "Content/Maps/Bar.umap", "def456", "bar data")
	f.addAsset(t, "Content/Textures/Skip.png", "xyz789", "") // not a map asset

	report, err := f.run(t, Push)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Assets, "non-map assets are filtered out")
	assert.Equal(t, 2, report.Transferred)
	assert.Equal(t, 0, report.Warnings)

	exists, err := store.Exists(f.ctx, f.store, "Game/Content/Maps/Foo_BuiltData_abc123.uasset")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOrchestrator_MissingLocalIsWarningNotFailure(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.tracker.assets = []lfs.TrackedAsset{
		{LogicalPath: "Content/Maps/Foo.umap", ContentID: "abc123"},
	}

	report, err := f.run(t, Push)
	require.NoError(t, err, "per-asset warnings never fail the run")
	assert.Equal(t, 1, report.Warnings)
	assert.Equal(t, 0, report.Transferred)
}

func TestOrchestrator_Preconditions(t *testing.T) {
	t.Run("lfs disabled", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		f.tracker.enabled = false

		_, err := f.run(t, Push)
		assert.ErrorIs(t, err, ErrPrecondition)
		assert.Equal(t, ExitPrecondition, ExitCode(err))
	})

	t.Run("dirty working copy", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		f.tracker.clean = false

		_, err := f.run(t, Push)
		assert.ErrorIs(t, err, ErrPrecondition)
	})

	t.Run("dirty allowed with override", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		f.tracker.clean = false
		f.cfg.AllowDirty = true

		_, err := f.run(t, Push)
		assert.NoError(t, err)
	})

	t.Run("dry run continues past failed precondition", func(t *testing.T) {
		f := newOrchestratorFixture(t)
		f.tracker.clean = false
		f.cfg.DryRun = true
		f.addAsset(t, "Content/Maps/Foo.umap", "abc123", "foo data")

		report, err := f.run(t, Push)
		require.NoError(t, err)
		assert.Equal(t, 1, report.Transferred, "dry run still reports decisions")

		exists, err := store.Exists(f.ctx, f.store, "Game/Content/Maps/Foo_BuiltData_abc123.uasset")
		require.NoError(t, err)
		assert.False(t, exists, "dry run mutates nothing")
	})
}

func TestOrchestrator_IncludeExcludeFilters(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.addAsset(t, "Content/Maps/Foo.umap", "abc123", "foo")
	f.addAsset(t, "Content/Maps/Test_Sandbox.umap", "def456", "sandbox")
	f.addAsset(t, "Content/Levels/Deep/Baz.umap", "ghi789", "baz")

	f.cfg.Include = []string{"Content/Maps/**"}
	f.cfg.Exclude = []string{"**/Test_*.umap"}

	report, err := f.run(t, Push)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Assets)

	exists, err := store.Exists(f.ctx, f.store, "Game/Content/Maps/Foo_BuiltData_abc123.uasset")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOrchestrator_PruneRunsAfterTransfers(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.cfg.Prune = true
	f.addAsset(t, "Content/Maps/Foo.umap", "abc123", "current")

	// a superseded version already in the store
	oldKey := "Game/Content/Maps/Foo_BuiltData_old999.uasset"
	oldPath := filepath.Join(f.cfg.SyncRoot, filepath.FromSlash(oldKey))
	writeFileWithTime(t, oldPath, "old", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))

	report, err := f.run(t, Push)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Transferred)
	assert.Equal(t, 1, report.Pruned)

	exists, err := store.Exists(f.ctx, f.store, oldKey)
	require.NoError(t, err)
	assert.False(t, exists, "superseded version pruned after its replacement was pushed")

	exists, err = store.Exists(f.ctx, f.store, "Game/Content/Maps/Foo_BuiltData_abc123.uasset")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestOrchestrator_PullRun(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.addAsset(t, "Content/Maps/Foo.umap", "abc123", "local stale version")

	// remote has the authoritative copy
	loc, err := f.locator().Locate(f.tracker.assets[0])
	require.NoError(t, err)
	remoteSeed := filepath.Join(t.TempDir(), "seed.uasset")
	writeFileWithTime(t, remoteSeed, "authoritative", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, f.store.Upload(f.ctx, loc.RemoteKey, remoteSeed))

	report, err := f.run(t, Pull)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Transferred)

	data, err := os.ReadFile(loc.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, "authoritative", string(data))
}

func TestOrchestrator_DiscoveryFailure(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.tracker.listErr = errors.New("lfs exploded")

	_, err := f.run(t, Push)
	require.Error(t, err)
	assert.Equal(t, ExitRuntime, ExitCode(err))
}
