package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_ResolveDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{SyncRoot: dir, SourceDir: dir}

	require.NoError(t, cfg.Resolve())
	assert.Equal(t, filepath.Base(dir), cfg.ProjectName, "project defaults to source dir name")
	assert.True(t, filepath.IsAbs(cfg.SourceDir))
	assert.True(t, filepath.IsAbs(cfg.SyncRoot))
}

func TestConfig_ResolveKeepsS3Root(t *testing.T) {
	cfg := &Config{SyncRoot: "s3://bucket/prefix", SourceDir: t.TempDir()}
	require.NoError(t, cfg.Resolve())
	assert.Equal(t, "s3://bucket/prefix", cfg.SyncRoot)
	assert.True(t, cfg.IsS3Root())
}

func TestConfig_Validate(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing sync root", func(t *testing.T) {
		cfg := &Config{SourceDir: dir}
		require.NoError(t, cfg.Resolve())
		assert.ErrorIs(t, cfg.Validate(), ErrMissingSyncRoot)
	})

	t.Run("missing source dir", func(t *testing.T) {
		cfg := &Config{SyncRoot: dir, SourceDir: filepath.Join(dir, "nope")}
		cfg.ProjectName = "Game"
		err := cfg.Validate()
		assert.ErrorContains(t, err, "source dir")
	})

	t.Run("invalid project name", func(t *testing.T) {
		cfg := &Config{SyncRoot: dir, SourceDir: dir, ProjectName: "a/b"}
		assert.ErrorContains(t, cfg.Validate(), "project name")
	})

	t.Run("invalid glob pattern", func(t *testing.T) {
		cfg := &Config{SyncRoot: dir, SourceDir: dir, ProjectName: "Game", Include: []string{"[bad"}}
		assert.ErrorContains(t, cfg.Validate(), "glob")
	})

	t.Run("valid", func(t *testing.T) {
		cfg := &Config{
			SyncRoot: dir, SourceDir: dir, ProjectName: "Game",
			Include: []string{"Content/Maps/**"}, Exclude: []string{"**/Test*.umap"},
		}
		assert.NoError(t, cfg.Validate())
	})
}
