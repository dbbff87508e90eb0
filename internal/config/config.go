package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/Svengali/UE4Scripts/internal/utils"
)

var (
	ErrMissingSyncRoot = errors.New("sync root is required")
)

// Config is the immutable run configuration. It is resolved once from
// flags/env/config file and passed explicitly to every component; nothing
// reads the working directory or environment after this point.
type Config struct {
	// SyncRoot is the shared store location: a directory path or an
	// s3://bucket/prefix URL.
	SyncRoot string `mapstructure:"sync_root"`

	// SourceDir is the project checkout to sync from/to. Defaults to the
	// current directory.
	SourceDir string `mapstructure:"source_dir"`

	// ProjectName namespaces this project's artifacts under the sync root.
	// Defaults to the base name of SourceDir.
	ProjectName string `mapstructure:"project"`

	// Prune deletes superseded remote versions after the transfer pass.
	Prune bool `mapstructure:"prune"`

	// Force transfers even when local and remote look equivalent.
	Force bool `mapstructure:"force"`

	// DryRun reports every decision without mutating anything.
	DryRun bool `mapstructure:"dry_run"`

	// VerifyHash compares full content hashes instead of size+mtime.
	VerifyHash bool `mapstructure:"verify_hash"`

	// AllowDirty skips the clean-working-copy precondition.
	AllowDirty bool `mapstructure:"allow_dirty"`

	// Include/Exclude are doublestar patterns matched against logical
	// asset paths. Empty Include means "all assets".
	Include []string `mapstructure:"include"`
	Exclude []string `mapstructure:"exclude"`

	// S3 options, only consulted for s3:// sync roots.
	S3Region    string `mapstructure:"s3_region"`
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
}

// IsS3Root reports whether the sync root refers to an S3 bucket.
func (c *Config) IsS3Root() bool {
	return strings.HasPrefix(c.SyncRoot, "s3://")
}

// Resolve normalizes paths and fills defaults. Must be called before Validate.
func (c *Config) Resolve() error {
	if c.SourceDir == "" {
		c.SourceDir = "."
	}
	sourceDir, err := utils.ResolvePath(c.SourceDir)
	if err != nil {
		return fmt.Errorf("resolve source dir: %w", err)
	}
	c.SourceDir = sourceDir

	if c.ProjectName == "" {
		c.ProjectName = filepath.Base(c.SourceDir)
	}

	if c.SyncRoot != "" && !c.IsS3Root() {
		syncRoot, err := utils.ResolvePath(c.SyncRoot)
		if err != nil {
			return fmt.Errorf("resolve sync root: %w", err)
		}
		c.SyncRoot = syncRoot
	}
	return nil
}

func (c *Config) Validate() error {
	if c.SyncRoot == "" {
		return ErrMissingSyncRoot
	}
	if !utils.DirExists(c.SourceDir) {
		return fmt.Errorf("source dir does not exist: %s", c.SourceDir)
	}
	if c.ProjectName == "" || strings.ContainsAny(c.ProjectName, `/\`) {
		return fmt.Errorf("invalid project name: %q", c.ProjectName)
	}
	for _, pattern := range append(append([]string{}, c.Include...), c.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern: %q", pattern)
		}
	}
	return nil
}
