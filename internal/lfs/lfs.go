// Package lfs discovers tracked binary assets via the git-lfs command line.
package lfs

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Svengali/UE4Scripts/internal/utils"
)

// TrackedAsset identifies one logical source asset managed by git-lfs.
type TrackedAsset struct {
	// LogicalPath is the asset's path relative to the repository root,
	// always slash-separated.
	LogicalPath string

	// ContentID is the lfs object id for the asset's committed content.
	// Opaque to the sync engine; it changes iff the content changes.
	ContentID string
}

// Tracker enumerates tracked assets and answers precondition checks.
type Tracker interface {
	// IsEnabled reports whether lfs tracking is set up for the repository.
	IsEnabled(ctx context.Context) (bool, error)

	// IsClean reports whether the working copy is clean with respect to
	// tracked binary pointers (no modified or staged lfs files).
	IsClean(ctx context.Context) (bool, error)

	// ListAssets returns all tracked assets with their content ids.
	ListAssets(ctx context.Context) ([]TrackedAsset, error)
}

// GitClient implements Tracker by shelling out to git-lfs.
type GitClient struct {
	repoDir string
}

func NewGitClient(repoDir string) *GitClient {
	return &GitClient{repoDir: repoDir}
}

func (c *GitClient) IsEnabled(ctx context.Context) (bool, error) {
	// A repo has lfs enabled when the lfs hooks/config resolve, which
	// `git lfs env` surfaces without touching any objects.
	if _, err := c.run(ctx, "lfs", "env"); err != nil {
		if _, gitErr := c.run(ctx, "rev-parse", "--git-dir"); gitErr != nil {
			return false, fmt.Errorf("not a git repository: %s", c.repoDir)
		}
		return false, nil
	}
	return true, nil
}

func (c *GitClient) IsClean(ctx context.Context) (bool, error) {
	output, err := c.run(ctx, "lfs", "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("git lfs status: %w", err)
	}
	return strings.TrimSpace(output) == "", nil
}

func (c *GitClient) ListAssets(ctx context.Context) ([]TrackedAsset, error) {
	output, err := c.run(ctx, "lfs", "ls-files", "--long")
	if err != nil {
		return nil, fmt.Errorf("git lfs ls-files: %w", err)
	}
	return ParseLsFiles(output)
}

// ParseLsFiles parses `git lfs ls-files --long` output. Each line has the
// form "<oid> <marker> <path>" where marker is "*" (full content present)
// or "-" (pointer only). Both count as tracked.
func ParseLsFiles(output string) ([]TrackedAsset, error) {
	var assets []TrackedAsset
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.SplitN(line, " ", 3)
		if len(fields) != 3 || (fields[1] != "*" && fields[1] != "-") {
			return nil, fmt.Errorf("unexpected lfs ls-files line: %q", line)
		}

		assets = append(assets, TrackedAsset{
			LogicalPath: utils.NormPath(fields[2]),
			ContentID:   fields[0],
		})
	}
	return assets, nil
}

// run executes git with the given args in the repo dir and returns stdout.
func (c *GitClient) run(ctx context.Context, args ...string) (string, error) {
	fullArgs := append([]string{"-C", c.repoDir}, args...)
	cmd := exec.CommandContext(ctx, "git", fullArgs...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(output), nil
}
