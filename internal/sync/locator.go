package sync

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/Svengali/UE4Scripts/internal/lfs"
)

const (
	// builtDataSuffix is the suffix the editor gives a map's built-data
	// artifact next to the map asset.
	builtDataSuffix = "_BuiltData"

	// artifactExt is the extension of derived built-data artifacts.
	artifactExt = ".uasset"

	// mapAssetExt is the extension of map assets that carry built data.
	mapAssetExt = ".umap"
)

// ArtifactLocation is the resolved local/remote pair for one asset.
type ArtifactLocation struct {
	// LocalPath is the absolute path of the single local artifact copy.
	// It is overwritten in place by pulls.
	LocalPath string

	// RemoteKey addresses the version matching the asset's current content
	// id. Versioned by filename, so a new content id creates a new entry
	// instead of mutating an old one.
	RemoteKey string

	// RemoteDir is the store directory holding the asset's versions.
	RemoteDir string

	// GroupPrefix is the filename prefix shared by every version of this
	// asset (the retention group).
	GroupPrefix string

	// ContentID is the asset's current content id.
	ContentID string
}

// Locator maps tracked assets to artifact locations. Pure; carries only the
// immutable run parameters it derives paths from.
type Locator struct {
	sourceDir   string
	projectName string
}

func NewLocator(sourceDir, projectName string) *Locator {
	return &Locator{sourceDir: sourceDir, projectName: projectName}
}

// IsMapAsset reports whether the logical path names a map asset, i.e. one
// with an associated built-data artifact.
func (l *Locator) IsMapAsset(logicalPath string) bool {
	return strings.EqualFold(path.Ext(logicalPath), mapAssetExt)
}

// Locate resolves the artifact pair for an asset. The remote key is a pure,
// deterministic function of (projectName, logicalPath, contentID): distinct
// inputs never collide because the asset's subdirectory and base name are
// both preserved in the key.
func (l *Locator) Locate(asset lfs.TrackedAsset) (*ArtifactLocation, error) {
	logical := asset.LogicalPath
	if logical == "" || path.IsAbs(logical) || logical != path.Clean(logical) ||
		logical == ".." || strings.HasPrefix(logical, "../") {
		return nil, fmt.Errorf("%w: malformed asset path %q", ErrConfig, asset.LogicalPath)
	}
	if asset.ContentID == "" || strings.ContainsAny(asset.ContentID, `/\`) {
		return nil, fmt.Errorf("%w: malformed content id %q for %q", ErrConfig, asset.ContentID, logical)
	}

	assetDir := path.Dir(logical)
	base := strings.TrimSuffix(path.Base(logical), path.Ext(logical))
	groupPrefix := base + builtDataSuffix + "_"

	localRel := path.Join(assetDir, base+builtDataSuffix+artifactExt)
	remoteDir := path.Join(l.projectName, assetDir)

	return &ArtifactLocation{
		LocalPath:   filepath.Join(l.sourceDir, filepath.FromSlash(localRel)),
		RemoteKey:   path.Join(remoteDir, groupPrefix+asset.ContentID+artifactExt),
		RemoteDir:   remoteDir,
		GroupPrefix: groupPrefix,
		ContentID:   asset.ContentID,
	}, nil
}

// ContentIDFromName extracts the content id embedded in a versioned artifact
// filename. Returns false for names outside the group's naming scheme.
func ContentIDFromName(name, groupPrefix string) (string, bool) {
	if !strings.HasPrefix(name, groupPrefix) || !strings.HasSuffix(name, artifactExt) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(name, groupPrefix), artifactExt)
	if id == "" {
		return "", false
	}
	return id, true
}
