// Package bundler packages a set of already-signed artifacts into a single
// distributable zip with a content manifest. This
// is distinct from the per-artifact integrity signature — it is
// an outer distribution-integrity layer, applied to the bundle as a whole by
// internal/crypto or internal/sigstore.
package bundler

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"runtime/debug"
	"sort"
)

// BundleManifest lists every artifact packaged into a bundle, by relative
// path and content hash, so a recipient can verify nothing was added,
// removed, or altered in transit.
type BundleManifest struct {
	ToolVersion string         `json:"tool_version"`
	Files       []ManifestFile `json:"files"`
}

// ManifestFile is one packaged artifact's identity within the bundle.
type ManifestFile struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// GenerateManifest hashes every artifact in opts.ArtifactPaths (keyed by the
// archive name given in opts.ArtifactNames at the same index) and returns
// the resulting manifest sorted by name for a deterministic bundle layout.
func GenerateManifest(opts BundleOptions) (*BundleManifest, error) {
	manifest := &BundleManifest{
		ToolVersion: getToolVersion(),
		Files:       []ManifestFile{},
	}

	for i, path := range opts.ArtifactPaths {
		name := opts.ArtifactNames[i]
		hash, size, err := hashFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to hash %s: %w", path, err)
		}
		manifest.Files = append(manifest.Files, ManifestFile{Name: name, SHA256: hash, Size: size})
	}

	sort.Slice(manifest.Files, func(i, j int) bool {
		return manifest.Files[i].Name < manifest.Files[j].Name
	})

	return manifest, nil
}

// ToJSON serializes the manifest deterministically (stable key order, 2-space indent).
func (m *BundleManifest) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func hashFile(path string) (string, int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, err
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), int64(len(data)), nil
}

func getToolVersion() string {
	info, ok := debug.ReadBuildInfo()
	if ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}
