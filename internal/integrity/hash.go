// Package integrity computes the unified SHA-256 hashes that back artifact
// signatures, using a sorted-key canonical-JSON
// approach generalized across the three artifact kinds.
package integrity

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"time"
)

// ContentHash returns the raw 64-character hex SHA-256 digest of content.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first 12 hex characters of a full hash, for display
// only — integrity decisions always compare the full 64 characters.
func ShortHash(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12]
}

// Timestamp returns t formatted as required by the signature line:
// RFC-3339 UTC with second precision and a literal "Z".
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

func hashPayload(payload []interface{}) (string, error) {
	canonical, err := Canonicalize(toInterfaceSlice(payload))
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func toInterfaceSlice(v []interface{}) interface{} {
	out := make([]interface{}, len(v))
	copy(out, v)
	return out
}

// FileEntry is one {path, sha256} entry in a tool's files[] hash input.
type FileEntry struct {
	Path   string
	SHA256 string
}

// Directive computes H(name, version, xml_content, {category, description, model_tier}).
func Directive(name, version, xmlContent, category, description, modelTier string) (string, error) {
	meta := map[string]interface{}{
		"category":    category,
		"description": description,
		"model_tier":  modelTier,
	}
	return hashPayload([]interface{}{name, version, xmlContent, meta})
}

// Knowledge computes H(id, version, content, {category, entry_type, tags_sorted}).
func Knowledge(id, version, content, category, entryType string, tags []string) (string, error) {
	sorted := append([]string(nil), tags...)
	sort.Strings(sorted)
	tagsIface := make([]interface{}, len(sorted))
	for i, t := range sorted {
		tagsIface[i] = t
	}
	meta := map[string]interface{}{
		"category":    category,
		"entry_type":  entryType,
		"tags_sorted": tagsIface,
	}
	return hashPayload([]interface{}{id, version, content, meta})
}

// Tool computes H(tool_id, version, manifest, files[]), with files sorted by
// path for stability. manifest should already exclude transient fields
// (executor-resolution results, runtime-only state).
func Tool(toolID, version string, manifest map[string]interface{}, files []FileEntry) (string, error) {
	sorted := append([]FileEntry(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	filesIface := make([]interface{}, len(sorted))
	for i, f := range sorted {
		filesIface[i] = map[string]interface{}{"path": f.Path, "sha256": f.SHA256}
	}
	manifestIface := interface{}(manifest)
	if manifest == nil {
		manifestIface = map[string]interface{}{}
	}
	return hashPayload([]interface{}{toolID, version, manifestIface, filesIface})
}
