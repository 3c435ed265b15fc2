package metadata

import (
	"fmt"
	"time"

	"github.com/kiwimcp/kiwimcp/internal/integrity"
	"github.com/kiwimcp/kiwimcp/internal/models"
)

// UnifiedHash computes the unified integrity hash for an artifact
// whose CanonicalBody and kind-specific metadata have already been
// populated by the parser. This is the hash that gets signed and the hash
// verify recomputes — the two must use identical inputs or every freshly
// signed artifact would fail its own verification.
func UnifiedHash(a *models.Artifact) (string, error) {
	switch a.Kind {
	case models.KindDirective:
		if a.Directive == nil {
			return "", fmt.Errorf("directive metadata required to hash %s", a.ID)
		}
		return integrity.Directive(a.Directive.Name, a.Version, a.CanonicalBody, a.Directive.Category, a.Directive.Description, string(a.Directive.Model.Tier))
	case models.KindKnowledge:
		if a.Knowledge == nil {
			return "", fmt.Errorf("knowledge metadata required to hash %s", a.ID)
		}
		return integrity.Knowledge(a.Knowledge.ID, a.Version, a.CanonicalBody, a.Knowledge.Category, a.Knowledge.EntryType, a.Knowledge.Tags)
	case models.KindTool:
		if a.Tool == nil {
			return "", fmt.Errorf("tool metadata required to hash %s", a.ID)
		}
		manifest := toolManifest(a.Tool)
		fileHash := integrity.ContentHash(a.CanonicalBody)
		files := []integrity.FileEntry{{Path: basePath(a.Path), SHA256: fileHash}}
		return integrity.Tool(a.Tool.ID, a.Version, manifest, files)
	default:
		return "", fmt.Errorf("unknown kind: %s", a.Kind)
	}
}

// toolManifest projects the fully-parsed tool metadata into the plain map
// that gets hashed, excluding transient fields (nothing here is
// runtime/resolution state — ToolMetadata already holds only declared data).
func toolManifest(t *models.ToolMetadata) map[string]interface{} {
	m := map[string]interface{}{
		"id":          t.ID,
		"version":     t.Version,
		"description": t.Description,
		"category":    t.Category,
		"tool_type":   string(t.ToolType),
	}
	if t.ExecutorID != nil {
		m["executor_id"] = *t.ExecutorID
	}
	if len(t.Requires) > 0 {
		m["requires"] = stringsToIface(t.Requires)
	}
	if t.Config != nil {
		m["config"] = t.Config
	}
	if len(t.Dependencies) > 0 {
		m["dependencies"] = stringsToIface(t.Dependencies)
	}
	if len(t.RequiredEnvVars) > 0 {
		m["required_env_vars"] = stringsToIface(t.RequiredEnvVars)
	}
	return m
}

func stringsToIface(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func basePath(p string) string {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' || p[i] == '\\' {
			return p[i+1:]
		}
	}
	return p
}

// Sign computes the unified hash for a and returns fileContent with a fresh
// signature inserted, using the kind's strategy for placement.
func Sign(kind models.Kind, ext, fileContent string, a *models.Artifact, now time.Time) (string, error) {
	strategy, err := ForKind(kind, ext)
	if err != nil {
		return "", err
	}
	hash, err := UnifiedHash(a)
	if err != nil {
		return "", err
	}
	signature := strategy.FormatSignature(integrity.Timestamp(now), hash)
	return strategy.InsertSignature(fileContent, signature), nil
}

// SignWithHash inserts a signature built from a precomputed hash, for
// callers that already computed UnifiedHash (e.g. to record it elsewhere
// before writing the file).
func SignWithHash(kind models.Kind, ext, fileContent, hash string, now time.Time) (string, error) {
	strategy, err := ForKind(kind, ext)
	if err != nil {
		return "", err
	}
	signature := strategy.FormatSignature(integrity.Timestamp(now), hash)
	return strategy.InsertSignature(fileContent, signature), nil
}

// SignatureInfo extracts the signature from fileContent without verifying it.
func SignatureInfo(kind models.Kind, ext, fileContent string) (*models.Signature, error) {
	strategy, err := ForKind(kind, ext)
	if err != nil {
		return nil, err
	}
	return strategy.ExtractSignature(fileContent), nil
}

// ExtractCanonicalBody isolates the hashable body of fileContent for kind,
// stripping any existing signature (and, for tools, shebang) first.
func ExtractCanonicalBody(kind models.Kind, ext, fileContent string) (string, error) {
	strategy, err := ForKind(kind, ext)
	if err != nil {
		return "", err
	}
	return strategy.ExtractContentForHash(fileContent)
}
