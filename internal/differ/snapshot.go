// Package differ tracks artifact drift across re-signs. Every sign records
// a manifest snapshot under
// <root>/.kiwimcp/snapshots/<kind>/<id>.json; diff compares the artifact's
// current manifest against that snapshot.
package differ

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kiwimcp/kiwimcp/internal/models"
)

// Snapshot is the recorded manifest state of an artifact at its last sign.
type Snapshot struct {
	Kind     models.Kind            `json:"kind"`
	ID       string                 `json:"id"`
	Version  string                 `json:"version"`
	Hash     string                 `json:"hash"`
	Manifest map[string]interface{} `json:"manifest"`
}

// Store reads and writes snapshots under root/.kiwimcp/snapshots/<kind>/<id>.json.
type Store struct {
	Root string
}

// NewStore returns a Store rooted at the given project root.
func NewStore(root string) *Store {
	return &Store{Root: root}
}

func (s *Store) path(kind models.Kind, id string) string {
	return filepath.Join(s.Root, ".kiwimcp", "snapshots", string(kind), id+".json")
}

// Load returns the last-recorded snapshot for an artifact, or found=false if
// none exists yet (e.g. first sign).
func (s *Store) Load(kind models.Kind, id string) (snap *Snapshot, found bool, err error) {
	data, err := os.ReadFile(s.path(kind, id))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var out Snapshot
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &out, true, nil
}

// Save writes the snapshot, creating the kind subdirectory if needed.
func (s *Store) Save(snap *Snapshot) error {
	path := s.path(snap.Kind, snap.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// BuildManifest projects an artifact's kind-specific metadata into a plain
// JSON-comparable map, independent of its signature timestamp so re-signs
// with no content change produce an identical manifest.
func BuildManifest(a *models.Artifact) map[string]interface{} {
	manifest := map[string]interface{}{
		"kind":     string(a.Kind),
		"id":       a.ID,
		"version":  a.Version,
		"category": a.Category,
	}

	switch a.Kind {
	case models.KindDirective:
		if a.Directive != nil {
			manifest["description"] = a.Directive.Description
			manifest["permissions"] = a.Directive.Permissions
			manifest["model"] = a.Directive.Model
			manifest["inputs"] = a.Directive.Inputs
			manifest["input_schema"] = a.Directive.InputSchema
			manifest["process"] = a.Directive.Process
			manifest["mcps"] = a.Directive.MCPs
		}
	case models.KindTool:
		if a.Tool != nil {
			manifest["description"] = a.Tool.Description
			manifest["tool_type"] = a.Tool.ToolType
			manifest["executor_id"] = a.Tool.ExecutorID
			manifest["requires"] = a.Tool.Requires
			manifest["config"] = a.Tool.Config
			manifest["config_schema"] = a.Tool.ConfigSchema
			manifest["parameters"] = a.Tool.Parameters
			manifest["dependencies"] = a.Tool.Dependencies
			manifest["required_env_vars"] = a.Tool.RequiredEnvVars
		}
	case models.KindKnowledge:
		if a.Knowledge != nil {
			manifest["title"] = a.Knowledge.Title
			manifest["entry_type"] = a.Knowledge.EntryType
			manifest["tags"] = a.Knowledge.Tags
			manifest["schema"] = a.Knowledge.Schema
			manifest["content"] = a.Knowledge.Content
		}
	}

	return manifest
}
