package differ

import (
	"encoding/json"
	"fmt"

	"github.com/kiwimcp/kiwimcp/internal/models"
	"github.com/wI2L/jsondiff"
)

// DriftType classifies how an artifact changed since its last recorded snapshot.
type DriftType string

const (
	DriftAdded    DriftType = "added"
	DriftRemoved  DriftType = "removed"
	DriftChanged  DriftType = "changed"
	DriftNoChange DriftType = "no_change"
)

// DriftResult is the outcome of comparing an artifact against its last snapshot.
type DriftResult struct {
	ID           string         `json:"id"`
	Kind         models.Kind    `json:"kind"`
	DriftType    DriftType      `json:"drift_type"`
	OldHash      string         `json:"old_hash,omitempty"`
	NewHash      string         `json:"new_hash,omitempty"`
	Patches      jsondiff.Patch `json:"patches,omitempty"`
	Translations []string       `json:"translations,omitempty"`
}

// Engine computes drift between an artifact's current state and its last
// recorded snapshot, and records new snapshots after a successful sign.
type Engine struct {
	store *Store
}

// NewEngine returns an Engine whose snapshots live under root/.kiwimcp/snapshots.
func NewEngine(root string) *Engine {
	return &Engine{store: NewStore(root)}
}

// RecordSnapshot persists the artifact's current manifest as its latest
// snapshot. Call this after a successful sign so the next diff has a baseline.
func (e *Engine) RecordSnapshot(a *models.Artifact) error {
	hash := ""
	if a.Signature != nil {
		hash = a.Signature.Hash
	}
	return e.store.Save(&Snapshot{
		Kind:     a.Kind,
		ID:       a.ID,
		Version:  a.Version,
		Hash:     hash,
		Manifest: BuildManifest(a),
	})
}

// Diff compares the artifact's current manifest against its last recorded
// snapshot. A missing snapshot is reported as DriftAdded (first sign).
func (e *Engine) Diff(a *models.Artifact) (*DriftResult, error) {
	prev, found, err := e.store.Load(a.Kind, a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for %s/%s: %w", a.Kind, a.ID, err)
	}

	newHash := ""
	if a.Signature != nil {
		newHash = a.Signature.Hash
	}

	if !found {
		return &DriftResult{
			ID:           a.ID,
			Kind:         a.Kind,
			DriftType:    DriftAdded,
			NewHash:      newHash,
			Translations: []string{fmt.Sprintf("%s %q has no prior snapshot; recording baseline.", a.Kind, a.ID)},
		}, nil
	}

	if prev.Hash == newHash {
		return &DriftResult{
			ID:        a.ID,
			Kind:      a.Kind,
			DriftType: DriftNoChange,
			OldHash:   prev.Hash,
			NewHash:   newHash,
		}, nil
	}

	patches, err := diffManifests(prev.Manifest, BuildManifest(a))
	if err != nil {
		return nil, fmt.Errorf("failed to diff manifests for %s/%s: %w", a.Kind, a.ID, err)
	}

	translations := Translate(patches)
	if len(translations) == 0 {
		translations = []string{fmt.Sprintf("%s %q content changed.", a.Kind, a.ID)}
	}

	return &DriftResult{
		ID:           a.ID,
		Kind:         a.Kind,
		DriftType:    DriftChanged,
		OldHash:      prev.Hash,
		NewHash:      newHash,
		Patches:      patches,
		Translations: translations,
	}, nil
}

// DiffRemoved reports drift for an artifact whose snapshot exists but whose
// file is gone from disk; the caller determines absence from the filesystem.
func (e *Engine) DiffRemoved(kind models.Kind, id string) (*DriftResult, error) {
	prev, found, err := e.store.Load(kind, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for %s/%s: %w", kind, id, err)
	}
	if !found {
		return nil, fmt.Errorf("no snapshot recorded for %s/%s", kind, id)
	}
	return &DriftResult{
		ID:           id,
		Kind:         kind,
		DriftType:    DriftRemoved,
		OldHash:      prev.Hash,
		Translations: []string{fmt.Sprintf("%s %q has been removed.", kind, id)},
	}, nil
}

func diffManifests(old, new map[string]interface{}) (jsondiff.Patch, error) {
	oldJSON, err := json.Marshal(old)
	if err != nil {
		return nil, err
	}
	newJSON, err := json.Marshal(new)
	if err != nil {
		return nil, err
	}
	return jsondiff.CompareJSON(oldJSON, newJSON)
}
