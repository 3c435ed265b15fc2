// Package verify implements the memoized integrity verifier.
package verify

import (
	"fmt"
	"os"
	"sync"

	"github.com/kiwimcp/kiwimcp/internal/kerrors"
	"github.com/kiwimcp/kiwimcp/internal/metadata"
	"github.com/kiwimcp/kiwimcp/internal/models"
	"github.com/kiwimcp/kiwimcp/internal/parser"
)

// Verifier caches verification outcomes by stored hash so repeated checks
// of the same artifact version don't re-walk the filesystem and recompute
// the hash every time — verified hashes short-circuit to success, failed
// hashes short-circuit to the original error with a "Previously failed"
// prefix, mirroring the Python verifier's two-set memoization.
type Verifier struct {
	mu       sync.Mutex
	verified map[string]bool
	failed   map[string]error
}

// New returns an empty Verifier.
func New() *Verifier {
	return &Verifier{
		verified: map[string]bool{},
		failed:   map[string]error{},
	}
}

// VerifySingle reads path, strips its signature, recomputes the unified
// integrity hash, and compares it against storedHash.
func (v *Verifier) VerifySingle(kind models.Kind, id, version, path, storedHash string) error {
	v.mu.Lock()
	if v.verified[storedHash] {
		v.mu.Unlock()
		return nil
	}
	if prevErr, failed := v.failed[storedHash]; failed {
		v.mu.Unlock()
		return fmt.Errorf("Previously failed: %w", prevErr)
	}
	v.mu.Unlock()

	err := v.verifyUncached(kind, id, version, path, storedHash)

	v.mu.Lock()
	if err != nil {
		v.failed[storedHash] = err
	} else {
		v.verified[storedHash] = true
	}
	v.mu.Unlock()

	return err
}

func (v *Verifier) verifyUncached(kind models.Kind, id, version, path, storedHash string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return kerrors.Wrap(kerrors.NotFound, fmt.Sprintf("cannot read %s", path), err)
	}
	content := string(raw)
	ext := extOf(path)

	sig, err := metadata.SignatureInfo(kind, ext, content)
	if err != nil {
		return kerrors.Wrap(kerrors.ParseError, "signature extraction failed", err)
	}
	if sig == nil {
		return kerrors.New(kerrors.SignatureMissing, fmt.Sprintf("%s %s has no signature", kind, id))
	}
	if sig.Hash != storedHash {
		return kerrors.New(kerrors.IntegrityMismatch, fmt.Sprintf("stored hash %s does not match signature hash %s", storedHash, sig.Hash))
	}

	canonicalBody, err := metadata.ExtractCanonicalBody(kind, ext, content)
	if err != nil {
		return kerrors.Wrap(kerrors.ParseError, "failed to extract canonical body", err)
	}

	artifact, err := buildArtifact(kind, id, version, path, content, canonicalBody)
	if err != nil {
		return kerrors.Wrap(kerrors.ParseError, "failed to parse artifact for verification", err)
	}

	recomputed, err := metadata.UnifiedHash(artifact)
	if err != nil {
		return kerrors.Wrap(kerrors.ParseError, "failed to recompute integrity hash", err)
	}
	if recomputed != storedHash {
		return kerrors.New(kerrors.IntegrityMismatch, fmt.Sprintf("recomputed hash %s does not match stored hash %s", recomputed, storedHash))
	}
	return nil
}

func buildArtifact(kind models.Kind, id, version, path, content, canonicalBody string) (*models.Artifact, error) {
	a := &models.Artifact{Kind: kind, ID: id, Version: version, Path: path, CanonicalBody: canonicalBody}
	switch kind {
	case models.KindDirective:
		meta, _, err := parser.ParseDirective(content)
		if err != nil {
			return nil, err
		}
		a.Directive = meta
	case models.KindKnowledge:
		meta, err := parser.ParseKnowledge(content)
		if err != nil {
			return nil, err
		}
		a.Knowledge = meta
	case models.KindTool:
		ext := extOf(path)
		var meta *models.ToolMetadata
		var err error
		if ext == ".yaml" || ext == ".yml" {
			meta, err = parser.ParseYAMLTool(content)
		} else {
			meta = parser.ParsePythonTool(id, content)
		}
		if err != nil {
			return nil, err
		}
		a.Tool = meta
	}
	return a, nil
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}

// Stats reports the current size of both memoization sets.
type Stats struct {
	Verified int
	Failed   int
}

// CacheStats returns the current memoization counts.
func (v *Verifier) CacheStats() Stats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Stats{Verified: len(v.verified), Failed: len(v.failed)}
}
