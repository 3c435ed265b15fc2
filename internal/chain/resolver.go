// Package chain implements the executor-chain resolver and config merger:
// walking tool executor_id references from a leaf tool down
// to its terminal primitive, verifying each link's signature along the way.
package chain

import (
	"fmt"
	"os"
	"sync"

	"github.com/kiwimcp/kiwimcp/internal/kerrors"
	"github.com/kiwimcp/kiwimcp/internal/metadata"
	"github.com/kiwimcp/kiwimcp/internal/models"
	"github.com/kiwimcp/kiwimcp/internal/parser"
	"github.com/kiwimcp/kiwimcp/internal/paths"
)

// Loader loads and parses a tool by id, returning the artifact built from
// its on-disk file. Satisfied by a thin wrapper over internal/paths +
// internal/parser so the resolver itself stays storage-agnostic.
type Loader interface {
	LoadTool(id string) (*models.Artifact, error)
}

// FileLoader resolves tool ids against project/user roots.
type FileLoader struct {
	Resolver *paths.Resolver
}

// NewFileLoader builds a Loader rooted at projectRoot.
func NewFileLoader(projectRoot string) *FileLoader {
	return &FileLoader{Resolver: paths.New(models.KindTool, projectRoot)}
}

// LoadTool resolves id to a file, reads it, and parses its metadata.
func (l *FileLoader) LoadTool(id string) (*models.Artifact, error) {
	path, scope, found := l.Resolver.Resolve(id)
	if !found {
		return nil, kerrors.New(kerrors.NotFound, fmt.Sprintf("tool '%s' not found", id))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.NotFound, fmt.Sprintf("cannot read %s", path), err)
	}
	content := string(raw)
	ext := extOf(path)

	var meta *models.ToolMetadata
	if ext == ".yaml" || ext == ".yml" {
		meta, err = parser.ParseYAMLTool(content)
	} else {
		meta = parser.ParsePythonTool(id, content)
	}
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ParseError, fmt.Sprintf("failed to parse tool '%s'", id), err)
	}

	canonicalBody, err := metadata.ExtractCanonicalBody(models.KindTool, ext, content)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ParseError, fmt.Sprintf("failed to extract body for tool '%s'", id), err)
	}

	sig, err := metadata.SignatureInfo(models.KindTool, ext, content)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ParseError, fmt.Sprintf("failed to extract signature for tool '%s'", id), err)
	}

	return &models.Artifact{
		Kind:          models.KindTool,
		ID:            id,
		Version:       meta.Version,
		Path:          path,
		Scope:         scope,
		CanonicalBody: canonicalBody,
		Signature:     sig,
		Tool:          meta,
	}, nil
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0 && path[i] != '/'; i-- {
		if path[i] == '.' {
			return path[i:]
		}
	}
	return ""
}

// maxDepth bounds the executor_id walk.
const maxDepth = 16

// Resolver walks executor_id references from a leaf tool to its terminal
// primitive, caching successful resolutions by tool id.
type Resolver struct {
	loader   Loader
	maxDepth int

	mu    sync.Mutex
	cache map[string]models.Chain
}

// New builds a Resolver backed by loader. maxDepth <= 0 uses the
// default of 16.
func New(loader Loader, maxDepth int) *Resolver {
	if maxDepth <= 0 {
		maxDepth = 16
	}
	return &Resolver{loader: loader, maxDepth: maxDepth, cache: map[string]models.Chain{}}
}

// Resolve builds the chain for toolID, from cache if present.
func (r *Resolver) Resolve(toolID string) (models.Chain, error) {
	r.mu.Lock()
	if chain, ok := r.cache[toolID]; ok {
		r.mu.Unlock()
		return chain, nil
	}
	r.mu.Unlock()

	chain, err := r.resolveUncached(toolID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.cache[toolID] = chain
	r.mu.Unlock()
	return chain, nil
}

func (r *Resolver) resolveUncached(toolID string) (models.Chain, error) {
	var chain models.Chain
	visited := map[string]bool{}
	currentID := toolID

	for depth := 0; ; depth++ {
		if depth >= r.maxDepth {
			return nil, kerrors.New(kerrors.ChainError, fmt.Sprintf("chain depth exceeded %d resolving '%s'", r.maxDepth, toolID))
		}

		artifact, err := r.loader.LoadTool(currentID)
		if err != nil {
			return nil, err
		}
		if artifact.Tool == nil {
			return nil, kerrors.New(kerrors.ChainError, fmt.Sprintf("tool '%s' has no metadata", currentID))
		}
		if artifact.Signature == nil || artifact.Signature.Hash == "" {
			return nil, kerrors.New(kerrors.SignatureMissing, fmt.Sprintf("tool '%s' has no signature", currentID))
		}

		link := models.ChainLink{
			ID:          currentID,
			Version:     artifact.Version,
			ToolType:    artifact.Tool.ToolType,
			ExecutorID:  artifact.Tool.ExecutorID,
			Manifest:    toolManifest(artifact.Tool),
			FilePath:    artifact.Path,
			ContentHash: artifact.Signature.Hash,
		}
		chain = append(chain, link)
		visited[currentID] = true

		if artifact.Tool.ToolType == models.ToolTypePrimitive || artifact.Tool.ExecutorID == nil {
			break
		}

		nextID := *artifact.Tool.ExecutorID
		if visited[nextID] {
			return nil, kerrors.New(kerrors.ChainError, fmt.Sprintf("circular dependency: '%s' -> '%s'", currentID, nextID))
		}
		currentID = nextID
	}

	return chain, nil
}

// ResolveBatch resolves multiple tool ids, reusing cache hits and resolving
// the rest individually, though each
// uncached id still walks its own chain since chains aren't shared work.
func (r *Resolver) ResolveBatch(toolIDs []string) (map[string]models.Chain, error) {
	result := make(map[string]models.Chain, len(toolIDs))
	for _, id := range toolIDs {
		chain, err := r.Resolve(id)
		if err != nil {
			return nil, err
		}
		result[id] = chain
	}
	return result, nil
}

// Invalidate evicts a single tool id's cached chain.
func (r *Resolver) Invalidate(toolID string) {
	r.mu.Lock()
	delete(r.cache, toolID)
	r.mu.Unlock()
}

// ClearCaches resets the entire chain cache.
func (r *Resolver) ClearCaches() {
	r.mu.Lock()
	r.cache = map[string]models.Chain{}
	r.mu.Unlock()
}

// Stats reports cache occupancy.
type Stats struct {
	CachedChains int
}

// CacheStats reports the current chain cache size.
func (r *Resolver) CacheStats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{CachedChains: len(r.cache)}
}

func toolManifest(t *models.ToolMetadata) map[string]interface{} {
	m := map[string]interface{}{
		"id":        t.ID,
		"version":   t.Version,
		"tool_type": string(t.ToolType),
	}
	if t.ExecutorID != nil {
		m["executor_id"] = *t.ExecutorID
	}
	if t.Config != nil {
		m["config"] = t.Config
	}
	return m
}
