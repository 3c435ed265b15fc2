package cli

import (
	"fmt"
	"os"

	"github.com/kiwimcp/kiwimcp/internal/kerrors"
	"github.com/kiwimcp/kiwimcp/internal/metadata"
	"github.com/kiwimcp/kiwimcp/internal/models"
	"github.com/kiwimcp/kiwimcp/internal/parser"
	"github.com/kiwimcp/kiwimcp/internal/paths"
)

const (
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorReset  = "\033[0m"
)

func parseKind(s string) (models.Kind, error) {
	switch s {
	case "directive":
		return models.KindDirective, nil
	case "tool":
		return models.KindTool, nil
	case "knowledge":
		return models.KindKnowledge, nil
	default:
		return "", fmt.Errorf("unknown kind %q: must be directive, tool, or knowledge", s)
	}
}

func projectRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}

// loadArtifact resolves id under kind, reads its file, and parses it into a
// fully populated Artifact — the same construction verify.buildArtifact and
// chain.FileLoader.LoadTool do, reused here so every command that acts on
// one artifact by id shares the same load path.
func loadArtifact(kind models.Kind, id string) (*models.Artifact, error) {
	resolver := paths.New(kind, projectRoot())
	path, scope, found := resolver.Resolve(id)
	if !found {
		return nil, kerrors.New(kerrors.NotFound, fmt.Sprintf("%s '%s' not found", kind, id))
	}
	return loadArtifactAt(kind, id, path, scope)
}

func loadArtifactAt(kind models.Kind, id, path string, scope models.Scope) (*models.Artifact, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.NotFound, fmt.Sprintf("cannot read %s", path), err)
	}
	content := string(raw)
	ext := extOf(path)

	a := &models.Artifact{Kind: kind, ID: id, Path: path, Scope: scope}

	canonicalBody, err := metadata.ExtractCanonicalBody(kind, ext, content)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ParseError, "failed to extract canonical body", err)
	}
	a.CanonicalBody = canonicalBody

	sig, err := metadata.SignatureInfo(kind, ext, content)
	if err != nil {
		return nil, kerrors.Wrap(kerrors.ParseError, "failed to extract signature", err)
	}
	a.Signature = sig

	switch kind {
	case models.KindDirective:
		meta, _, err := parser.ParseDirective(content)
		if err != nil {
			return nil, kerrors.Wrap(kerrors.ParseError, fmt.Sprintf("failed to parse directive '%s'", id), err)
		}
		a.Directive = meta
		a.Version = meta.Version
		a.Category = meta.Category
	case models.KindKnowledge:
		meta, err := parser.ParseKnowledge(content)
		if err != nil {
			return nil, kerrors.Wrap(kerrors.ParseError, fmt.Sprintf("failed to parse knowledge '%s'", id), err)
		}
		a.Knowledge = meta
		a.Version = meta.Version
		a.Category = meta.Category
	case models.KindTool:
		var meta *models.ToolMetadata
		if ext == ".yaml" || ext == ".yml" {
			meta, err = parser.ParseYAMLTool(content)
		} else {
			meta = parser.ParsePythonTool(id, content)
		}
		if err != nil {
			return nil, kerrors.Wrap(kerrors.ParseError, fmt.Sprintf("failed to parse tool '%s'", id), err)
		}
		a.Tool = meta
		a.Version = meta.Version
		a.Category = meta.Category
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
