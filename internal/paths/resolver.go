// Package paths resolves artifact ids to on-disk files under the project and
// user artifact roots.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/kiwimcp/kiwimcp/internal/models"
)

// Roots holds the two search roots a Resolver walks, in precedence order.
type Roots struct {
	ProjectRoot string // "" if no project context
	UserRoot    string // defaults to $USER_SPACE or ~/.ai
}

// UserSpace returns $USER_SPACE expanded, or ~/.ai if unset.
func UserSpace() string {
	if v := os.Getenv("USER_SPACE"); v != "" {
		return expandHome(v)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ai"
	}
	return filepath.Join(home, ".ai")
}

func expandHome(p string) string {
	if p == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			return home
		}
		return p
	}
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}

// Resolver resolves one artifact Kind to a file path.
type Resolver struct {
	Kind  models.Kind
	Roots Roots
}

// New builds a Resolver for the given kind, defaulting UserRoot to UserSpace().
func New(kind models.Kind, projectRoot string) *Resolver {
	return &Resolver{
		Kind: kind,
		Roots: Roots{
			ProjectRoot: projectRoot,
			UserRoot:    UserSpace(),
		},
	}
}

func (r *Resolver) pluralDir() string {
	switch r.Kind {
	case models.KindDirective:
		return "directives"
	case models.KindTool:
		return "tools"
	case models.KindKnowledge:
		return "knowledge"
	default:
		return string(r.Kind) + "s"
	}
}

func (r *Resolver) extensions() []string {
	if r.Kind == models.KindTool {
		return models.ToolExtensions
	}
	return []string{r.Kind.Ext()}
}

// searchRoots returns the base directories to search, project before user.
func (r *Resolver) searchRoots() []struct {
	base  string
	scope models.Scope
} {
	var out []struct {
		base  string
		scope models.Scope
	}
	if r.Roots.ProjectRoot != "" {
		out = append(out, struct {
			base  string
			scope models.Scope
		}{filepath.Join(r.Roots.ProjectRoot, ".ai", r.pluralDir()), models.ScopeProject})
	}
	if r.Roots.UserRoot != "" {
		out = append(out, struct {
			base  string
			scope models.Scope
		}{filepath.Join(r.Roots.UserRoot, r.pluralDir()), models.ScopeUser})
	}
	return out
}

// Resolve finds the artifact named id, searching project root before user
// root and recursing into category subdirectories depth-first within each
// root. Returns ("", "", false) if not found.
func (r *Resolver) Resolve(id string) (path string, scope models.Scope, found bool) {
	for _, root := range r.searchRoots() {
		if p, ok := r.searchBase(root.base, id); ok {
			return p, root.scope, true
		}
	}
	return "", "", false
}

func (r *Resolver) searchBase(base, id string) (string, bool) {
	info, err := os.Stat(base)
	if err != nil || !info.IsDir() {
		return "", false
	}
	exts := r.extensions()
	var found string
	_ = filepath.WalkDir(base, func(p string, d os.DirEntry, err error) error {
		if err != nil || found != "" {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		for _, ext := range exts {
			if ext != "" && name == id+ext {
				found = p
				return filepath.SkipAll
			}
		}
		return nil
	})
	if found != "" {
		return found, true
	}
	return "", false
}

// CategoryPath extracts the slash-separated category path of a resolved file
// relative to its scope's base directory — "" if the file sits directly in
// the base directory.
func (r *Resolver) CategoryPath(filePath string, scope models.Scope) string {
	var base string
	switch scope {
	case models.ScopeProject:
		if r.Roots.ProjectRoot == "" {
			return ""
		}
		base = filepath.Join(r.Roots.ProjectRoot, ".ai", r.pluralDir())
	default:
		base = filepath.Join(r.Roots.UserRoot, r.pluralDir())
	}
	rel, err := filepath.Rel(base, filePath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	dir := filepath.Dir(rel)
	if dir == "." {
		return ""
	}
	return filepath.ToSlash(dir)
}
