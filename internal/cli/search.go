package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kiwimcp/kiwimcp/internal/models"
	"github.com/kiwimcp/kiwimcp/internal/paths"
	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <kind> [query]",
	Short: "Find artifacts by id substring under the project and user roots",
	Long: `search walks the project's .ai/<kind>s directory followed by the user
space, listing every artifact whose id contains query. With no
query, every artifact of that kind is listed.

Example:
  kiwimcp search tool fetch
  kiwimcp search directive`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

type searchHit struct {
	ID    string
	Path  string
	Scope models.Scope
}

func runSearch(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	var query string
	if len(args) == 2 {
		query = args[1]
	}

	resolver := paths.New(kind, projectRoot())
	hits := findArtifacts(resolver, kind, query)

	if len(hits) == 0 {
		fmt.Printf("No %s artifacts found%s\n", kind, querySuffix(query))
		return nil
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
	for _, h := range hits {
		fmt.Printf("%-30s %s%-8s%s %s\n", h.ID, colorYellow, h.Scope, colorReset, h.Path)
	}
	return nil
}

func querySuffix(query string) string {
	if query == "" {
		return ""
	}
	return fmt.Sprintf(" matching %q", query)
}

// findArtifacts walks the same project-then-user roots paths.Resolver
// searches, but collects every match instead of stopping at the first.
func findArtifacts(resolver *paths.Resolver, kind models.Kind, query string) []searchHit {
	var hits []searchHit
	exts := extensionsFor(kind)

	for _, root := range rootsFor(resolver, kind) {
		info, err := os.Stat(root.base)
		if err != nil || !info.IsDir() {
			continue
		}
		_ = filepath.WalkDir(root.base, func(p string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			name := d.Name()
			for _, ext := range exts {
				if ext == "" || !strings.HasSuffix(name, ext) {
					continue
				}
				id := strings.TrimSuffix(name, ext)
				if query == "" || strings.Contains(id, query) {
					hits = append(hits, searchHit{ID: id, Path: p, Scope: root.scope})
				}
			}
			return nil
		})
	}
	return hits
}

type baseRoot struct {
	base  string
	scope models.Scope
}

func rootsFor(resolver *paths.Resolver, kind models.Kind) []baseRoot {
	var out []baseRoot
	if root := resolver.Roots.ProjectRoot; root != "" {
		out = append(out, baseRoot{filepath.Join(root, ".ai", pluralDir(kind)), models.ScopeProject})
	}
	if root := resolver.Roots.UserRoot; root != "" {
		out = append(out, baseRoot{filepath.Join(root, pluralDir(kind)), models.ScopeUser})
	}
	return out
}

func pluralDir(kind models.Kind) string {
	switch kind {
	case models.KindDirective:
		return "directives"
	case models.KindTool:
		return "tools"
	case models.KindKnowledge:
		return "knowledge"
	default:
		return string(kind) + "s"
	}
}

func extensionsFor(kind models.Kind) []string {
	if kind == models.KindTool {
		return models.ToolExtensions
	}
	return []string{kind.Ext()}
}
