// Package primitive implements the terminal executors:
// subprocess and HTTP client primitives, plus the executor that resolves a
// chain, verifies it, merges config, and dispatches to one of them.
package primitive

import (
	"os"
	"regexp"
	"strings"
)

var envVarRe = regexp.MustCompile(`\$\{([^}]+)\}`)

// resolveEnvVar expands ${VAR} and ${VAR:-default} references in value.
// Unknown vars with no default resolve to empty, matching the Python
// primitive's os.environ.get(name, "") fallback.
func resolveEnvVar(value string) string {
	return envVarRe.ReplaceAllStringFunc(value, func(match string) string {
		expr := match[2 : len(match)-1]
		if idx := strings.Index(expr, ":-"); idx != -1 {
			name, def := expr[:idx], expr[idx+2:]
			if v, ok := os.LookupEnv(strings.TrimSpace(name)); ok {
				return v
			}
			return def
		}
		return os.Getenv(expr)
	})
}
