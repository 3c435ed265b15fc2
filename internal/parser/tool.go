package parser

import (
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kiwimcp/kiwimcp/internal/models"
)

// moduleToPackage maps a Python import name to its PyPI package name, for
// tools whose declared dependencies are inferred from source imports.
var moduleToPackage = map[string]string{
	"git":                 "GitPython",
	"bs4":                 "beautifulsoup4",
	"yaml":                "PyYAML",
	"dotenv":              "python-dotenv",
	"sklearn":             "scikit-learn",
	"cv2":                 "opencv-python",
	"PIL":                 "Pillow",
	"googleapiclient":     "google-api-python-client",
	"google_auth_oauthlib": "google-auth-oauthlib",
}

var stdlibModules = map[string]bool{
	"os": true, "sys": true, "json": true, "time": true, "datetime": true,
	"pathlib": true, "typing": true, "argparse": true, "logging": true,
	"collections": true, "itertools": true, "functools": true, "contextlib": true,
	"io": true, "shlex": true, "subprocess": true, "importlib": true, "hashlib": true,
	"re": true, "math": true, "random": true, "string": true, "urllib": true,
	"http": true, "email": true, "concurrent": true, "threading": true,
	"multiprocessing": true, "asyncio": true, "queue": true,
}

var (
	pyImportRe     = regexp.MustCompile(`(?m)^\s*import\s+([a-zA-Z_][\w.]*)`)
	pyFromImportRe = regexp.MustCompile(`(?m)^\s*from\s+([a-zA-Z_][\w.]*)\s+import`)
	pyConstStrRe   = func(name string) *regexp.Regexp {
		return regexp.MustCompile(name + `\s*=\s*["']([^"']*)["']`)
	}
	pyGetenvRe     = regexp.MustCompile(`os\.getenv\(\s*["']([^"']+)["']`)
	pyDocstringRe1 = regexp.MustCompile(`(?s)^\s*"""(.+?)"""`)
	pyDocstringRe2 = regexp.MustCompile(`(?s)^\s*'''(.+?)'''`)
)

// ParsePythonTool extracts tool metadata from Python source the way the
// original's AST pass does, using regex since Go has no Python AST.
func ParsePythonTool(toolID, source string) *models.ToolMetadata {
	meta := &models.ToolMetadata{ID: toolID}

	if d := extractPyDocstring(source); d != "" {
		meta.Description = firstParagraph(d)
	}

	if m := pyConstStrRe("__version__").FindStringSubmatch(source); m != nil {
		meta.Version = m[1]
	}
	if m := pyConstStrRe("__tool_type__").FindStringSubmatch(source); m != nil {
		meta.ToolType = models.ToolType(m[1])
	}
	if m := pyConstStrRe("__executor_id__").FindStringSubmatch(source); m != nil {
		id := m[1]
		meta.ExecutorID = &id
	}
	if m := pyConstStrRe("__category__").FindStringSubmatch(source); m != nil {
		meta.Category = m[1]
	}

	imports := map[string]bool{}
	for _, m := range pyImportRe.FindAllStringSubmatch(source, -1) {
		imports[strings.SplitN(m[1], ".", 2)[0]] = true
	}
	for _, m := range pyFromImportRe.FindAllStringSubmatch(source, -1) {
		imports[strings.SplitN(m[1], ".", 2)[0]] = true
	}
	var deps []string
	for imp := range imports {
		if stdlibModules[imp] || imp == "lib" {
			continue
		}
		if pkg, ok := moduleToPackage[imp]; ok {
			deps = append(deps, pkg)
		} else {
			deps = append(deps, imp)
		}
	}
	sort.Strings(deps)
	meta.Dependencies = deps

	envVars := map[string]bool{}
	for _, m := range pyGetenvRe.FindAllStringSubmatch(source, -1) {
		envVars[m[1]] = true
	}
	var vars []string
	for v := range envVars {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	meta.RequiredEnvVars = vars

	return meta
}

func extractPyDocstring(source string) string {
	if m := pyDocstringRe1.FindStringSubmatch(source); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := pyDocstringRe2.FindStringSubmatch(source); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func firstParagraph(docstring string) string {
	var lines []string
	for _, line := range strings.Split(docstring, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "Usage:") || strings.HasPrefix(line, "Args:") || strings.HasPrefix(line, "Dependencies:") {
			break
		}
		lines = append(lines, line)
	}
	return strings.TrimSpace(strings.Join(lines, " "))
}

// yamlTool is the on-disk shape of a YAML tool manifest.
type yamlTool struct {
	ID              string                 `yaml:"tool_id"`
	Version         string                 `yaml:"version"`
	Description     string                 `yaml:"description"`
	Category        string                 `yaml:"category"`
	ToolType        string                 `yaml:"tool_type"`
	ExecutorID      *string                `yaml:"executor_id"`
	Requires        []string               `yaml:"requires"`
	Config          map[string]interface{} `yaml:"config"`
	ConfigSchema    map[string]interface{} `yaml:"config_schema"`
	RequiredEnvVars []string               `yaml:"required_env_vars"`
}

// ParseYAMLTool loads a YAML tool manifest directly.
func ParseYAMLTool(source string) (*models.ToolMetadata, error) {
	var y yamlTool
	if err := yaml.Unmarshal([]byte(source), &y); err != nil {
		return nil, err
	}
	meta := &models.ToolMetadata{
		ID:              y.ID,
		Version:         y.Version,
		Description:     y.Description,
		Category:        y.Category,
		ToolType:        models.ToolType(y.ToolType),
		ExecutorID:      y.ExecutorID,
		Requires:        y.Requires,
		Config:          y.Config,
		ConfigSchema:    y.ConfigSchema,
		RequiredEnvVars: y.RequiredEnvVars,
	}
	return meta, nil
}
