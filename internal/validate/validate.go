// Package validate implements the per-kind structural checks, using a
// tagged function set instead of a validator class hierarchy.
package validate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kiwimcp/kiwimcp/internal/models"
)

// Result is the outcome of one validation pass.
type Result struct {
	Valid    bool
	Issues   []string
	Warnings []string
}

func (r *Result) addIssue(format string, args ...interface{}) {
	r.Issues = append(r.Issues, fmt.Sprintf(format, args...))
}

func (r *Result) finalize() *Result {
	r.Valid = len(r.Issues) == 0
	return r
}

var (
	directiveNameRe  = regexp.MustCompile(`^[a-z0-9][a-z0-9_]*$`)
	semverRe         = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	semverPrefixRe   = regexp.MustCompile(`^\d+\.\d+\.\d+`)
	capabilityRe     = regexp.MustCompile(`^[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+$`)
	validModelTiers  = map[models.ModelTier]bool{
		models.TierFast: true, models.TierBalanced: true, models.TierGeneral: true,
		models.TierReasoning: true, models.TierExpert: true, models.TierOrchestrator: true,
	}
)

// Directive validates a parsed directive artifact against its file path.
func Directive(filePath string, meta *models.DirectiveMetadata, rawContent string) *Result {
	r := &Result{}

	if meta.Name == "" {
		r.addIssue("Directive name not found in parsed data")
		return r.finalize()
	}
	if !directiveNameRe.MatchString(meta.Name) {
		r.addIssue("Invalid directive name '%s'. Must be snake_case (lowercase letters, numbers, underscores)", meta.Name)
	}
	expectedFilename := meta.Name + ".md"
	actualFilename := filepath.Base(filePath)
	if actualFilename != expectedFilename {
		r.addIssue("Filename mismatch: expected '%s', got '%s'", expectedFilename, actualFilename)
	}

	if len(meta.Permissions) == 0 {
		r.addIssue("No permissions defined in directive")
	} else {
		for _, p := range meta.Permissions {
			if p.Tag == "" {
				r.addIssue("Permission missing 'tag' field")
			}
			if len(p.Attrs) == 0 {
				r.addIssue("Permission '%s' missing attributes", p.Tag)
			}
		}
	}

	if meta.Model.Tier == "" {
		r.addIssue("Model tag exists but is missing required 'tier' attribute. Example: <model tier=\"reasoning\">...</model>")
	} else if !validModelTiers[meta.Model.Tier] {
		r.addIssue("Invalid model tier '%s'. Must be one of: fast, balanced, general, reasoning, expert, orchestrator", meta.Model.Tier)
	}

	if meta.Version == "" || meta.Version == "0.0.0" {
		r.addIssue("Directive is missing required 'version' attribute. Add version attribute to <directive> tag: <directive name=\"...\" version=\"1.0.0\">")
	} else if !semverRe.MatchString(meta.Version) {
		r.addIssue("Invalid version format '%s'. Must be semver (e.g., 1.0.0, 2.1.3)", meta.Version)
	}

	if issue := xmlStructureIssue(rawContent); issue != "" {
		r.addIssue("%s", issue)
	}

	return r.finalize()
}

// xmlStructureIssue enforces the rule that </directive> must be the last
// non-whitespace token inside the fenced XML block.
func xmlStructureIssue(content string) string {
	startLoc := regexp.MustCompile(`<directive[^>]*>`).FindStringIndex(content)
	if startLoc == nil {
		return "Missing <directive> opening tag in content"
	}
	const endTag = "</directive>"
	endIdx := strings.LastIndex(content, endTag)
	if endIdx == -1 {
		return "Missing </directive> closing tag in content"
	}
	after := content[endIdx+len(endTag):]
	codeBlockEnd := strings.Index(after, "```")
	if codeBlockEnd == -1 {
		return ""
	}
	beforeClose := strings.TrimSpace(after[:codeBlockEnd])
	if beforeClose != "" {
		preview := beforeClose
		if len(preview) > 50 {
			preview = preview[:50]
		}
		return fmt.Sprintf("Directive XML must end with </directive> tag with no content after it. Found content after closing tag (before code block end): %q", preview)
	}
	return ""
}

// Tool validates a parsed tool artifact's filename and manifest (definition-
// time checks only — runtime parameter validation happens in the primitive
// executor against config_schema).
func Tool(filePath string, meta *models.ToolMetadata) *Result {
	r := &Result{}

	ext := strings.ToLower(filepath.Ext(filePath))
	allowed := map[string]bool{".py": true, ".sh": true, ".yaml": true, ".yml": true}
	if !allowed[ext] {
		r.addIssue("Unsupported file extension '%s'. Expected one of: .py, .sh, .yaml, .yml", ext)
	}

	if meta.ID == "" {
		r.addIssue("Tool ID (tool_id or name) is required")
	} else {
		stem := strings.TrimSuffix(filepath.Base(filePath), ext)
		if stem != meta.ID {
			r.addIssue("Filename mismatch: expected '%s%s', got '%s'", meta.ID, ext, filepath.Base(filePath))
		}
	}

	if meta.ToolType == "" {
		r.addIssue("Tool type (tool_type) is required")
	}

	if meta.Version == "" || meta.Version == "0.0.0" {
		r.addIssue("Tool is missing required version. Add at module level: __version__ = \"1.0.0\"")
	} else if !semverPrefixRe.MatchString(meta.Version) {
		r.addIssue("Invalid version format '%s'. Must be semver (e.g., 1.0.0)", meta.Version)
	}

	if meta.ToolType != "" && meta.ToolType != models.ToolTypePrimitive {
		if meta.ExecutorID == nil || *meta.ExecutorID == "" {
			r.addIssue("Tool type '%s' requires executor_id field. Non-primitive tools must reference another tool in the executor chain.", meta.ToolType)
		}
	}

	for _, cap := range meta.Requires {
		if !capabilityRe.MatchString(cap) {
			r.addIssue("Invalid capability format '%s'. Must be <resource>.<action> (e.g., 'fs.read', 'tool.bash')", cap)
		}
	}

	return r.finalize()
}

// Knowledge validates a parsed knowledge entry.
func Knowledge(filePath string, meta *models.KnowledgeMetadata) *Result {
	r := &Result{}

	if meta.ID == "" {
		r.addIssue("ID is required")
		return r.finalize()
	}
	expectedFilename := meta.ID + ".md"
	actualFilename := filepath.Base(filePath)
	if actualFilename != expectedFilename {
		r.addIssue("Filename mismatch: expected '%s', got '%s'", expectedFilename, actualFilename)
	}
	if meta.Title == "" {
		r.addIssue("Title is required")
	}
	if meta.Content == "" {
		r.addIssue("Content is required")
	}
	if meta.Version == "" || meta.Version == "0.0.0" {
		r.addIssue("Knowledge entry is missing required 'version' in YAML frontmatter. Add to frontmatter: version: \"1.0.0\"")
	}
	return r.finalize()
}
