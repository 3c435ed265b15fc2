// Package metadata implements the per-kind signature strategies and the
// manager facade that signs and verifies artifact content: a tagged method
// table per kind rather than class-hierarchy dynamic dispatch.
package metadata

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kiwimcp/kiwimcp/internal/models"
)

// Strategy is the per-kind set of operations on signed file content.
type Strategy interface {
	// ExtractContentForHash returns the portion of file content that is
	// hashed — signature (and, for tools, shebang) stripped.
	ExtractContentForHash(fileContent string) (string, error)
	// FormatSignature renders the signature line for this kind.
	FormatSignature(timestamp, hash string) string
	// ExtractSignature parses the signature line at the start of content,
	// returning (nil) if none is present.
	ExtractSignature(fileContent string) *models.Signature
	// InsertSignature replaces any existing signature and inserts signature
	// at the position appropriate for the kind (start, or after shebang).
	InsertSignature(content, signature string) string
	// RemoveSignature strips any existing signature line from content.
	RemoveSignature(content string) string
}

var htmlCommentSigRe = regexp.MustCompile(`^<!-- kiwi-mcp:validated:(.*?):([a-f0-9]{64}) -->`)
var htmlCommentStripRe = regexp.MustCompile(`^<!-- kiwi-mcp:validated:[^>]+-->\n`)

func extractHTMLCommentSignature(fileContent string) *models.Signature {
	m := htmlCommentSigRe.FindStringSubmatch(fileContent)
	if m == nil {
		return nil
	}
	return &models.Signature{Timestamp: m[1], Hash: m[2]}
}

func formatHTMLCommentSignature(timestamp, hash string) string {
	return fmt.Sprintf("<!-- kiwi-mcp:validated:%s:%s -->\n", timestamp, hash)
}

func removeHTMLCommentSignature(content string) string {
	return htmlCommentStripRe.ReplaceAllString(content, "")
}

// --- directive ---

var directiveStartRe = regexp.MustCompile(`<directive[^>]*>`)

// DirectiveStrategy signs the XML-in-markdown directive body via an HTML
// comment at the top of the file.
type DirectiveStrategy struct{}

func (DirectiveStrategy) ExtractContentForHash(fileContent string) (string, error) {
	xml := extractDirectiveXML(fileContent)
	if xml == "" {
		return "", fmt.Errorf("no XML directive found in content")
	}
	return xml, nil
}

func (DirectiveStrategy) FormatSignature(timestamp, hash string) string {
	return formatHTMLCommentSignature(timestamp, hash)
}

func (DirectiveStrategy) ExtractSignature(fileContent string) *models.Signature {
	return extractHTMLCommentSignature(fileContent)
}

func (s DirectiveStrategy) InsertSignature(content, signature string) string {
	return signature + s.RemoveSignature(content)
}

func (DirectiveStrategy) RemoveSignature(content string) string {
	return removeHTMLCommentSignature(content)
}

func extractDirectiveXML(content string) string {
	loc := directiveStartRe.FindStringIndex(content)
	if loc == nil {
		return ""
	}
	startIdx := loc[0]
	endTag := "</directive>"
	endIdx := strings.LastIndex(content, endTag)
	if endIdx == -1 || endIdx < startIdx {
		return ""
	}
	return strings.TrimSpace(content[startIdx : endIdx+len(endTag)])
}

// --- tool ---

var shebangRe = regexp.MustCompile(`^#!/[^\n]*\n`)

// ToolStrategy signs tool files, choosing a comment prefix by file extension.
// Python tools carry a shebang the signature must stay below; YAML and shell
// tools are signed at the very start of the file with no shebang handling.
type ToolStrategy struct {
	Ext string // ".py", ".sh", ".yaml", ".yml"
}

func (t ToolStrategy) prefix() string {
	return "#"
}

func (t ToolStrategy) afterShebang() bool {
	return t.Ext == ".py"
}

func (t ToolStrategy) ExtractContentForHash(fileContent string) (string, error) {
	without := t.RemoveSignature(fileContent)
	if t.afterShebang() {
		without = shebangRe.ReplaceAllString(without, "")
	}
	return without, nil
}

func (t ToolStrategy) FormatSignature(timestamp, hash string) string {
	return fmt.Sprintf("%s kiwi-mcp:validated:%s:%s\n", t.prefix(), timestamp, hash)
}

func (t ToolStrategy) ExtractSignature(fileContent string) *models.Signature {
	prefix := regexp.QuoteMeta(t.prefix())
	var pattern string
	if t.afterShebang() {
		pattern = `^(?:#!/[^\n]*\n)?` + prefix + ` kiwi-mcp:validated:(.*?):([a-f0-9]{64})`
	} else {
		pattern = `^` + prefix + ` kiwi-mcp:validated:(.*?):([a-f0-9]{64})`
	}
	re := regexp.MustCompile(pattern)
	m := re.FindStringSubmatch(fileContent)
	if m == nil {
		return nil
	}
	return &models.Signature{Timestamp: m[1], Hash: m[2]}
}

func (t ToolStrategy) InsertSignature(content, signature string) string {
	clean := t.RemoveSignature(content)
	if t.afterShebang() && strings.HasPrefix(clean, "#!/") {
		parts := strings.SplitN(clean, "\n", 2)
		rest := ""
		if len(parts) > 1 {
			rest = parts[1]
		}
		return parts[0] + "\n" + signature + rest
	}
	return signature + clean
}

func (t ToolStrategy) RemoveSignature(content string) string {
	prefix := regexp.QuoteMeta(t.prefix())
	withoutShebang := shebangRe.ReplaceAllString(content, "")
	sigRe := regexp.MustCompile(`^` + prefix + ` kiwi-mcp:validated:[^\n]+\n`)
	withoutSig := sigRe.ReplaceAllString(withoutShebang, "")
	if m := shebangRe.FindString(content); m != "" {
		return m + withoutSig
	}
	return withoutSig
}

// --- knowledge ---

// KnowledgeStrategy signs knowledge entries the same way as directives (HTML
// comment at top) but hashes the content after the YAML frontmatter block.
type KnowledgeStrategy struct{}

func (KnowledgeStrategy) ExtractContentForHash(fileContent string) (string, error) {
	without := removeHTMLCommentSignature(fileContent)
	if !strings.HasPrefix(without, "---") {
		return without, nil
	}
	endIdx := strings.Index(without[3:], "---")
	if endIdx == -1 {
		return without, nil
	}
	endIdx += 3
	return strings.TrimSpace(without[endIdx+3:]), nil
}

func (KnowledgeStrategy) FormatSignature(timestamp, hash string) string {
	return formatHTMLCommentSignature(timestamp, hash)
}

func (KnowledgeStrategy) ExtractSignature(fileContent string) *models.Signature {
	return extractHTMLCommentSignature(fileContent)
}

func (s KnowledgeStrategy) InsertSignature(content, signature string) string {
	return signature + s.RemoveSignature(content)
}

func (KnowledgeStrategy) RemoveSignature(content string) string {
	return removeHTMLCommentSignature(content)
}

// ForKind returns the strategy for kind. ext is only used for tool (its
// signature comment rules depend on file extension).
func ForKind(kind models.Kind, ext string) (Strategy, error) {
	switch kind {
	case models.KindDirective:
		return DirectiveStrategy{}, nil
	case models.KindTool:
		return ToolStrategy{Ext: ext}, nil
	case models.KindKnowledge:
		return KnowledgeStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown kind: %s", kind)
	}
}
