package parser

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kiwimcp/kiwimcp/internal/models"
)

type knowledgeFrontmatter struct {
	ID        string                 `yaml:"id"`
	Title     string                 `yaml:"title"`
	Version   string                 `yaml:"version"`
	Category  string                 `yaml:"category"`
	EntryType string                 `yaml:"entry_type"`
	Tags      []string               `yaml:"tags"`
	Schema    map[string]interface{} `yaml:"schema"`
}

// ParseKnowledge splits YAML frontmatter from body and builds structured
// metadata.
func ParseKnowledge(content string) (*models.KnowledgeMetadata, error) {
	fm, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}
	var parsed knowledgeFrontmatter
	if fm != "" {
		if err := yaml.Unmarshal([]byte(fm), &parsed); err != nil {
			return nil, fmt.Errorf("invalid frontmatter: %w", err)
		}
	}
	return &models.KnowledgeMetadata{
		ID:        parsed.ID,
		Title:     parsed.Title,
		Version:   parsed.Version,
		Category:  parsed.Category,
		EntryType: parsed.EntryType,
		Tags:      parsed.Tags,
		Schema:    parsed.Schema,
		Content:   body,
	}, nil
}

// splitFrontmatter separates a leading "---\n...\n---" YAML block from the
// rest of the document. Returns ("", content, nil) if there is no frontmatter.
func splitFrontmatter(content string) (frontmatter, body string, err error) {
	if !strings.HasPrefix(content, "---") {
		return "", content, nil
	}
	rest := content[3:]
	endIdx := strings.Index(rest, "---")
	if endIdx == -1 {
		return "", content, nil
	}
	frontmatter = rest[:endIdx]
	body = strings.TrimSpace(rest[endIdx+3:])
	return frontmatter, body, nil
}
