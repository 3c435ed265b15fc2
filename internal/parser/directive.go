package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kiwimcp/kiwimcp/internal/models"
)

var directiveStartRe = regexp.MustCompile(`<directive[^>]*>`)

// ExtractDirectiveXML locates the XML block between the first <directive...>
// and the last </directive>, trimmed of surrounding whitespace. This slice
// is the canonical body used for hashing and signing.
func ExtractDirectiveXML(content string) (string, error) {
	loc := directiveStartRe.FindStringIndex(content)
	if loc == nil {
		return "", fmt.Errorf("missing <directive> opening tag in content")
	}
	startIdx := loc[0]
	const endTag = "</directive>"
	endIdx := strings.LastIndex(content, endTag)
	if endIdx == -1 || endIdx < startIdx {
		return "", fmt.Errorf("missing </directive> closing tag in content")
	}
	return strings.TrimSpace(content[startIdx : endIdx+len(endTag)]), nil
}

// ParseDirective extracts the directive XML from content and builds its
// structured metadata.
func ParseDirective(content string) (*models.DirectiveMetadata, string, error) {
	xmlContent, err := ExtractDirectiveXML(content)
	if err != nil {
		return nil, "", err
	}
	root := ParseXML(xmlContent)
	if root == nil {
		return nil, "", fmt.Errorf("could not extract XML: <directive> and </directive> tags found but extraction failed")
	}

	meta := &models.DirectiveMetadata{
		Name:    root.Attrs["name"],
		Version: root.Attrs["version"],
	}

	metaNode := root.Child("metadata")
	if metaNode == nil {
		metaNode = root
	}

	if d := metaNode.Child("description"); d != nil {
		meta.Description = strings.TrimSpace(d.Text)
	}
	meta.Category = metaNode.Attrs["category"]

	if permsNode := metaNode.Child("permissions"); permsNode != nil {
		for tag, nodes := range permsNode.Children {
			for _, n := range nodes {
				meta.Permissions = append(meta.Permissions, models.Permission{Tag: tag, Attrs: n.Attrs})
			}
		}
	}

	if modelNode := metaNode.Child("model"); modelNode != nil {
		meta.Model = models.ModelSpec{
			Tier:     models.ModelTier(modelNode.Attrs["tier"]),
			Fallback: modelNode.Attrs["fallback"],
			Parallel: modelNode.Attrs["parallel"] == "true",
			ID:       modelNode.Attrs["id"],
		}
	}

	if inputsNode := metaNode.Child("inputs"); inputsNode != nil {
		for _, inp := range inputsNode.All("input") {
			meta.Inputs = append(meta.Inputs, models.Input{
				Name:     inp.Attrs["name"],
				Type:     inp.Attrs["type"],
				Required: inp.Attrs["required"] != "false",
			})
		}
		if schemaNode := inputsNode.Child("schema"); schemaNode != nil {
			var schema map[string]interface{}
			if err := json.Unmarshal([]byte(strings.TrimSpace(schemaNode.Text)), &schema); err == nil {
				meta.InputSchema = schema
			}
		}
	}

	if processNode := root.Child("process"); processNode != nil {
		for _, step := range processNode.All("step") {
			ps := models.ProcessStep{Name: step.Attrs["name"]}
			if d := step.Child("description"); d != nil {
				ps.Description = strings.TrimSpace(d.Text)
			}
			if a := step.Child("action"); a != nil {
				ps.Action = a.Text
			}
			if v := step.Child("verification"); v != nil {
				for _, c := range v.All("check") {
					ps.Verifications = append(ps.Verifications, c.Text)
				}
			}
			meta.Process = append(meta.Process, ps)
		}
	}

	if mcpsNode := root.Child("mcps"); mcpsNode != nil {
		for _, mcp := range mcpsNode.All("mcp") {
			meta.MCPs = append(meta.MCPs, models.MCPRef{
				Name:     mcp.Attrs["name"],
				Required: mcp.Attrs["required"] == "true",
				Tools:    mcp.Attrs["tools"],
				Refresh:  mcp.Attrs["refresh"],
			})
		}
	}

	return meta, xmlContent, nil
}
