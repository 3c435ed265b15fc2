package parser

import (
	"regexp"
	"strings"
)

// Node is a tolerant XML element: attributes plus either text content or
// named children. Unlike encoding/xml this never rejects a document for
// literal '<', '>', '&' inside element text — only recognized tag/CDATA
// tokens are treated structurally.
type Node struct {
	Attrs    map[string]string
	Text     string
	Children map[string][]*Node
}

func newNode() *Node {
	return &Node{Attrs: map[string]string{}, Children: map[string][]*Node{}}
}

func (n *Node) addChild(name string, child *Node) {
	n.Children[name] = append(n.Children[name], child)
}

// Child returns the first child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	if kids := n.Children[name]; len(kids) > 0 {
		return kids[0]
	}
	return nil
}

// All returns every child with the given name (possibly empty).
func (n *Node) All(name string) []*Node {
	if n == nil {
		return nil
	}
	return n.Children[name]
}

var tagToken = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>` +
	`|<([a-zA-Z][\w:-]*)((?:\s+[a-zA-Z][\w:-]*\s*=\s*"[^"]*")*)\s*/>` +
	`|<([a-zA-Z][\w:-]*)((?:\s+[a-zA-Z][\w:-]*\s*=\s*"[^"]*")*)\s*>` +
	`|</([a-zA-Z][\w:-]*)\s*>`)

var attrToken = regexp.MustCompile(`([a-zA-Z][\w:-]*)\s*=\s*"([^"]*)"`)

func parseAttrs(s string) map[string]string {
	attrs := map[string]string{}
	for _, m := range attrToken.FindAllStringSubmatch(s, -1) {
		attrs[m[1]] = unescapeEntities(m[2])
	}
	return attrs
}

func unescapeEntities(s string) string {
	replacer := strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&", "&quot;", `"`, "&apos;", "'")
	return replacer.Replace(s)
}

const cdataOpenPlaceholder = "{CDATA_OPEN}"
const cdataClosePlaceholder = "{CDATA_CLOSE}"

func expandCDATAPlaceholders(s string) string {
	s = strings.ReplaceAll(s, cdataOpenPlaceholder, "<![CDATA[")
	s = strings.ReplaceAll(s, cdataClosePlaceholder, "]]>")
	return s
}

// ParseXML tolerantly parses an XML fragment (the slice from <directive...>
// to </directive>) into a Node tree rooted at the outermost element.
// Returns nil if no root element is found.
func ParseXML(fragment string) *Node {
	root := newNode()
	stack := []*Node{root}
	last := 0

	flushText := func(end int) {
		if end <= last {
			return
		}
		top := stack[len(stack)-1]
		top.Text += fragment[last:end]
	}

	matches := tagToken.FindAllStringSubmatchIndex(fragment, -1)
	for _, m := range matches {
		flushText(m[0])
		switch {
		case m[2] >= 0: // CDATA
			cdata := fragment[m[2]:m[3]]
			top := stack[len(stack)-1]
			top.Text += expandCDATAPlaceholders(cdata)
		case m[4] >= 0: // self-closing <name .../>
			name := fragment[m[4]:m[5]]
			attrStr := ""
			if m[6] >= 0 {
				attrStr = fragment[m[6]:m[7]]
			}
			child := newNode()
			child.Attrs = parseAttrs(attrStr)
			stack[len(stack)-1].addChild(name, child)
		case m[8] >= 0: // open <name ...>
			name := fragment[m[8]:m[9]]
			attrStr := ""
			if m[10] >= 0 {
				attrStr = fragment[m[10]:m[11]]
			}
			child := newNode()
			child.Attrs = parseAttrs(attrStr)
			stack[len(stack)-1].addChild(name, child)
			stack = append(stack, child)
		case m[12] >= 0: // close </name>
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		}
		last = m[1]
	}
	flushText(len(fragment))

	for _, name := range []string{"directive"} {
		if kids := root.Children[name]; len(kids) > 0 {
			return kids[0]
		}
	}
	return nil
}
