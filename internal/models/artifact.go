// Package models holds the shared data types for directives, tools, and knowledge
// entries that flow through the parser, metadata, integrity, validate, chain, and
// primitive packages.
package models

// Kind identifies one of the three artifact classes.
type Kind string

const (
	KindDirective Kind = "directive"
	KindTool      Kind = "tool"
	KindKnowledge Kind = "knowledge"
)

// Ext returns the canonical file extension for the kind, or "" for tool (which
// has several allowed extensions — see ToolExtensions).
func (k Kind) Ext() string {
	switch k {
	case KindDirective, KindKnowledge:
		return ".md"
	default:
		return ""
	}
}

// ToolExtensions are tried in this fixed order when resolving a tool by id.
var ToolExtensions = []string{".py", ".yaml", ".yml", ".sh"}

// Scope is project (closest, wins resolution) or user (fallback).
type Scope string

const (
	ScopeProject Scope = "project"
	ScopeUser    Scope = "user"
)

// ToolType distinguishes primitives (chain terminals) from composable tool kinds.
type ToolType string

const (
	ToolTypePrimitive ToolType = "primitive"
	ToolTypeRuntime   ToolType = "runtime"
	ToolTypeScript    ToolType = "script"
	ToolTypeAPI       ToolType = "api"
	ToolTypeMCPServer ToolType = "mcp_server"
	ToolTypeMCPTool   ToolType = "mcp_tool"
	ToolTypeHTTP      ToolType = "http"
)

// ModelTier is the allowed set of directive model tiers.
type ModelTier string

const (
	TierFast         ModelTier = "fast"
	TierBalanced     ModelTier = "balanced"
	TierGeneral      ModelTier = "general"
	TierReasoning    ModelTier = "reasoning"
	TierExpert       ModelTier = "expert"
	TierOrchestrator ModelTier = "orchestrator"
)

// Signature is the decoded {timestamp, hash64} pair embedded as a single
// kind-specific comment line.
type Signature struct {
	Timestamp string
	Hash      string
}

// Permission is one <permission tag="..." .../> entry from a directive.
type Permission struct {
	Tag   string
	Attrs map[string]string
}

// ModelSpec is the <model tier=... fallback=... parallel=... id=.../> element.
type ModelSpec struct {
	Tier     ModelTier
	Fallback string
	Parallel bool
	ID       string
}

// Input is one <input name type required/> declaration.
type Input struct {
	Name     string
	Type     string
	Required bool
}

// ProcessStep is one <step name>...</step> in a directive's <process>.
type ProcessStep struct {
	Name          string
	Description   string
	Action        string
	Verifications []string
}

// MCPRef is one <mcp name required tools refresh/> declaration.
type MCPRef struct {
	Name     string
	Required bool
	Tools    string
	Refresh  string
}

// DirectiveMetadata is the structured data extracted from a directive file.
type DirectiveMetadata struct {
	Name        string
	Version     string
	Description string
	Category    string
	Permissions []Permission
	Model       ModelSpec
	Inputs      []Input
	InputSchema map[string]interface{}
	Process     []ProcessStep
	MCPs        []MCPRef
}

// ToolMetadata is the structured data extracted from a tool file (Python or YAML).
type ToolMetadata struct {
	ID                string
	Version           string
	Description       string
	Category          string
	ToolType          ToolType
	ExecutorID        *string
	Requires          []string
	Config            map[string]interface{}
	ConfigSchema      map[string]interface{}
	Parameters        []Input
	Dependencies      []string
	RequiredEnvVars   []string
}

// KnowledgeMetadata is the structured data extracted from a knowledge entry.
type KnowledgeMetadata struct {
	ID        string
	Title     string
	Version   string
	Category  string
	EntryType string
	Tags      []string
	Schema    map[string]interface{}
	Content   string
}

// Artifact is the logical record for any parsed, on-disk artifact.
type Artifact struct {
	Kind          Kind
	ID            string
	Version       string
	Category      string
	Path          string
	Scope         Scope
	CanonicalBody string
	Signature     *Signature

	Directive *DirectiveMetadata
	Tool      *ToolMetadata
	Knowledge *KnowledgeMetadata
}

// ChainLink is one annotated hop in a resolved executor chain.
type ChainLink struct {
	ID          string
	Version     string
	ToolType    ToolType
	ExecutorID  *string
	Manifest    map[string]interface{}
	FilePath    string
	ContentHash string
}

// Chain is the ordered sequence of links from leaf tool to terminal primitive.
type Chain []ChainLink

// Terminal returns the last link in the chain, the primitive.
func (c Chain) Terminal() *ChainLink {
	if len(c) == 0 {
		return nil
	}
	return &c[len(c)-1]
}

// IDs returns the chain's tool ids in order, for cycle/dup checks and logging.
func (c Chain) IDs() []string {
	ids := make([]string, len(c))
	for i, link := range c {
		ids[i] = link.ID
	}
	return ids
}

// ExecutionResult is the uniform result of a primitive-executor run.
type ExecutionResult struct {
	Success    bool                   `json:"success"`
	Data       interface{}            `json:"data,omitempty"`
	DurationMs int64                  `json:"duration_ms"`
	Error      string                 `json:"error,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}
