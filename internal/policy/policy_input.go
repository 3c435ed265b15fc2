package policy

import "github.com/kiwimcp/kiwimcp/internal/models"

// Input is the deterministic, CEL-facing projection of a resolved chain and
// its merged config, evaluated before dispatch. Field
// names are chosen to read naturally inside CEL expressions, e.g.
// `input.terminal.id == "subprocess" && !input.config.cwd.contains("..")`.
type Input struct {
	ToolID   string
	Chain    []ChainLinkInput
	Terminal ChainLinkInput
	Config   map[string]interface{}
	Requires []string
}

// ChainLinkInput mirrors one models.ChainLink, minus fields with no policy
// relevance (file path, content hash — integrity is already re-verified
// separately by §4.7 before the policy gate runs).
type ChainLinkInput struct {
	ID         string
	Version    string
	ToolType   string
	ExecutorID string
}

// BuildInput projects a resolved chain and its merged config into a policy
// Input. requires is the union of every link's declared capabilities.
func BuildInput(toolID string, chain models.Chain, config map[string]interface{}) Input {
	links := make([]ChainLinkInput, len(chain))
	requiresSet := map[string]bool{}

	for i, link := range chain {
		executorID := ""
		if link.ExecutorID != nil {
			executorID = *link.ExecutorID
		}
		links[i] = ChainLinkInput{
			ID:         link.ID,
			Version:    link.Version,
			ToolType:   string(link.ToolType),
			ExecutorID: executorID,
		}
		if reqs, ok := link.Manifest["requires"].([]interface{}); ok {
			for _, r := range reqs {
				if s, ok := r.(string); ok {
					requiresSet[s] = true
				}
			}
		}
	}

	requires := make([]string, 0, len(requiresSet))
	for r := range requiresSet {
		requires = append(requires, r)
	}

	var terminal ChainLinkInput
	if len(links) > 0 {
		terminal = links[len(links)-1]
	}

	return Input{
		ToolID:   toolID,
		Chain:    links,
		Terminal: terminal,
		Config:   config,
		Requires: requires,
	}
}

// ToMap flattens Input into the plain map CEL evaluates against.
func (in Input) ToMap() map[string]interface{} {
	chain := make([]interface{}, len(in.Chain))
	for i, link := range in.Chain {
		chain[i] = linkToMap(link)
	}

	requires := make([]interface{}, len(in.Requires))
	for i, r := range in.Requires {
		requires[i] = r
	}

	config := in.Config
	if config == nil {
		config = map[string]interface{}{}
	}

	return map[string]interface{}{
		"tool_id":  in.ToolID,
		"chain":    chain,
		"terminal": linkToMap(in.Terminal),
		"config":   config,
		"requires": requires,
	}
}

func linkToMap(l ChainLinkInput) map[string]interface{} {
	return map[string]interface{}{
		"id":          l.ID,
		"version":     l.Version,
		"tool_type":   l.ToolType,
		"executor_id": l.ExecutorID,
	}
}
