package models

// PolicyRule is one named CEL expression evaluated against a resolved
// executor chain before the primitive executor dispatches.
type PolicyRule struct {
	Name       string `yaml:"name" json:"name"`
	Expr       string `yaml:"expr" json:"expr"`
	FailureMsg string `yaml:"failure_msg" json:"failure_msg"`
}

// PolicyConfig is a named set of rules, typically loaded from an embedded
// preset or a project-local YAML file.
type PolicyConfig struct {
	Name  string       `yaml:"name" json:"name"`
	Rules []PolicyRule `yaml:"rules" json:"rules"`
}

// PolicyResult is the outcome of evaluating one rule.
type PolicyResult struct {
	RuleName   string
	Passed     bool
	FailureMsg string
}
