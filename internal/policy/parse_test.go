package policy

import (
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/kiwimcp/kiwimcp/internal/models"
)

func TestParsePolicy(t *testing.T) {
	yamlContent := `
name: "Test Policy"
rules:
  - name: "test_rule"
    expr: "size(input.chain) > 0"
    failure_msg: "chain is empty"
`
	var config models.PolicyConfig
	if err := yaml.Unmarshal([]byte(yamlContent), &config); err != nil {
		t.Fatalf("failed to parse YAML: %v", err)
	}

	if config.Name != "Test Policy" {
		t.Errorf("name = %q, want %q", config.Name, "Test Policy")
	}
	if len(config.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(config.Rules))
	}

	rule := config.Rules[0]
	if rule.Name != "test_rule" {
		t.Errorf("rule name = %q, want %q", rule.Name, "test_rule")
	}
	if rule.FailureMsg != "chain is empty" {
		t.Errorf("failure_msg = %q, want %q", rule.FailureMsg, "chain is empty")
	}
}

func TestParsePolicy_MultipleRules(t *testing.T) {
	yamlContent := `
name: "Mixed Policy"
rules:
  - name: "rule_one"
    expr: "true"
    failure_msg: "Always passes"
  - name: "rule_two"
    expr: "true"
    failure_msg: "Also passes"
`
	var config models.PolicyConfig
	if err := yaml.Unmarshal([]byte(yamlContent), &config); err != nil {
		t.Fatalf("failed to parse mixed YAML: %v", err)
	}
	if len(config.Rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(config.Rules))
	}
}

func TestPresetsHaveRules(t *testing.T) {
	for _, name := range []string{"baseline", "strict"} {
		t.Run(name, func(t *testing.T) {
			preset := GetPreset(name)
			if preset == nil {
				t.Fatalf("preset %q not found", name)
			}
			if len(preset.Rules) == 0 {
				t.Fatal("preset has no rules")
			}
		})
	}
}
