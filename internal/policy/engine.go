// Package policy evaluates CEL rules against a resolved executor chain and
// its merged config before the primitive executor dispatches,
// plus built-in presets for common capability restrictions.
package policy

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/kiwimcp/kiwimcp/internal/models"
)

// Engine evaluates PolicyConfig rules against a PolicyInput using CEL.
type Engine struct {
	env *cel.Env
}

// NewEngine builds a CEL environment exposing a single "input" map variable.
func NewEngine() (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("input", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Engine{env: env}, nil
}

// Evaluate runs every rule in config against input, short-circuiting none —
// all rules are evaluated and every result returned.
func (e *Engine) Evaluate(config *models.PolicyConfig, input Input) ([]models.PolicyResult, error) {
	results := make([]models.PolicyResult, 0, len(config.Rules))
	inputMap := input.ToMap()

	for _, rule := range config.Rules {
		result, err := e.evaluateRule(rule, inputMap)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate rule %q: %w", rule.Name, err)
		}
		results = append(results, result)
	}
	return results, nil
}

func (e *Engine) evaluateRule(rule models.PolicyRule, inputMap map[string]interface{}) (models.PolicyResult, error) {
	ast, issues := e.env.Compile(rule.Expr)
	if issues != nil && issues.Err() != nil {
		return models.PolicyResult{
			RuleName:   rule.Name,
			Passed:     false,
			FailureMsg: fmt.Sprintf("CEL compile error: %v", issues.Err()),
		}, nil
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return models.PolicyResult{
			RuleName:   rule.Name,
			Passed:     false,
			FailureMsg: fmt.Sprintf("CEL program error: %v", err),
		}, nil
	}

	out, _, err := prg.Eval(map[string]interface{}{"input": inputMap})
	if err != nil {
		return models.PolicyResult{
			RuleName:   rule.Name,
			Passed:     false,
			FailureMsg: fmt.Sprintf("CEL evaluation error: %v", err),
		}, nil
	}

	passed, ok := out.Value().(bool)
	if !ok {
		return models.PolicyResult{
			RuleName:   rule.Name,
			Passed:     false,
			FailureMsg: fmt.Sprintf("rule expression must return boolean, got %T", out.Value()),
		}, nil
	}

	result := models.PolicyResult{RuleName: rule.Name, Passed: passed}
	if !passed {
		result.FailureMsg = rule.FailureMsg
	}
	return result, nil
}

// CompileAndValidate checks that every rule in config parses, without
// evaluating any of them.
func (e *Engine) CompileAndValidate(config *models.PolicyConfig) error {
	var errs []string
	for _, rule := range config.Rules {
		_, issues := e.env.Compile(rule.Expr)
		if issues != nil && issues.Err() != nil {
			errs = append(errs, fmt.Sprintf("rule %q: %v", rule.Name, issues.Err()))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("policy validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
