package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kiwimcp/kiwimcp/internal/chain"
	"github.com/kiwimcp/kiwimcp/internal/observability/logging"
	"github.com/kiwimcp/kiwimcp/internal/observability/receipt"
	"github.com/kiwimcp/kiwimcp/internal/policy"
	"github.com/kiwimcp/kiwimcp/internal/primitive"
	"github.com/spf13/cobra"
)

var (
	runParamsFlag  []string
	runPolicyFlag  string
	runTimeoutFlag time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run <toolID>",
	Short: "Resolve a tool's chain, gate it through policy, and dispatch to its primitive",
	Long: `run resolves toolID's executor chain, re-verifies every link's
integrity hash, optionally evaluates a policy preset against the resolved
chain and merged config (rejecting execution if any rule fails), and
dispatches to the terminal primitive.

Example:
  kiwimcp run fetch_url --param url=https://example.com --policy baseline`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringArrayVar(&runParamsFlag, "param", nil, "key=value parameter, repeatable")
	runCmd.Flags().StringVar(&runPolicyFlag, "policy", "", "policy preset name to gate execution (baseline, strict)")
	runCmd.Flags().DurationVar(&runTimeoutFlag, "timeout", 30*time.Second, "execution timeout")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logging.From(ctx)
	toolID := args[0]

	params, err := parseParams(runParamsFlag)
	if err != nil {
		return err
	}

	sess := receipt.Start(ctx, "kiwimcp run", args)

	loader := chain.NewFileLoader(projectRoot())
	resolver := chain.New(loader, 0)
	resolvedChain, err := resolver.Resolve(toolID)
	if err != nil {
		_ = sess.Finish(err)
		return fmt.Errorf("failed to resolve chain for '%s': %w", toolID, err)
	}

	var policyStatus string
	var ruleHits []receipt.RuleHit
	if runPolicyFlag != "" {
		preset := policy.GetPreset(runPolicyFlag)
		if preset == nil {
			err := fmt.Errorf("unknown policy preset %q", runPolicyFlag)
			_ = sess.Finish(err)
			return err
		}
		engine, err := policy.NewEngine()
		if err != nil {
			_ = sess.Finish(err)
			return err
		}
		merged := chain.MergeConfigs(resolvedChain)
		input := policy.BuildInput(toolID, resolvedChain, merged)
		results, err := engine.Evaluate(preset, input)
		if err != nil {
			_ = sess.Finish(err)
			return err
		}
		policyStatus = "pass"
		for _, r := range results {
			if !r.Passed {
				policyStatus = "fail"
				ruleHits = append(ruleHits, receipt.RuleHit{Name: r.RuleName, FailureMsg: r.FailureMsg})
			}
		}
		if policyStatus == "fail" {
			finishErr := fmt.Errorf("policy %q denied execution of '%s'", runPolicyFlag, toolID)
			_ = sess.Finish(finishErr, receipt.WithPolicy(runPolicyFlag, policyStatus, ruleHits))
			fmt.Printf("%s✗ Policy DENY%s\n", colorRed, colorReset)
			for _, h := range ruleHits {
				fmt.Printf("  %s→ %s: %s%s\n", colorRed, h.Name, h.FailureMsg, colorReset)
			}
			return finishErr
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, runTimeoutFlag)
	defer cancel()

	executor := primitive.NewExecutor(loader, 0)
	start := time.Now()
	result := executor.Execute(execCtx, toolID, params)
	log.Event(ctx, "run.complete", map[string]any{
		"tool_id":     toolID,
		"success":     result.Success,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	var terminalID string
	if t := resolvedChain.Terminal(); t != nil {
		terminalID = t.ID
	}
	opts := []receipt.Option{receipt.WithChain(len(resolvedChain), terminalID, result.Success)}
	if runPolicyFlag != "" {
		opts = append(opts, receipt.WithPolicy(runPolicyFlag, policyStatus, ruleHits))
	}

	var finishErr error
	if !result.Success {
		finishErr = fmt.Errorf("execution failed: %s", result.Error)
	}
	_ = sess.Finish(finishErr, opts...)

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))

	if !result.Success {
		return finishErr
	}
	return nil
}

func parseParams(pairs []string) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	for _, p := range pairs {
		parts := strings.SplitN(p, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --param %q: must be key=value", p)
		}
		out[parts[0]] = parts[1]
	}
	return out, nil
}
