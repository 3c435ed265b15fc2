package cli

import (
	"encoding/json"
	"fmt"

	"github.com/kiwimcp/kiwimcp/internal/chain"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <toolID>",
	Short: "Walk a tool's executor_id chain down to its terminal primitive",
	Long: `resolve follows executor_id references from the named tool to its
terminal primitive, printing the ordered chain and the merged
config each link contributes.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	toolID := args[0]

	loader := chain.NewFileLoader(projectRoot())
	resolver := chain.New(loader, 0)

	resolvedChain, err := resolver.Resolve(toolID)
	if err != nil {
		return fmt.Errorf("failed to resolve chain for '%s': %w", toolID, err)
	}

	merged := chain.MergeConfigs(resolvedChain)

	out := struct {
		ToolID      string                 `json:"tool_id"`
		Chain       []string               `json:"chain"`
		TerminalID  string                 `json:"terminal_id"`
		MergedConfig map[string]interface{} `json:"merged_config"`
	}{
		ToolID:       toolID,
		Chain:        resolvedChain.IDs(),
		MergedConfig: merged,
	}
	if t := resolvedChain.Terminal(); t != nil {
		out.TerminalID = t.ID
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
