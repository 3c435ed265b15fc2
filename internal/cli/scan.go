package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kiwimcp/kiwimcp/internal/chain"
	"github.com/kiwimcp/kiwimcp/internal/mcpscan"
	"github.com/kiwimcp/kiwimcp/internal/models"
	"github.com/spf13/cobra"
)

var scanTimeoutFlag time.Duration

var scanCmd = &cobra.Command{
	Use:   "scan <toolID>",
	Short: "Spawn a tool's mcp_server/mcp_tool link and flag undeclared capabilities",
	Long: `scan resolves toolID's executor chain, finds its mcp_server or
mcp_tool link, spawns it, and inventories its tools via initialize +
tools/list, flagging any tool whose name or description implies a
capability absent from that link's requires list.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().DurationVarP(&scanTimeoutFlag, "timeout", "t", mcpscan.DefaultTimeout, "timeout for the MCP handshake")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	toolID := args[0]

	loader := chain.NewFileLoader(projectRoot())
	resolver := chain.New(loader, 0)
	resolvedChain, err := resolver.Resolve(toolID)
	if err != nil {
		return fmt.Errorf("failed to resolve chain for '%s': %w", toolID, err)
	}

	var link *models.ChainLink
	var requires []string
	for i := range resolvedChain {
		if resolvedChain[i].ToolType == models.ToolTypeMCPServer || resolvedChain[i].ToolType == models.ToolTypeMCPTool {
			link = &resolvedChain[i]
			break
		}
	}
	if link == nil {
		return fmt.Errorf("no mcp_server or mcp_tool link found in the chain for '%s'", toolID)
	}
	if reqs, ok := link.Manifest["requires"].([]interface{}); ok {
		for _, r := range reqs {
			if s, ok := r.(string); ok {
				requires = append(requires, s)
			}
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeoutFlag)
	defer cancel()

	report, err := mcpscan.Scan(ctx, *link, requires, scanTimeoutFlag)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))

	if report.Error != "" {
		return fmt.Errorf("scan reported an error: %s", report.Error)
	}
	var undeclared []string
	for _, t := range report.Tools {
		if t.Undeclared {
			undeclared = append(undeclared, t.Name)
		}
	}
	if len(undeclared) > 0 {
		fmt.Printf("%s✗ %d tool(s) with undeclared capabilities: %s%s\n", colorRed, len(undeclared), strings.Join(undeclared, ", "), colorReset)
		return fmt.Errorf("undeclared capabilities detected")
	}
	fmt.Printf("%s✓ No undeclared capabilities detected%s\n", colorGreen, colorReset)
	return nil
}
