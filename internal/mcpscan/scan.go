package mcpscan

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kiwimcp/kiwimcp/internal/models"
	"github.com/kiwimcp/kiwimcp/internal/primitive"
)

// RiskLevel is how many dangerous-keyword hits a discovered tool triggered.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ToolFinding is one tool discovered on the scanned server, annotated with
// its risk assessment and whether that risk was declared in the chain's
// requires list.
type ToolFinding struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	RiskLevel   RiskLevel `json:"risk_level"`
	RiskReasons []string `json:"risk_reasons,omitempty"`
	Undeclared  bool     `json:"undeclared"`
}

// Report is the result of scanning one mcp_server/mcp_tool chain link.
type Report struct {
	LinkID          string        `json:"link_id"`
	ServerName      string        `json:"server_name,omitempty"`
	ServerVersion   string        `json:"server_version,omitempty"`
	ProtocolVersion string        `json:"protocol_version,omitempty"`
	Tools           []ToolFinding `json:"tools,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// Scan spawns the given chain link's configured command and inventories its
// tools via initialize + tools/list, flagging any whose name or description
// implies a capability absent from declaredRequires. The link's tool_type
// must be mcp_server or mcp_tool.
func Scan(ctx context.Context, link models.ChainLink, declaredRequires []string, timeout time.Duration) (*Report, error) {
	if link.ToolType != models.ToolTypeMCPServer && link.ToolType != models.ToolTypeMCPTool {
		return nil, fmt.Errorf("cannot scan chain link %q: tool_type %q is not an mcp server or tool", link.ID, link.ToolType)
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	config, _ := link.Manifest["config"].(map[string]interface{})
	spConfig, err := primitive.SubprocessConfigFromMap(config)
	if err != nil {
		return nil, fmt.Errorf("chain link %q has no spawnable command: %w", link.ID, err)
	}

	env := os.Environ()
	for k, v := range spConfig.Env {
		env = append(env, k+"="+v)
	}

	report := &Report{LinkID: link.ID}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	e := newEngine()
	if err := e.connect(ctx, spConfig.Command, spConfig.Args, env); err != nil {
		report.Error = err.Error()
		return report, nil
	}
	defer e.close()

	info, err := e.initialize(ctx)
	if err != nil {
		report.Error = fmt.Sprintf("initialization failed: %v", err)
		return report, nil
	}
	report.ServerName = info.Name
	report.ServerVersion = info.Version
	report.ProtocolVersion = protocolVersion

	tools, err := e.listTools(ctx)
	if err != nil {
		report.Error = fmt.Sprintf("failed to list tools: %v", err)
		return report, nil
	}

	declared := make(map[string]bool, len(declaredRequires))
	for _, r := range declaredRequires {
		declared[strings.ToLower(r)] = true
	}

	for _, t := range tools {
		level, reasons, capabilities := assessRisk(t)
		finding := ToolFinding{
			Name:        t.Name,
			Description: t.Description,
			RiskLevel:   level,
			RiskReasons: reasons,
		}
		if level != RiskLow && !anyDeclared(capabilities, declared) {
			finding.Undeclared = true
		}
		report.Tools = append(report.Tools, finding)
	}

	return report, nil
}

// keywordCapability maps a dangerous keyword to the capability tag a chain's
// requires list would need to declare to account for it.
var keywordCapability = map[string]string{
	"write": "filesystem", "delete": "filesystem", "fs": "filesystem", "rm": "filesystem", "remove": "filesystem",
	"exec": "process", "run": "process", "execute": "process", "bash": "process", "command": "process",
	"sudo": "process", "kill": "process", "spawn": "process", "eval": "process", "system": "process",
	"popen": "process", "subprocess": "process", "terminal": "process", "shell": "process",
}

func assessRisk(t mcpTool) (RiskLevel, []string, []string) {
	var reasons []string
	var capabilities []string
	seen := map[string]bool{}
	searchText := strings.ToLower(t.Name + " " + t.Description)

	for _, keyword := range dangerousKeywords {
		if strings.Contains(searchText, keyword) {
			reasons = append(reasons, fmt.Sprintf("contains dangerous keyword: %q", keyword))
			if cap := keywordCapability[keyword]; cap != "" && !seen[cap] {
				seen[cap] = true
				capabilities = append(capabilities, cap)
			}
		}
	}

	switch {
	case len(reasons) >= 2:
		return RiskHigh, reasons, capabilities
	case len(reasons) == 1:
		return RiskMedium, reasons, capabilities
	default:
		return RiskLow, nil, nil
	}
}

// anyDeclared reports whether every implied capability was declared in requires.
func anyDeclared(capabilities []string, declared map[string]bool) bool {
	if len(capabilities) == 0 {
		return true
	}
	for _, cap := range capabilities {
		if !declared[cap] {
			return false
		}
	}
	return true
}
