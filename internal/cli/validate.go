package cli

import (
	"fmt"
	"os"

	"github.com/kiwimcp/kiwimcp/internal/models"
	"github.com/kiwimcp/kiwimcp/internal/validate"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <kind> <id>",
	Short: "Check an artifact's structure and declared fields for issues",
	Args:  cobra.ExactArgs(2),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	id := args[1]

	a, err := loadArtifact(kind, id)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(a.Path)
	if err != nil {
		return err
	}

	var result *validate.Result
	switch kind {
	case models.KindDirective:
		result = validate.Directive(a.Path, a.Directive, string(raw))
	case models.KindTool:
		result = validate.Tool(a.Path, a.Tool)
	case models.KindKnowledge:
		result = validate.Knowledge(a.Path, a.Knowledge)
	}

	if result.Valid {
		fmt.Printf("%s✓ %s '%s' is valid%s\n", colorGreen, kind, id, colorReset)
		return nil
	}

	fmt.Printf("%s✗ %s '%s' has %d issue(s)%s\n", colorRed, kind, id, len(result.Issues), colorReset)
	for _, issue := range result.Issues {
		fmt.Printf("  %s→ %s%s\n", colorRed, issue, colorReset)
	}
	return fmt.Errorf("validation failed for %s '%s'", kind, id)
}
