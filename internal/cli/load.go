package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load <kind> <id>",
	Short: "Resolve and parse an artifact, printing its structured metadata",
	Args:  cobra.ExactArgs(2),
	RunE:  runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	id := args[1]

	a, err := loadArtifact(kind, id)
	if err != nil {
		return err
	}

	var payload interface{}
	switch kind {
	case "directive":
		payload = a.Directive
	case "tool":
		payload = a.Tool
	case "knowledge":
		payload = a.Knowledge
	}

	out := struct {
		Kind      string      `json:"kind"`
		ID        string      `json:"id"`
		Version   string      `json:"version"`
		Path      string      `json:"path"`
		Scope     string      `json:"scope"`
		Signed    bool        `json:"signed"`
		Metadata  interface{} `json:"metadata"`
	}{
		Kind:     string(a.Kind),
		ID:       a.ID,
		Version:  a.Version,
		Path:     a.Path,
		Scope:    string(a.Scope),
		Signed:   a.Signature != nil,
		Metadata: payload,
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
