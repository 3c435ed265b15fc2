package cli

import (
	"fmt"

	"github.com/kiwimcp/kiwimcp/internal/differ"
	"github.com/kiwimcp/kiwimcp/internal/observability/receipt"
	"github.com/spf13/cobra"
)

var diffRecordFlag bool

var diffCmd = &cobra.Command{
	Use:   "diff <kind> <id>",
	Short: "Compare an artifact's current manifest against its last recorded snapshot",
	Long: `diff builds the artifact's manifest (its declared metadata, not its
file bytes) and compares it against the snapshot recorded the last time it
was signed, reporting added/removed/changed/no_change along with a plain
English translation of what changed.

Use --record after reviewing a diff to accept the current state as the new
baseline, same as sign does automatically.`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().BoolVar(&diffRecordFlag, "record", false, "record the current manifest as the new snapshot baseline")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	id := args[1]

	a, err := loadArtifact(kind, id)
	if err != nil {
		return err
	}

	eng := differ.NewEngine(projectRoot())

	sess := receipt.Start(ctx, "kiwimcp diff", args)

	result, err := eng.Diff(a)
	if err != nil {
		_ = sess.Finish(err)
		return fmt.Errorf("diff failed: %w", err)
	}

	_ = sess.Finish(nil, receipt.WithDrift(string(result.DriftType), result.Translations))

	switch result.DriftType {
	case differ.DriftAdded:
		fmt.Printf("%s+ %s '%s' is new (no prior snapshot)%s\n", colorGreen, kind, id, colorReset)
	case differ.DriftNoChange:
		fmt.Printf("%s✓ No change detected for %s '%s'%s\n", colorGreen, kind, id, colorReset)
	case differ.DriftRemoved:
		fmt.Printf("%s- %s '%s' was removed%s\n", colorRed, kind, id, colorReset)
	default:
		fmt.Printf("%s%s%s changed%s\n", colorYellow, kind, id, colorReset)
		for _, t := range result.Translations {
			fmt.Printf("  %s• %s%s\n", colorYellow, t, colorReset)
		}
	}

	if diffRecordFlag {
		if err := eng.RecordSnapshot(a); err != nil {
			return fmt.Errorf("failed to record snapshot: %w", err)
		}
		fmt.Printf("%s✓ Snapshot recorded%s\n", colorGreen, colorReset)
	}

	return nil
}
