package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/kiwimcp/kiwimcp/internal/metadata"
	"github.com/kiwimcp/kiwimcp/internal/observability/logging"
	"github.com/kiwimcp/kiwimcp/internal/observability/receipt"
	"github.com/spf13/cobra"
)

var signCmd = &cobra.Command{
	Use:   "sign <kind> <id>",
	Short: "Recompute an artifact's integrity hash and write a fresh signature",
	Long: `sign resolves the artifact, recomputes its unified integrity hash over
the canonical body and kind-specific metadata, and rewrites the
file with a fresh {timestamp, hash} signature in the kind's comment style.`,
	Args: cobra.ExactArgs(2),
	RunE: runSign,
}

func init() {
	rootCmd.AddCommand(signCmd)
}

func runSign(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logging.From(ctx)
	start := time.Now()
	log.Event(ctx, "sign.start", map[string]any{"kind": args[0], "id": args[1]})

	var resultStatus = "success"
	var hash string
	defer func() {
		log.Event(ctx, "sign.complete", map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
			"result":      resultStatus,
		})
	}()

	kind, err := parseKind(args[0])
	if err != nil {
		resultStatus = "fail"
		return err
	}
	id := args[1]

	sess := receipt.Start(ctx, "kiwimcp sign", args)
	var finishErr error
	defer func() {
		opts := []receipt.Option{}
		if finishErr == nil {
			opts = append(opts, receipt.WithArtifact(receipt.ArtifactRef{Kind: string(kind), ID: id, Hash: hash}))
		}
		_ = sess.Finish(finishErr, opts...)
	}()

	a, err := loadArtifact(kind, id)
	if err != nil {
		resultStatus, finishErr = "fail", err
		return err
	}

	raw, err := os.ReadFile(a.Path)
	if err != nil {
		resultStatus, finishErr = "fail", err
		return err
	}

	hash, err = metadata.UnifiedHash(a)
	if err != nil {
		resultStatus, finishErr = "fail", fmt.Errorf("failed to compute integrity hash: %w", err)
		return finishErr
	}

	signed, err := metadata.SignWithHash(kind, extOf(a.Path), string(raw), hash, time.Now())
	if err != nil {
		resultStatus, finishErr = "fail", fmt.Errorf("failed to sign %s: %w", id, err)
		return finishErr
	}

	if err := os.WriteFile(a.Path, []byte(signed), 0644); err != nil {
		resultStatus, finishErr = "fail", fmt.Errorf("failed to write signed artifact: %w", err)
		return finishErr
	}

	fmt.Printf("%s✓ Signed %s '%s': %s%s\n", colorGreen, kind, id, hash, colorReset)
	return nil
}
