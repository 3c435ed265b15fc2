package cli

import (
	"fmt"
	"time"

	"github.com/kiwimcp/kiwimcp/internal/kerrors"
	"github.com/kiwimcp/kiwimcp/internal/observability/logging"
	"github.com/kiwimcp/kiwimcp/internal/observability/receipt"
	"github.com/kiwimcp/kiwimcp/internal/verify"
	"github.com/spf13/cobra"
)

var sharedVerifier = verify.New()

var verifyCmd = &cobra.Command{
	Use:   "verify <kind> <id>",
	Short: "Check an artifact's stored signature against its recomputed hash",
	Long: `verify re-reads the artifact, strips its signature, recomputes the
unified integrity hash, and compares it against the hash embedded in the
signature. Verification outcomes are memoized per hash for the
life of the process.`,
	Args: cobra.ExactArgs(2),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logging.From(ctx)

	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}
	id := args[1]

	sess := receipt.Start(ctx, "kiwimcp verify", args)

	a, err := loadArtifact(kind, id)
	if err != nil {
		log.Event(ctx, "verify.complete", map[string]any{"result": "fail", "reason": err.Error()})
		_ = sess.Finish(err)
		fmt.Printf("%s✗ %v%s\n", colorRed, err, colorReset)
		return err
	}
	if a.Signature == nil {
		verr := kerrors.New(kerrors.SignatureMissing, fmt.Sprintf("%s '%s' has no signature", kind, id))
		_ = sess.Finish(verr, receipt.WithArtifact(receipt.ArtifactRef{Kind: string(kind), ID: id, Version: a.Version}))
		fmt.Printf("%s✗ %v%s\n", colorRed, verr, colorReset)
		return verr
	}

	start := time.Now()
	verr := sharedVerifier.VerifySingle(kind, id, a.Version, a.Path, a.Signature.Hash)
	log.Event(ctx, "verify.complete", map[string]any{
		"duration_ms": time.Since(start).Milliseconds(),
		"result":      boolResult(verr == nil),
	})

	ref := receipt.ArtifactRef{Kind: string(kind), ID: id, Version: a.Version, Hash: a.Signature.Hash}
	_ = sess.Finish(verr, receipt.WithArtifact(ref))

	if verr != nil {
		fmt.Printf("%s✗ TAMPER DETECTED: %v%s\n", colorRed, verr, colorReset)
		return verr
	}

	fmt.Printf("%s✓ Signature verified for %s '%s'%s\n", colorGreen, kind, id, colorReset)
	return nil
}

func boolResult(ok bool) string {
	if ok {
		return "success"
	}
	return "fail"
}
