package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kiwimcp/kiwimcp/internal/bundler"
	"github.com/kiwimcp/kiwimcp/internal/crypto"
	"github.com/kiwimcp/kiwimcp/internal/sigstore"
	"github.com/spf13/cobra"
)

const bundleCanonVersion = "bundle-v1"

var (
	bundleArtifactsFlag []string
	bundleOutputFlag    string
	bundleKeyFlag       string
	bundleSigstoreFlag  bool
)

var bundleCmd = &cobra.Command{
	Use:   "bundle <kind>:<id> [<kind>:<id> ...]",
	Short: "Package signed artifacts into a distributable zip with a content manifest",
	Long: `bundle packages the given artifacts into a single zip with a
manifest.json listing each file's name, size, and SHA256,
so a recipient can verify nothing was added, removed, or
altered in transit. --key or --sigstore additionally sign the zip itself,
distinct from each artifact's own per-file integrity signature.

Example:
  kiwimcp bundle tool:fetch_url directive:summarize -o release.zip --key private.key`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBundle,
}

func init() {
	bundleCmd.Flags().StringVarP(&bundleOutputFlag, "output", "o", "bundle.zip", "output zip path")
	bundleCmd.Flags().StringVarP(&bundleKeyFlag, "key", "k", "", "Ed25519 private key to sign the bundle")
	bundleCmd.Flags().BoolVar(&bundleSigstoreFlag, "sigstore", false, "sign the bundle with Sigstore keyless signing (requires cosign)")
	rootCmd.AddCommand(bundleCmd)
}

func runBundle(cmd *cobra.Command, args []string) error {
	if bundleSigstoreFlag && bundleKeyFlag != "" {
		return fmt.Errorf("cannot use both --sigstore and --key")
	}

	var paths, names []string
	for _, spec := range args {
		parts := strings.SplitN(spec, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid artifact %q: must be kind:id", spec)
		}
		kind, err := parseKind(parts[0])
		if err != nil {
			return err
		}
		a, err := loadArtifact(kind, parts[1])
		if err != nil {
			return err
		}
		paths = append(paths, a.Path)
		names = append(names, fmt.Sprintf("%s/%s", kind, parts[1]+extOf(a.Path)))
	}

	opts := bundler.BundleOptions{ArtifactPaths: paths, ArtifactNames: names, OutputPath: bundleOutputFlag}
	manifest, err := bundler.GenerateManifest(opts)
	if err != nil {
		return fmt.Errorf("failed to generate manifest: %w", err)
	}

	readme := fmt.Sprintf("kiwimcp artifact bundle\ngenerated: %s\nartifacts: %d\n",
		time.Now().UTC().Format(time.RFC3339), len(manifest.Files))

	if err := bundler.CreateBundle(opts, readme, manifest); err != nil {
		return fmt.Errorf("failed to create bundle: %w", err)
	}
	fmt.Printf("%s✓ Bundle created: %s%s\n", colorGreen, bundleOutputFlag, colorReset)

	if bundleKeyFlag != "" {
		data, err := os.ReadFile(bundleOutputFlag)
		if err != nil {
			return err
		}
		sig, err := crypto.Sign(data, bundleKeyFlag)
		if err != nil {
			return fmt.Errorf("failed to sign bundle: %w", err)
		}
		envelope := crypto.WriteSignature(sig, bundleCanonVersion)
		if err := os.WriteFile(bundleOutputFlag+".sig", envelope, 0644); err != nil {
			return fmt.Errorf("failed to write signature: %w", err)
		}
		fmt.Printf("%s✓ Bundle signed: %s.sig%s\n", colorGreen, bundleOutputFlag, colorReset)
	}

	if bundleSigstoreFlag {
		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()
		bundleJSON, err := sigstore.SignBundle(ctx, bundleOutputFlag, sigstore.GetRunner())
		if err != nil {
			return fmt.Errorf("sigstore signing failed: %w", err)
		}
		envelope, err := crypto.WriteSigstoreSignature(bundleJSON, bundleCanonVersion)
		if err != nil {
			return fmt.Errorf("failed to build sigstore envelope: %w", err)
		}
		if err := os.WriteFile(bundleOutputFlag+".sig", envelope, 0644); err != nil {
			return fmt.Errorf("failed to write signature: %w", err)
		}
		fmt.Printf("%s✓ Bundle signed (Sigstore keyless): %s.sig%s\n", colorGreen, bundleOutputFlag, colorReset)
	}

	return nil
}
