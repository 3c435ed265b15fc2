package cli

import (
	"fmt"
	"os"

	"github.com/kiwimcp/kiwimcp/internal/crypto"
	"github.com/spf13/cobra"
)

const (
	defaultPrivateKeyPath = "kiwimcp-private.key"
	defaultPublicKeyPath  = "kiwimcp-public.key"
)

var (
	keygenPrivateFlag string
	keygenPublicFlag  string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate an Ed25519 keypair for bundle distribution signing",
	Long: `keygen creates a keypair used by the bundle command's --key flag to
sign an exported artifact bundle.`,
	RunE: runKeygen,
}

func init() {
	keygenCmd.Flags().StringVar(&keygenPrivateFlag, "private", defaultPrivateKeyPath, "path for the private key file")
	keygenCmd.Flags().StringVar(&keygenPublicFlag, "public", defaultPublicKeyPath, "path for the public key file")
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(keygenPrivateFlag); err == nil {
		return fmt.Errorf("private key already exists at %s", keygenPrivateFlag)
	}
	if _, err := os.Stat(keygenPublicFlag); err == nil {
		return fmt.Errorf("public key already exists at %s", keygenPublicFlag)
	}

	if err := crypto.GenerateKeys(keygenPrivateFlag, keygenPublicFlag); err != nil {
		return fmt.Errorf("key generation failed: %w", err)
	}

	fmt.Printf("%s✓ Private key saved: %s%s\n", colorGreen, keygenPrivateFlag, colorReset)
	fmt.Printf("%s✓ Public key saved:  %s%s\n", colorGreen, keygenPublicFlag, colorReset)
	fmt.Printf("\n%s⚠ Keep your private key secret!%s\n", colorRed, colorReset)
	return nil
}
