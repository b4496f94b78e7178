package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"ratchetd/internal/crypto"
	"ratchetd/internal/store"
)

// fingerprint: show the identity the service presents to agents.
func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the service public key and its fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			id, err := store.NewKeystore(cfg.Home).LoadIdentity(passphrase)
			if err != nil {
				return err
			}
			fmt.Println("public key: ", crypto.B64(id.Public.Slice()))
			fmt.Println("fingerprint:", crypto.Fingerprint(id.Public.Slice()))
			return nil
		},
	}
}
