package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"ratchetd/internal/crypto"
	"ratchetd/internal/domain"
	"ratchetd/internal/store"
)

// keygen: create the service's long-term identity key pair.
func keygenCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate and seal the service identity key pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			ks := store.NewKeystore(cfg.Home)
			if ks.Exists() && !force {
				return fmt.Errorf("identity already exists in %s (use --force to replace)", cfg.Home)
			}

			priv, pub, err := crypto.GenerateKeyPair()
			if err != nil {
				return err
			}
			id := domain.Identity{Private: priv, Public: pub}
			if err := ks.SaveIdentity(passphrase, id); err != nil {
				return err
			}

			fmt.Println("public key: ", crypto.B64(pub.Slice()))
			fmt.Println("fingerprint:", crypto.Fingerprint(pub.Slice()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing identity")
	return cmd
}
