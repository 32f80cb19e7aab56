package commands

import (
	"crypto/rand"
	"fmt"

	"github.com/spf13/cobra"

	"parley/internal/crypto"
	"parley/internal/session"
)

// identityTag domain-separates key derivation for this application.
const identityTag = "parley/v1"

func initCmd() *cobra.Command {
	var seed string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Derive identity keys from a seed and create local state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if _, ok, _ := wire.Store.Get(saltBlob); ok {
				return fmt.Errorf("local state already exists in %s", home)
			}

			id, err := crypto.IdentityFromSeed([]byte(seed), []byte(identityTag))
			if err != nil {
				return err
			}

			salt := make([]byte, crypto.SaltSize)
			if _, err := rand.Read(salt); err != nil {
				return err
			}
			key, err := crypto.DeriveWrappingKey(passphrase, salt)
			if err != nil {
				return err
			}

			m := session.NewManager(&id, wire.Log)
			if err := wire.Store.Put(saltBlob, salt); err != nil {
				return err
			}
			if err := saveEngine(m, key); err != nil {
				return err
			}

			fmt.Printf("Identity created.\nUser ID: %s\nCard:    %s\n",
				crypto.EncodeUserID(crypto.DeriveUserID(id.Pub)),
				crypto.EncodeCard(id.Pub))
			return nil
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "seed bytes from your mnemonic provider")
	_ = cmd.MarkFlagRequired("seed")
	return cmd
}
