package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"parley/internal/crypto"
)

// card: print our user id, contact card and fingerprint.
func cardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "card",
		Short: "Show your user ID and contact card",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := loadEngine()
			if err != nil {
				return err
			}
			pub, err := m.PublicKeys()
			if err != nil {
				return err
			}
			fmt.Printf("User ID:     %s\n", crypto.EncodeUserID(crypto.DeriveUserID(pub)))
			fmt.Printf("Card:        %s\n", crypto.EncodeCard(pub))
			fmt.Printf("Fingerprint: %s\n", crypto.Fingerprint(pub.X.Slice()))
			return nil
		},
	}
}
