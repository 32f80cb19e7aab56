package commands

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"parley/internal/crypto"
)

// establish <card>: start a session toward the peer behind a contact card.
func establishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "establish <card>",
		Short: "Announce a new session to a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer, err := crypto.DecodeCard(args[0])
			if err != nil {
				return fmt.Errorf("contact card: %w", err)
			}
			m, key, err := loadEngine()
			if err != nil {
				return err
			}
			announcement, err := m.EstablishOutgoing(peer)
			if err != nil {
				return err
			}
			if err := saveEngine(m, key); err != nil {
				return err
			}

			if wire.Board != nil {
				if err := wire.Board.PostAnnouncement(cmd.Context(), announcement); err != nil {
					return fmt.Errorf("broadcast announcement: %w", err)
				}
				fmt.Printf("announced to %s\n", crypto.EncodeUserID(crypto.DeriveUserID(peer)))
				return nil
			}
			// No board configured: hand the bytes to the user to deliver.
			fmt.Println(base64.StdEncoding.EncodeToString(announcement))
			return nil
		},
	}
}
