package commands

import (
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"parley/internal/crypto"
)

// send <peer-id> <message>: encrypt and post a message for <peer-id>.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <peer-id> <message>",
		Short: "Encrypt and post a message to a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer, err := crypto.DecodeUserID(args[0])
			if err != nil {
				return fmt.Errorf("peer id: %w", err)
			}
			m, key, err := loadEngine()
			if err != nil {
				return err
			}
			post, err := m.Send(peer, []byte(args[1]))
			if err != nil {
				return err
			}
			if err := saveEngine(m, key); err != nil {
				return err
			}

			if wire.Board != nil {
				if err := wire.Board.PostEntry(cmd.Context(), post); err != nil {
					return fmt.Errorf("post to board: %w", err)
				}
				fmt.Println("sent")
				return nil
			}
			fmt.Printf("seeker: %s\ncipher: %s\n",
				base64.StdEncoding.EncodeToString(post.Seeker),
				base64.StdEncoding.EncodeToString(post.Cipher))
			return nil
		},
	}
}
