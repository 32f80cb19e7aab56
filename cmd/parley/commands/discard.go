package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"parley/internal/crypto"
)

func discardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discard <peer-id>",
		Short: "Close and erase the session with a peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			peer, err := crypto.DecodeUserID(args[0])
			if err != nil {
				return fmt.Errorf("peer id: %w", err)
			}
			m, key, err := loadEngine()
			if err != nil {
				return err
			}
			if err := m.Discard(peer); err != nil {
				return err
			}
			if err := saveEngine(m, key); err != nil {
				return err
			}
			fmt.Println("discarded")
			return nil
		},
	}
}
