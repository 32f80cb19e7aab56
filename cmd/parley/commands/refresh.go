package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"parley/internal/crypto"
)

// refresh: report sessions whose send side has gone stale. Sending the
// keep-alives is left to the user or a wrapper script.
func refreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "List peers needing a keep-alive message",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := loadEngine()
			if err != nil {
				return err
			}
			stale := m.Refresh(time.Now())
			if len(stale) == 0 {
				fmt.Println("all sessions fresh")
				return nil
			}
			for _, peer := range stale {
				fmt.Println(crypto.EncodeUserID(peer))
			}
			return nil
		},
	}
}
