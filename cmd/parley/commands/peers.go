package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"parley/internal/crypto"
)

func peersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "peers",
		Short: "List peer sessions and their status",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _, err := loadEngine()
			if err != nil {
				return err
			}
			for _, peer := range m.Peers() {
				info, err := m.Info(peer)
				if err != nil {
					return err
				}
				last := "never"
				if info.LastSendAt > 0 {
					last = time.Unix(info.LastSendAt, 0).Format(time.RFC3339)
				}
				fmt.Printf("%s  %-8s %-9s last send %s\n",
					crypto.EncodeUserID(peer), info.Status, info.Direction, last)
			}
			return nil
		},
	}
}
