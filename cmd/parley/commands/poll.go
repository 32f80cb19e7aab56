package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"parley/internal/crypto"
)

// poll: fetch announcements and board entries, feed them through the
// engine, and release consumed board slots.
func pollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Fetch and process announcements and messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if wire.Board == nil {
				return fmt.Errorf("no board configured; use --board")
			}
			m, key, err := loadEngine()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			anns, next, err := wire.Board.FetchAnnouncements(ctx, loadCursor())
			if err != nil {
				return fmt.Errorf("fetch announcements: %w", err)
			}
			for _, wireBytes := range anns {
				sender, ok, err := m.FeedAnnouncement(wireBytes)
				if err != nil {
					return err
				}
				if ok {
					fmt.Printf("session with %s\n",
						crypto.EncodeUserID(crypto.DeriveUserID(sender)))
				}
			}

			entries, err := wire.Board.FetchEntries(ctx, m.ReadKeys())
			if err != nil {
				return fmt.Errorf("fetch entries: %w", err)
			}
			var release [][]byte
			for _, e := range entries {
				msg, ok, err := m.FeedBoardEntry(e.Seeker, e.Cipher)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				fmt.Printf("[%s] %s: %s\n",
					time.Unix(msg.SentAt, 0).Format(time.RFC3339),
					crypto.EncodeUserID(msg.Sender),
					msg.Body)
				release = append(release, e.Seeker)
				release = append(release, msg.Released...)
			}
			if err := wire.Board.ReleaseEntries(ctx, release); err != nil {
				return fmt.Errorf("release entries: %w", err)
			}

			if err := saveEngine(m, key); err != nil {
				return err
			}
			return saveCursor(next)
		},
	}
}
