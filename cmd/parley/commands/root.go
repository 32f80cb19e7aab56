package commands

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"parley/internal/app"
	"parley/internal/crypto"
	"parley/internal/session"
)

// Blob names in the store.
const (
	saltBlob   = "salt"
	stateBlob  = "state"
	cursorBlob = "cursor"
)

var (
	home       string
	passphrase string
	boardURL   string
	storeKind  string
	verbose    bool

	wire *app.Wire
)

// Execute runs the CLI.
func Execute() error {
	root := &cobra.Command{
		Use:           "parley",
		Short:         "Seeker-based private messaging client",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".parley")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			// config.yaml in the home dir supplies defaults for flags
			// the user did not pass.
			v := viper.New()
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(home)
			if err := v.ReadInConfig(); err == nil {
				if boardURL == "" {
					boardURL = v.GetString("board_url")
				}
				if storeKind == "" {
					storeKind = v.GetString("store")
				}
			}

			log := logrus.New()
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			} else {
				log.SetLevel(logrus.WarnLevel)
			}

			var err error
			wire, err = app.NewWire(app.Config{
				Home:     home,
				BoardURL: boardURL,
				Store:    storeKind,
				Log:      log,
			})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire != nil {
				return wire.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "state dir (default ~/.parley)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting local state")
	root.PersistentFlags().StringVar(&boardURL, "board", "", "message board base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().StringVar(&storeKind, "store", "", "blob store backend: file or badger (default file)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		initCmd(), cardCmd(), establishCmd(), sendCmd(),
		pollCmd(), peersCmd(), discardCmd(), refreshCmd(),
	)
	return root.Execute()
}

// loadEngine restores the engine from the store using the passphrase.
func loadEngine() (*session.Manager, []byte, error) {
	if passphrase == "" {
		return nil, nil, fmt.Errorf("passphrase required (-p)")
	}
	salt, ok, err := wire.Store.Get(saltBlob)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, errors.New("no local state; run init first")
	}
	key, err := crypto.DeriveWrappingKey(passphrase, salt)
	if err != nil {
		return nil, nil, err
	}
	blob, ok, err := wire.Store.Get(stateBlob)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, errors.New("state blob missing; run init first")
	}
	m := session.NewManager(nil, wire.Log)
	if err := m.Load(blob, key); err != nil {
		return nil, nil, fmt.Errorf("unlock state: %w", err)
	}
	return m, key, nil
}

// saveEngine re-seals the engine after a mutating command.
func saveEngine(m *session.Manager, key []byte) error {
	blob, err := m.Export(key)
	if err != nil {
		return err
	}
	return wire.Store.Put(stateBlob, blob)
}

func loadCursor() int64 {
	b, ok, err := wire.Store.Get(cursorBlob)
	if err != nil || !ok || len(b) != 8 {
		return 0
	}
	return int64(binary.BigEndian.Uint64(b))
}

func saveCursor(c int64) error {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(c))
	return wire.Store.Put(cursorBlob, b)
}
