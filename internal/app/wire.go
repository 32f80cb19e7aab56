package app

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"parley/internal/board"
	"parley/internal/domain"
	"parley/internal/store"
)

// Wire bundles the store and board client for the CLI.
type Wire struct {
	Store domain.BlobStore
	Board domain.BoardClient // nil when no board URL is configured
	Log   *logrus.Logger
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	log := cfg.Log
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}

	var blobs domain.BlobStore
	var err error
	switch cfg.Store {
	case StoreBadger:
		blobs, err = store.OpenBadger(filepath.Join(cfg.Home, "state.badger"))
	case StoreFile, "":
		blobs, err = store.NewFileStore(cfg.Home)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
	if err != nil {
		return nil, err
	}

	w := &Wire{Store: blobs, Log: log}
	if cfg.BoardURL != "" {
		w.Board = board.NewClient(cfg.BoardURL, cfg.HTTP)
	}
	return w, nil
}

// Close releases the store.
func (w *Wire) Close() error { return w.Store.Close() }
