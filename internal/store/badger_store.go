package store

import (
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"parley/internal/domain"
)

// BadgerStore keeps blobs in a Badger database.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) the database at dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

// Put stores a blob under name.
func (s *BadgerStore) Put(name string, blob []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(name), blob)
	})
}

// Get reads a blob; a missing name is not an error.
func (s *BadgerStore) Get(name string) ([]byte, bool, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(name))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// Close flushes and closes the database.
func (s *BadgerStore) Close() error { return s.db.Close() }

var _ domain.BlobStore = (*BadgerStore)(nil)
