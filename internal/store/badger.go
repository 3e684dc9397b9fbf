package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v3"
)

// BadgerStore keeps documents in an embedded badger database, for
// single-node deployments without redis or postgres.
type BadgerStore struct {
	codec
}

type badgerBackend struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a badger database at dir. An empty dir
// opens an in-memory instance.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{codec{backend: &badgerBackend{db: db}}}, nil
}

func docKey(name string) []byte {
	return []byte("doc:" + name)
}

func (b *badgerBackend) get(_ context.Context, name string) ([]byte, bool, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(name))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (b *badgerBackend) put(_ context.Context, name string, data []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(docKey(name), data)
	})
}

func (b *badgerBackend) ping(context.Context) error {
	if b.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return nil
}

func (b *badgerBackend) close() error {
	return b.db.Close()
}
