package ccachestore

import (
	"context"
	"errors"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/himmelblau-idm/kerbeiros-sub001/pkg/credential"
)

// BadgerStore persists ccache blobs in an embedded BadgerDB, grounded on
// dittofs's pkg/metadata/store/badger CRUD methods: db.Update/db.View txns,
// item.Value callbacks, and ErrKeyNotFound translated into a package-level
// sentinel.
type BadgerStore struct {
	db *badgerdb.DB
}

// NewBadgerStore opens (or creates) a BadgerDB database at dir.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	db, err := badgerdb.Open(badgerdb.DefaultOptions(dir))
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func badgerKey(p credential.Principal) []byte {
	return []byte("ccache:" + key(p))
}

func (s *BadgerStore) Save(ctx context.Context, principal credential.Principal, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(badgerKey(principal), data)
	})
}

func (s *BadgerStore) Load(ctx context.Context, principal credential.Principal) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(badgerKey(principal))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			data = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *BadgerStore) Delete(ctx context.Context, principal credential.Principal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badgerdb.Txn) error {
		err := txn.Delete(badgerKey(principal))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

var _ Store = (*BadgerStore)(nil)
