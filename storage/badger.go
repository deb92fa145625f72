package storage

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// BadgerKV implements KV on an embedded BadgerDB. This is the default
// backend: a single low-traffic table fits comfortably in one badger
// instance and keeps the service free of external processes.
type BadgerKV struct {
	db  *badger.DB
	log *slog.Logger
}

func NewBadgerKV(db *badger.DB, log *slog.Logger) *BadgerKV {
	return &BadgerKV{db: db, log: log}
}

// OpenBadger opens (or creates) the badger directory at path.
func OpenBadger(path string, log *slog.Logger) (*BadgerKV, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return nil, err
	}
	return NewBadgerKV(db, log), nil
}

func (s *BadgerKV) Set(_ context.Context, key string, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (s *BadgerKV) Get(_ context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *BadgerKV) Delete(_ context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// DeleteMany batches the deletes through a WriteBatch so a purge of many
// posts never trips the single-transaction size limit.
func (s *BadgerKV) DeleteMany(_ context.Context, keys []string) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range keys {
		if err := wb.Delete([]byte(key)); err != nil {
			return err
		}
	}
	return wb.Flush()
}

func (s *BadgerKV) ScanPrefix(_ context.Context, prefix string) ([][]byte, error) {
	var values [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			value, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (s *BadgerKV) Close() error {
	s.log.Info("Closing BadgerDB...")
	return s.db.Close()
}

// DB exposes the underlying handle for the inspect tooling only.
func (s *BadgerKV) DB() *badger.DB {
	return s.db
}
