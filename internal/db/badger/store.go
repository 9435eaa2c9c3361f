// Package badger implements db.Store over an embedded BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/kailas-cloud/roadsafe/internal/db"
)

var _ db.Store = (*Store)(nil)

const maxConflictRetries = 5

// Store is a db.Store backed by BadgerDB. Counters are stored as decimal
// strings so values read the same as from the Redis driver.
type Store struct {
	db *badger.DB
}

// zapLogger adapts zap to badger.Logger.
type zapLogger struct {
	l *zap.SugaredLogger
}

var _ badger.Logger = (*zapLogger)(nil)

func (z *zapLogger) Errorf(msg string, args ...any)   { z.l.Errorf(msg, args...) }
func (z *zapLogger) Warningf(msg string, args ...any) { z.l.Warnf(msg, args...) }
func (z *zapLogger) Infof(msg string, args ...any)    { z.l.Debugf(msg, args...) }
func (z *zapLogger) Debugf(msg string, args ...any)   { z.l.Debugf(msg, args...) }

// Open opens a store at dir, creating the directory if needed.
// An empty dir opens an in-memory store.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.Logger = &zapLogger{l: logger.Named("badger").Sugar()}
	opts.Compression = options.None

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: bdb}, nil
}

// Ping reports an error once the database is closed.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return &db.Error{Op: db.OpPing, Err: errors.New("badger closed")}
	}
	return nil
}

// WaitForReady returns immediately: an opened embedded store is ready.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Close closes the database.
func (s *Store) Close() {
	_ = s.db.Close()
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Key: key, Err: err}
	}
	return out, nil
}

// SetWithTTL stores a value that expires after ttl.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value).WithTTL(ttl))
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Key: key, Err: err}
	}
	return nil
}

// IncrWithTTL adds delta to the counter at key in one transaction. A new
// counter gets ttl; an existing one keeps its expiry.
func (s *Store) IncrWithTTL(_ context.Context, key string, delta int64, ttl time.Duration) (int64, error) {
	var next int64
	err := s.update(func(txn *badger.Txn) error {
		cur, expiresAt, err := readCounter(txn, key)
		if err != nil {
			return err
		}
		next = cur + delta
		e := badger.NewEntry([]byte(key), []byte(strconv.FormatInt(next, 10)))
		if expiresAt != 0 {
			e.ExpiresAt = expiresAt
		} else if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return 0, &db.Error{Op: db.OpIncr, Key: key, Err: err}
	}
	return next, nil
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for range maxConflictRetries {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func readCounter(txn *badger.Txn, key string) (int64, uint64, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	v, err := item.ValueCopy(nil)
	if err != nil {
		return 0, 0, err
	}
	n, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", db.ErrNotInteger, v)
	}
	return n, item.ExpiresAt(), nil
}
