// Bookshelf - Book Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

const sessionKeyPrefix = "session:"

// maxUpdateAttempts bounds Update's retries on badger.ErrConflict.
const maxUpdateAttempts = 5

// BadgerStore persists sessions in BadgerDB. Entries carry a Badger TTL
// matching ExpiresAt, so expired sessions also disappear during compaction
// even if CleanupExpired never runs.
type BadgerStore struct {
	db     *badger.DB
	ownsDB bool
	now    func() time.Time
	minTTL time.Duration
}

// OpenBadgerStore opens (or creates) a Badger database at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for sessions: %w", err)
	}
	s := NewBadgerStore(db)
	s.ownsDB = true
	return s, nil
}

// NewBadgerStore wraps an already open database. Close does not close db.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db, now: time.Now, minTTL: time.Second}
}

func sessionKey(id string) []byte {
	return []byte(sessionKeyPrefix + id)
}

func (b *BadgerStore) entry(s *Session) (*badger.Entry, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	ttl := s.ExpiresAt.Sub(b.now())
	if ttl < b.minTTL {
		ttl = b.minTTL
	}
	return badger.NewEntry(sessionKey(s.ID), data).WithTTL(ttl), nil
}

// Create stores a new session.
func (b *BadgerStore) Create(_ context.Context, s *Session) error {
	e, err := b.entry(s)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.SetEntry(e); err != nil {
			return fmt.Errorf("set session: %w", err)
		}
		return nil
	})
}

func readSession(txn *badger.Txn, id string) (*Session, error) {
	item, err := txn.Get(sessionKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var s Session
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &s)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

// Get retrieves a session by id.
func (b *BadgerStore) Get(_ context.Context, id string) (*Session, error) {
	var s *Session
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		s, err = readSession(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.IsExpired(b.now()) {
		return nil, ErrExpired
	}
	return s, nil
}

// Update applies fn inside one read-write transaction. When a concurrent
// writer wins the commit, the transaction is retried with fn applied to the
// newer state; ErrConflict is returned once maxUpdateAttempts is reached.
func (b *BadgerStore) Update(ctx context.Context, id string, fn Mutator) (*Session, error) {
	for attempt := 1; ; attempt++ {
		out, err := b.update(id, fn)
		if !errors.Is(err, badger.ErrConflict) {
			return out, err
		}
		// Another transition committed first; rerun fn on the fresh state.
		if attempt == maxUpdateAttempts {
			return nil, fmt.Errorf("%w: %s after %d attempts", ErrConflict, id, attempt)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

func (b *BadgerStore) update(id string, fn Mutator) (*Session, error) {
	var out *Session
	err := b.db.Update(func(txn *badger.Txn) error {
		s, err := readSession(txn, id)
		if err != nil {
			return err
		}
		if s.IsExpired(b.now()) {
			return ErrExpired
		}
		if err := fn(s); err != nil {
			return err
		}
		e, err := b.entry(s)
		if err != nil {
			return err
		}
		if err := txn.SetEntry(e); err != nil {
			return fmt.Errorf("set session: %w", err)
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (b *BadgerStore) Delete(_ context.Context, id string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(sessionKey(id)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete session: %w", err)
		}
		return nil
	})
}

// CleanupExpired removes all expired sessions.
func (b *BadgerStore) CleanupExpired(ctx context.Context) (int, error) {
	var expired [][]byte
	now := b.now()

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var s Session
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &s)
			}); err != nil {
				// Unreadable entries are garbage; remove them too.
				expired = append(expired, item.KeyCopy(nil))
				continue
			}
			if s.IsExpired(now) {
				expired = append(expired, item.KeyCopy(nil))
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan sessions: %w", err)
	}

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, key := range expired {
		if err := wb.Delete(key); err != nil {
			return 0, fmt.Errorf("delete expired session: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush expired sessions: %w", err)
	}
	return len(expired), nil
}

// Count returns the number of stored sessions.
func (b *BadgerStore) Count(_ context.Context) (int, error) {
	count := 0
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(sessionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

// Close closes the database if the store opened it.
func (b *BadgerStore) Close() error {
	if !b.ownsDB {
		return nil
	}
	return b.db.Close()
}
