package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/featurette/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	loadsBucket      = "loads"
	expiryValueBytes = 8
)

// boltStore implements a Store backed by BoltDB. Keys are the bucket
// sequence in big-endian order, values are an expiry prefix followed by the
// JSON record.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	ttl             time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(loadsBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		ttl:             opts.TTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Append journals rec with the configured TTL.
func (b *boltStore) Append(rec domain.LoadRecord) error {
	if b == nil || b.db == nil {
		return nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal load record: %w", err)
	}
	value := make([]byte, expiryValueBytes+len(payload))
	binary.BigEndian.PutUint64(value, uint64(now.Add(b.ttl).Unix()))
	copy(value[expiryValueBytes:], payload)

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(loadsBucket))
		if bucket == nil {
			return fmt.Errorf("loads bucket missing")
		}
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)
		return bucket.Put(key, value)
	})
}

// Recent returns up to limit unexpired records, newest first. A limit of
// zero or less returns every unexpired record.
func (b *boltStore) Recent(limit int) ([]domain.LoadRecord, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	now := b.now()
	var out []domain.LoadRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(loadsBucket))
		if bucket == nil {
			return fmt.Errorf("loads bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.Last(); k != nil; k, v = cursor.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			expiry, payload, ok := decodeValue(v)
			if !ok || !expiry.After(now) {
				continue
			}
			var rec domain.LoadRecord
			if err := json.Unmarshal(payload, &rec); err != nil {
				return fmt.Errorf("decode load record: %w", err)
			}
			out = append(out, rec)
		}
		return nil
	})
	return out, err
}

// maybeCleanupExpired removes expired records on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(loadsBucket))
		if bucket == nil {
			return fmt.Errorf("loads bucket missing")
		}

		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, _, ok := decodeValue(v)
			if !ok || !expiry.After(now) {
				if err := cursor.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

// decodeValue splits a stored value into its expiry and JSON payload.
func decodeValue(value []byte) (time.Time, []byte, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, nil, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, nil, false
	}
	return time.Unix(unix, 0), value[expiryValueBytes:], true
}
