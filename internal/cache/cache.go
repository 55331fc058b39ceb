// Package cache persists parsed package index data across resolver runs,
// the same way golang-dep's source cache persists parsed manifests and
// package trees: a BoltDB file keyed by a content digest, with timestamped
// entries so a cache hit can be rejected once it's older than an epoch the
// caller supplies (e.g. "older than the index file's own mtime").
package cache

import (
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

const indexBucket = "indexes"

// Cache is a persistent, on-disk store of raw parsed-index bytes, one
// record per (source name, content digest) pair.
type Cache struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the BoltDB file at path.
func Open(path string) (*Cache, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating cache directory %s", dir)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening cache database %s", path)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database file.
func (c *Cache) Close() error {
	return errors.Wrap(c.db.Close(), "closing cache database")
}

// Put stores data under (sourceName, digest), stamped with the current
// time so Get can reject it once it falls outside a caller-supplied epoch.
func (c *Cache) Put(sourceName, digest string, data []byte) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(indexBucket))
		if err != nil {
			return errors.Wrap(err, "creating index bucket")
		}
		sb, err := b.CreateBucketIfNotExists([]byte(sourceName))
		if err != nil {
			return errors.Wrapf(err, "creating bucket for source %s", sourceName)
		}
		rec := append(encodeTimestamp(time.Now()), data...)
		return sb.Put([]byte(digest), rec)
	})
}

// Get returns the cached data for (sourceName, digest) if present and not
// older than notBefore. ok is false on a miss or a too-stale hit.
func (c *Cache) Get(sourceName, digest string, notBefore time.Time) (data []byte, ok bool, err error) {
	err = c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(indexBucket))
		if b == nil {
			return nil
		}
		sb := b.Bucket([]byte(sourceName))
		if sb == nil {
			return nil
		}
		rec := sb.Get([]byte(digest))
		if rec == nil {
			return nil
		}
		stamp, payload := decodeTimestamp(rec)
		if stamp.Before(notBefore) {
			return nil
		}
		ok = true
		data = append([]byte(nil), payload...)
		return nil
	})
	return data, ok, errors.Wrap(err, "reading cache")
}

// Invalidate drops every cached record for sourceName, used when a source's
// listing format or location changes out from under an existing cache file.
func (c *Cache) Invalidate(sourceName string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(indexBucket))
		if b == nil {
			return nil
		}
		return errors.Wrap(b.DeleteBucket([]byte(sourceName)), "deleting source bucket")
	})
}

func encodeTimestamp(t time.Time) []byte {
	buf, err := t.MarshalBinary()
	if err != nil {
		// time.Time.MarshalBinary never fails for a time produced by Now().
		panic("cache: " + err.Error())
	}
	out := make([]byte, 1+len(buf))
	out[0] = byte(len(buf))
	copy(out[1:], buf)
	return out
}

func decodeTimestamp(rec []byte) (time.Time, []byte) {
	n := int(rec[0])
	var t time.Time
	_ = t.UnmarshalBinary(rec[1 : 1+n])
	return t, rec[1+n:]
}
