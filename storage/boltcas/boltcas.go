// Package boltcas stores archived objects in a single bolt database file.
package boltcas

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/ipfs/go-cid"

	"fastset.xyz/setcore/cidutil"
	"fastset.xyz/setcore/storage"
)

// ObjectsBucket holds CID bytes -> object bytes.
var ObjectsBucket = []byte("objects")

// CAS is a bolt-backed content-addressable store.
type CAS struct {
	db    *bolt.DB
	owned bool
}

var _ storage.CAS = (*CAS)(nil)

// Open opens (or creates) the database at path.
func Open(path string) (*CAS, error) {
	if path == "" {
		return nil, errors.New("boltcas: database path is required")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltcas: open %s: %w", path, err)
	}
	c, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	c.owned = true
	return c, nil
}

// New uses an already open database. Close will not close db.
func New(db *bolt.DB) (*CAS, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(ObjectsBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("boltcas: create bucket: %w", err)
	}
	return &CAS{db: db}, nil
}

// DB returns the underlying database so related indexes can share the file.
func (c *CAS) DB() *bolt.DB { return c.db }

func (c *CAS) Close() error {
	if !c.owned {
		return nil
	}
	return c.db.Close()
}

func (c *CAS) Put(ctx context.Context, data []byte) (cid.Cid, error) {
	if err := ctx.Err(); err != nil {
		return cid.Undef, err
	}
	id, err := cidutil.Sum(data)
	if err != nil {
		return cid.Undef, err
	}
	if !id.Defined() {
		return cid.Undef, storage.ErrInvalidCID
	}
	key := id.Bytes()
	err = c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(ObjectsBucket)
		if existing, ok := lookup(b, key); ok {
			if !bytes.Equal(existing, data) {
				return storage.ErrImmutable
			}
			return nil
		}
		return b.Put(key, data)
	})
	if err != nil {
		return cid.Undef, err
	}
	return id, nil
}

func (c *CAS) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !id.Defined() {
		return nil, storage.ErrInvalidCID
	}
	var out []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		v, ok := lookup(tx.Bucket(ObjectsBucket), id.Bytes())
		if !ok {
			return storage.ErrNotFound
		}
		// Values are only valid for the life of the transaction.
		out = append([]byte{}, v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !cidutil.Matches(id, out) {
		return nil, storage.ErrCIDMismatch
	}
	return out, nil
}

func (c *CAS) Has(ctx context.Context, id cid.Cid) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !id.Defined() {
		return false, nil
	}
	var found bool
	err := c.db.View(func(tx *bolt.Tx) error {
		_, found = lookup(tx.Bucket(ObjectsBucket), id.Bytes())
		return nil
	})
	return found, err
}

// lookup distinguishes an absent key from a present key with an empty value.
func lookup(b *bolt.Bucket, key []byte) ([]byte, bool) {
	k, v := b.Cursor().Seek(key)
	if k == nil || !bytes.Equal(k, key) {
		return nil, false
	}
	return v, true
}
