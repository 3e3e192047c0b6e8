package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/boltdb/bolt"
	"github.com/ipfs/go-cid"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/types"
)

// SettlementBucket maps sender (32 bytes) || nonce (8 bytes, big-endian) to CID bytes.
var SettlementBucket = []byte("settlements")

// Index records which certificate settled each (sender, nonce).
type Index struct {
	db    *bolt.DB
	owned bool
}

// Entry is one indexed settlement.
type Entry struct {
	Sender address.FastSetAddress
	Nonce  types.Nonce
	CID    cid.Cid
}

// OpenIndex opens (or creates) a standalone index database at path.
func OpenIndex(path string) (*Index, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("archive: open index %s: %w", path, err)
	}
	idx, err := NewIndex(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	idx.owned = true
	return idx, nil
}

// NewIndex keeps the index in an already open database, e.g. the one backing a
// bolt CAS. Close will not close db.
func NewIndex(db *bolt.DB) (*Index, error) {
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(SettlementBucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("archive: create index bucket: %w", err)
	}
	return &Index{db: db}, nil
}

func (x *Index) Close() error {
	if !x.owned {
		return nil
	}
	return x.db.Close()
}

func indexKey(sender address.FastSetAddress, nonce types.Nonce) []byte {
	k := make([]byte, address.Size+8)
	copy(k, sender[:])
	binary.BigEndian.PutUint64(k[address.Size:], uint64(nonce))
	return k
}

// record stores id for (sender, nonce) unless an entry exists. It returns the
// CID that is indexed after the call and whether it was newly written.
func (x *Index) record(sender address.FastSetAddress, nonce types.Nonce, id cid.Cid) (cid.Cid, bool, error) {
	var (
		current = id
		created bool
	)
	err := x.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(SettlementBucket)
		key := indexKey(sender, nonce)
		if v := b.Get(key); v != nil {
			existing, err := cid.Cast(v)
			if err != nil {
				return fmt.Errorf("archive: corrupt index entry: %w", err)
			}
			current = existing
			return nil
		}
		created = true
		return b.Put(key, id.Bytes())
	})
	if err != nil {
		return cid.Undef, false, err
	}
	return current, created, nil
}

// Get returns the CID indexed for (sender, nonce) and whether one exists.
func (x *Index) Get(sender address.FastSetAddress, nonce types.Nonce) (cid.Cid, bool, error) {
	var (
		id    cid.Cid
		found bool
	)
	err := x.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(SettlementBucket).Get(indexKey(sender, nonce))
		if v == nil {
			return nil
		}
		c, err := cid.Cast(v)
		if err != nil {
			return fmt.Errorf("archive: corrupt index entry: %w", err)
		}
		id, found = c, true
		return nil
	})
	return id, found, err
}

// Entries returns every settlement of sender in ascending nonce order.
func (x *Index) Entries(sender address.FastSetAddress) ([]Entry, error) {
	var out []Entry
	err := x.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(SettlementBucket).Cursor()
		prefix := sender[:]
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if len(k) != address.Size+8 {
				return fmt.Errorf("archive: corrupt index key of length %d", len(k))
			}
			id, err := cid.Cast(v)
			if err != nil {
				return fmt.Errorf("archive: corrupt index entry: %w", err)
			}
			out = append(out, Entry{
				Sender: sender,
				Nonce:  types.Nonce(binary.BigEndian.Uint64(k[address.Size:])),
				CID:    id,
			})
		}
		return nil
	})
	return out, err
}
