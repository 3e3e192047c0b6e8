package boltcas

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/boltdb/bolt"
	"github.com/stretchr/testify/require"

	"fastset.xyz/setcore/storage"
	"fastset.xyz/setcore/storage/testkit"
)

func openTemp(t *testing.T) *CAS {
	t.Helper()
	cas, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cas.Close() })
	return cas
}

func TestBolt_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		return openTemp(t)
	})
}

func TestBolt_DetectsCorruption(t *testing.T) {
	ctx := context.Background()
	cas := openTemp(t)

	orig := []byte("certificate")
	id, err := cas.Put(ctx, orig)
	require.NoError(t, err)

	err = cas.DB().Update(func(tx *bolt.Tx) error {
		return tx.Bucket(ObjectsBucket).Put(id.Bytes(), []byte("tampered"))
	})
	require.NoError(t, err)

	_, err = cas.Get(ctx, id)
	require.ErrorIs(t, err, storage.ErrCIDMismatch)

	_, err = cas.Put(ctx, orig)
	require.ErrorIs(t, err, storage.ErrImmutable)
}

func TestBolt_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "archive.db")

	cas, err := Open(path)
	require.NoError(t, err)
	id, err := cas.Put(ctx, []byte("durable"))
	require.NoError(t, err)
	require.NoError(t, cas.Close())

	cas, err = Open(path)
	require.NoError(t, err)
	defer cas.Close()
	got, err := cas.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "durable", string(got))
}

func TestBolt_SharedDatabaseNotClosed(t *testing.T) {
	db, err := bolt.Open(filepath.Join(t.TempDir(), "shared.db"), 0o600, nil)
	require.NoError(t, err)
	defer db.Close()

	cas, err := New(db)
	require.NoError(t, err)
	require.NoError(t, cas.Close())

	// The database is still usable after closing a borrowing CAS.
	_, err = cas.Put(context.Background(), []byte("still open"))
	require.NoError(t, err)
}
