package storage_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"fastset.xyz/setcore/cidutil"
	"fastset.xyz/setcore/storage"
)

type memCAS struct {
	mu      sync.Mutex
	objects map[cid.Cid][]byte
	fail    error
	lie     bool
}

func newMem() *memCAS { return &memCAS{objects: map[cid.Cid][]byte{}} }

func (m *memCAS) Put(_ context.Context, b []byte) (cid.Cid, error) {
	if m.fail != nil {
		return cid.Undef, m.fail
	}
	id, err := cidutil.Sum(b)
	if err != nil {
		return cid.Undef, err
	}
	m.mu.Lock()
	m.objects[id] = append([]byte(nil), b...)
	m.mu.Unlock()
	if m.lie {
		return cidutil.Sum(append(b, 0))
	}
	return id, nil
}

func (m *memCAS) Get(_ context.Context, id cid.Cid) ([]byte, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return b, nil
}

func (m *memCAS) Has(_ context.Context, id cid.Cid) (bool, error) {
	if m.fail != nil {
		return false, m.fail
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[id]
	return ok, nil
}

func TestMultiCAS_WritesFirstReadsInOrder(t *testing.T) {
	ctx := context.Background()
	a, b := newMem(), newMem()
	m := storage.MultiCAS{Adapters: []storage.CAS{a, b}}

	id, err := m.Put(ctx, []byte("x"))
	require.NoError(t, err)
	require.Len(t, a.objects, 1)
	require.Empty(t, b.objects)

	idB, err := b.Put(ctx, []byte("only in b"))
	require.NoError(t, err)
	got, err := m.Get(ctx, idB)
	require.NoError(t, err)
	require.Equal(t, "only in b", string(got))

	ok, err := m.Has(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	missing, err := cidutil.Sum([]byte("missing"))
	require.NoError(t, err)
	_, err = m.Get(ctx, missing)
	require.True(t, storage.IsNotFound(err))
}

func TestMultiCAS_ErrorsStopFallback(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	bad, good := newMem(), newMem()
	bad.fail = boom
	m := storage.MultiCAS{Adapters: []storage.CAS{bad, good}}

	id, err := good.Put(ctx, []byte("x"))
	require.NoError(t, err)

	_, err = m.Get(ctx, id)
	require.ErrorIs(t, err, boom)

	// Has still finds the object behind a failing adapter.
	ok, err := m.Has(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = storage.MultiCAS{}.Put(ctx, []byte("x"))
	require.ErrorIs(t, err, storage.ErrNoBackends)
}

func TestReplicatingCAS_PutAll(t *testing.T) {
	ctx := context.Background()
	a, b := newMem(), newMem()
	r := storage.ReplicatingCAS{Backends: []storage.NamedCAS{{Name: "a", CAS: a}, {Name: "b", CAS: b}}}

	id, per, err := r.PutAll(ctx, []byte("both"))
	require.NoError(t, err)
	require.Equal(t, map[string]cid.Cid{"a": id, "b": id}, per)
	require.Len(t, a.objects, 1)
	require.Len(t, b.objects, 1)
}

func TestReplicatingCAS_Mismatch(t *testing.T) {
	ctx := context.Background()
	a, b := newMem(), newMem()
	b.lie = true
	r := storage.ReplicatingCAS{Backends: []storage.NamedCAS{{Name: "a", CAS: a}, {Name: "b", CAS: b}}}

	_, per, err := r.PutAll(ctx, []byte("both"))
	require.ErrorIs(t, err, storage.ErrCIDMismatch)
	require.Contains(t, per, "b")

	_, err = storage.ReplicatingCAS{}.Put(ctx, []byte("x"))
	require.ErrorIs(t, err, storage.ErrNoBackends)
}

func TestReplicatingCAS_WrapsBackendError(t *testing.T) {
	ctx := context.Background()
	a := newMem()
	a.fail = storage.ErrImmutable
	r := storage.ReplicatingCAS{Backends: []storage.NamedCAS{{Name: "a", CAS: a}}}

	_, err := r.Put(ctx, []byte("x"))
	require.ErrorIs(t, err, storage.ErrImmutable)
	require.Contains(t, err.Error(), `"a"`)
}
