package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastset.xyz/setcore/cidutil"
	"fastset.xyz/setcore/storage"
	"fastset.xyz/setcore/types"
)

func TestGuardedAcceptsOnlyVerifiedCertificates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	g := f.archive.Guarded()

	_, err := g.Put(ctx, []byte("not a certificate"))
	require.ErrorIs(t, err, storage.ErrRejected)

	weak := f.certify(t, f.tx(0, "a", true), f.validators[:2]...)
	weakBytes, err := types.Encode(weak)
	require.NoError(t, err)
	_, err = g.Put(ctx, weakBytes)
	require.ErrorIs(t, err, storage.ErrRejected)

	cert := f.certify(t, f.tx(0, "a", true), f.validators[:3]...)
	data, err := types.Encode(cert)
	require.NoError(t, err)
	id, err := g.Put(ctx, data)
	require.NoError(t, err)
	assert.True(t, cidutil.Matches(id, data))

	indexed, err := f.archive.Lookup(ctx, f.sender.Address(), 0)
	require.NoError(t, err)
	assert.Equal(t, id, indexed)

	got, err := g.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	ok, err := g.Has(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGuardedDuplicateKeepsFirstIndexed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	g := f.archive.Guarded()
	tx := f.tx(5, "ff", true)

	first, err := types.Encode(f.certify(t, tx, f.validators[:3]...))
	require.NoError(t, err)
	firstID, err := g.Put(ctx, first)
	require.NoError(t, err)

	second, err := types.Encode(f.certify(t, tx, f.validators...))
	require.NoError(t, err)
	secondID, err := g.Put(ctx, second)
	require.NoError(t, err)
	assert.NotEqual(t, firstID, secondID)
	assert.True(t, cidutil.Matches(secondID, second))

	indexed, err := f.archive.Lookup(ctx, f.sender.Address(), 5)
	require.NoError(t, err)
	assert.Equal(t, firstID, indexed)

	conflicting, err := types.Encode(f.certify(t, f.tx(5, "1", true), f.validators[:3]...))
	require.NoError(t, err)
	_, err = g.Put(ctx, conflicting)
	require.ErrorIs(t, err, storage.ErrRejected)
}
