package cidutil

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	"fastset.xyz/setcore/numeric"
)

func TestSumDeterministic(t *testing.T) {
	a, err := Sum([]byte("hello"))
	require.NoError(t, err)
	b, err := Sum([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, uint64(cid.Raw), a.Prefix().Codec)
	require.Equal(t, uint64(1), a.Prefix().Version)

	c, err := Sum([]byte("hellp"))
	require.NoError(t, err)
	require.NotEqual(t, a, c)
	require.Equal(t, a.String(), String([]byte("hello")))
}

func TestMatches(t *testing.T) {
	id, err := Sum([]byte("payload"))
	require.NoError(t, err)
	require.True(t, Matches(id, []byte("payload")))
	require.False(t, Matches(id, []byte("payloaD")))
	require.False(t, Matches(cid.Undef, []byte("payload")))
}

func TestCanonical(t *testing.T) {
	amt := numeric.NewAmount(0xffff)
	b, id, err := Canonical(amt)
	require.NoError(t, err)
	require.Len(t, b, 32)
	require.True(t, Matches(id, b))
}

func TestParse(t *testing.T) {
	id, err := Sum([]byte("x"))
	require.NoError(t, err)

	got, err := Parse(id.String())
	require.NoError(t, err)
	require.Equal(t, id, got)

	_, err = Parse("not-a-cid")
	require.Error(t, err)

	dagpb := cid.NewCidV1(cid.DagProtobuf, id.Hash())
	_, err = Parse(dagpb.String())
	require.Error(t, err)
}
