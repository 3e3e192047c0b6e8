package archive

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/errs"
	"fastset.xyz/setcore/numeric"
	"fastset.xyz/setcore/signing"
	"fastset.xyz/setcore/storage/boltcas"
	"fastset.xyz/setcore/types"
)

type fixture struct {
	sender     signing.KeyPair
	recipient  signing.KeyPair
	validators []signing.KeyPair
	archive    *Archive
	cas        *boltcas.CAS
	metrics    *Metrics
}

func key(t *testing.T, b byte) signing.KeyPair {
	t.Helper()
	k, err := signing.KeyPairFromSeed(bytes.Repeat([]byte{b}, signing.SeedSize))
	require.NoError(t, err)
	return k
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	f := &fixture{sender: key(t, 1), recipient: key(t, 2)}
	for i := byte(0); i < 4; i++ {
		f.validators = append(f.validators, key(t, 0x10+i))
	}

	cas, err := boltcas.Open(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cas.Close() })
	idx, err := NewIndex(cas.DB())
	require.NoError(t, err)

	if cfg.Quorum == 0 {
		cfg.Quorum = 3
	}
	if cfg.Committee == nil && !cfg.AllowAnyValidator {
		for _, v := range f.validators {
			cfg.Committee = append(cfg.Committee, v.Address())
		}
	}
	f.cas = cas
	f.metrics = NewMetrics(prometheus.NewRegistry())
	f.archive, err = New(cas, idx, cfg, WithMetrics(f.metrics))
	require.NoError(t, err)
	return f
}

func (f *fixture) tx(nonce types.Nonce, amount string, archival bool) types.Transaction {
	return types.Transaction{
		Sender:         f.sender.Address(),
		Recipient:      f.recipient.Address(),
		Nonce:          nonce,
		TimestampNanos: numeric.U128From64(1_700_000_000_000_000_000),
		Claim: types.TransferClaim(types.TokenTransfer{
			TokenID: types.NativeTokenID(),
			Amount:  numeric.MustParseAmount(amount),
		}),
		Archival: archival,
	}
}

func (f *fixture) certify(t *testing.T, tx types.Transaction, signers ...signing.KeyPair) types.TransactionCertificate {
	t.Helper()
	env, err := signing.SignTransaction(tx, f.sender)
	require.NoError(t, err)
	var atts []types.ValidatedTransaction
	for _, v := range signers {
		vt, err := signing.Attest(env, v)
		require.NoError(t, err)
		atts = append(atts, vt)
	}
	cert, err := signing.Certify(env, atts...)
	require.NoError(t, err)
	return cert
}

func TestPutGetLookup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	cert := f.certify(t, f.tx(7, "ffff", true), f.validators[:3]...)

	id, err := f.archive.Put(ctx, cert)
	require.NoError(t, err)

	got, err := f.archive.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, cert, got)

	found, err := f.archive.Lookup(ctx, f.sender.Address(), 7)
	require.NoError(t, err)
	assert.Equal(t, id, found)

	settled, err := f.archive.IsSettled(ctx, f.sender.Address(), 7)
	require.NoError(t, err)
	assert.True(t, settled)

	settled, err = f.archive.IsSettled(ctx, f.sender.Address(), 8)
	require.NoError(t, err)
	assert.False(t, settled)

	_, err = f.archive.Lookup(ctx, f.recipient.Address(), 7)
	assert.ErrorIs(t, err, ErrNotSettled)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.puts.WithLabelValues(OutcomeStored)))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.lookups.WithLabelValues("miss")))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.lookups.WithLabelValues("hit")))
}

func TestPutRejectsUnderQuorum(t *testing.T) {
	f := newFixture(t, Config{})
	cert := f.certify(t, f.tx(1, "1", true), f.validators[:2]...)

	_, err := f.archive.Put(context.Background(), cert)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindQuorumNotMet))

	settled, err := f.archive.IsSettled(context.Background(), f.sender.Address(), 1)
	require.NoError(t, err)
	assert.False(t, settled)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.puts.WithLabelValues(OutcomeRejected)))
}

func TestPutRejectsForgedEnvelope(t *testing.T) {
	f := newFixture(t, Config{})
	tx := f.tx(1, "1", true)

	// Validators attest an envelope signed by someone other than the sender.
	env, err := signing.SignTransaction(tx, f.recipient)
	require.NoError(t, err)
	var atts []types.ValidatedTransaction
	for _, v := range f.validators[:3] {
		vt, err := signing.Attest(env, v)
		require.NoError(t, err)
		atts = append(atts, vt)
	}
	cert, err := signing.Certify(env, atts...)
	require.NoError(t, err)

	_, err = f.archive.Put(context.Background(), cert)
	assert.True(t, errs.IsKind(err, errs.KindInvalidSignature))
}

func TestPutRejectsNonArchival(t *testing.T) {
	f := newFixture(t, Config{})
	cert := f.certify(t, f.tx(1, "1", false), f.validators[:3]...)
	_, err := f.archive.Put(context.Background(), cert)
	assert.ErrorIs(t, err, ErrNotArchival)

	g := newFixture(t, Config{AllowNonArchival: true})
	cert = g.certify(t, g.tx(1, "1", false), g.validators[:3]...)
	_, err = g.archive.Put(context.Background(), cert)
	assert.NoError(t, err)
}

func TestPutEnforcesCommittee(t *testing.T) {
	f := newFixture(t, Config{})
	committee := []address.ValidatorName{f.validators[0].Address(), f.validators[1].Address(), f.validators[2].Address()}
	g := newFixture(t, Config{Committee: committee})

	cert := g.certify(t, g.tx(1, "1", true), f.validators[1:]...)
	_, err := g.archive.Put(context.Background(), cert)
	require.Error(t, err)
	assert.Equal(t, "SET-CERT-002", errs.RuleID(err))

	cert = g.certify(t, g.tx(1, "1", true), f.validators[:3]...)
	_, err = g.archive.Put(context.Background(), cert)
	assert.NoError(t, err)
}

func TestPutDuplicateAndConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	tx := f.tx(5, "10", true)

	first, err := f.archive.Put(ctx, f.certify(t, tx, f.validators[:3]...))
	require.NoError(t, err)

	// Same transaction, different signature set: the first certificate stays.
	again, err := f.archive.Put(ctx, f.certify(t, tx, f.validators[1:]...))
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.puts.WithLabelValues(OutcomeDuplicate)))

	// A different transaction at the same nonce is a conflict.
	_, err = f.archive.Put(ctx, f.certify(t, f.tx(5, "11", true), f.validators[:3]...))
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSettlementsOrderedByNonce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})
	for _, n := range []types.Nonce{300, 2, 256} {
		_, err := f.archive.Put(ctx, f.certify(t, f.tx(n, "1", true), f.validators[:3]...))
		require.NoError(t, err)
	}
	entries, err := f.archive.Settlements(f.sender.Address())
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, []types.Nonce{2, 256, 300}, []types.Nonce{entries[0].Nonce, entries[1].Nonce, entries[2].Nonce})

	none, err := f.archive.Settlements(f.recipient.Address())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := newFixture(t, Config{})
	for _, n := range []types.Nonce{1, 2} {
		_, err := src.archive.Put(ctx, src.certify(t, src.tx(n, "1", true), src.validators[:3]...))
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	n, err := src.archive.Export(ctx, &buf, src.sender.Address())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	dst := newFixture(t, Config{})
	ids, err := dst.archive.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	for _, n := range []types.Nonce{1, 2} {
		settled, err := dst.archive.IsSettled(ctx, src.sender.Address(), n)
		require.NoError(t, err)
		assert.True(t, settled)
	}

	// A stricter archive refuses the same bundle.
	strict := newFixture(t, Config{Quorum: 4})
	_, err = strict.archive.Import(ctx, bytes.NewReader(buf.Bytes()))
	assert.True(t, errs.IsKind(err, errs.KindQuorumNotMet))
}

func TestNewValidatesConfig(t *testing.T) {
	f := newFixture(t, Config{})
	idx, err := NewIndex(f.cas.DB())
	require.NoError(t, err)

	_, err = New(f.cas, idx, Config{})
	assert.True(t, errs.IsKind(err, errs.KindInvalidConfig))
	_, err = New(f.cas, idx, Config{Quorum: 1})
	assert.True(t, errs.IsKind(err, errs.KindInvalidConfig), "committee required")
	assert.Equal(t, "SET-ARC-002", errs.RuleID(err))
	_, err = New(f.cas, idx, Config{Quorum: 1, AllowAnyValidator: true})
	assert.NoError(t, err)
	_, err = New(nil, idx, Config{Quorum: 1, AllowAnyValidator: true})
	assert.Error(t, err)
}

func TestPutRejectsSelfCertifiedTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{Quorum: 1})
	self := f.certify(t, f.tx(3, "1", true), f.sender)

	_, err := f.archive.Put(ctx, self)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindInvalidSignature))
	settled, err := f.archive.IsSettled(ctx, f.sender.Address(), 3)
	require.NoError(t, err)
	assert.False(t, settled)

	open := newFixture(t, Config{Quorum: 1, AllowAnyValidator: true})
	_, err = open.archive.Put(ctx, open.certify(t, open.tx(3, "1", true), open.sender))
	assert.NoError(t, err, "any key counts only when explicitly allowed")
}
