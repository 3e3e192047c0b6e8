package signing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/errs"
	"fastset.xyz/setcore/types"
)

type committee struct {
	validators []KeyPair
	env        types.TransactionEnvelope
}

func newCommittee(t *testing.T, n int) committee {
	t.Helper()
	sender := seeded(t, 1)
	env, err := SignTransaction(transferTx(sender.Address(), seeded(t, 2).Address(), 3), sender)
	require.NoError(t, err)
	c := committee{env: env}
	for i := 0; i < n; i++ {
		c.validators = append(c.validators, seeded(t, byte(100+i)))
	}
	return c
}

func (c committee) names() []address.ValidatorName {
	out := make([]address.ValidatorName, 0, len(c.validators))
	for _, v := range c.validators {
		out = append(out, v.Address())
	}
	return out
}

func (c committee) certify(t *testing.T, idx ...int) types.TransactionCertificate {
	t.Helper()
	var atts []types.ValidatedTransaction
	for _, i := range idx {
		vt, err := Attest(c.env, c.validators[i])
		require.NoError(t, err)
		require.NoError(t, VerifyValidated(vt))
		atts = append(atts, vt)
	}
	cert, err := Certify(c.env, atts...)
	require.NoError(t, err)
	return cert
}

func TestVerifyCertificateQuorum(t *testing.T) {
	c := newCommittee(t, 4)
	cert := c.certify(t, 3, 0, 2)

	require.NoError(t, VerifyCertificate(cert, 3))
	require.NoError(t, VerifyCertificate(cert, 3, WithCommittee(c.names()...)))

	err := VerifyCertificate(cert, 4)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindQuorumNotMet))

	err = VerifyCertificate(cert, 0)
	assert.True(t, errs.IsKind(err, errs.KindInvalidConfig))
}

func TestVerifyCertificateRejectsDuplicatesAndStrangers(t *testing.T) {
	c := newCommittee(t, 3)
	cert := c.certify(t, 0, 1, 0)
	err := VerifyCertificate(cert, 2)
	assert.True(t, errs.IsKind(err, errs.KindDuplicateSigner))

	cert = c.certify(t, 0, 1, 2)
	err = VerifyCertificate(cert, 2, WithCommittee(c.names()[:2]...))
	assert.True(t, errs.IsKind(err, errs.KindInvalidSignature))
	assert.Equal(t, "SET-CERT-002", errs.RuleID(err))
}

func TestVerifyCertificateSignaturesCoverTransactionOnly(t *testing.T) {
	c := newCommittee(t, 2)
	cert := c.certify(t, 0, 1)

	// swapping the envelope signature leaves validator attestations valid
	cert.Envelope.Signature = types.SingleSignature(types.Signature{})
	require.NoError(t, VerifyCertificate(cert, 2))
	assert.Error(t, VerifyEnvelope(cert.Envelope))

	// changing the transaction invalidates them
	cert.Envelope.Transaction.Nonce++
	err := VerifyCertificate(cert, 2)
	assert.True(t, errs.IsKind(err, errs.KindInvalidSignature))
	assert.Equal(t, "SET-CERT-003", errs.RuleID(err))
}

func TestCertifyRejectsForeignAttestation(t *testing.T) {
	c := newCommittee(t, 2)
	other := newCommittee(t, 1)
	other.env.Transaction.Nonce = 99

	vt, err := Attest(other.env, c.validators[0])
	require.NoError(t, err)
	_, err = Certify(c.env, vt)
	assert.True(t, errs.IsKind(err, errs.KindInvalidSignature))

	err = VerifyValidatorSignature(c.env.Transaction, vt.Validator, vt.Signature)
	assert.True(t, errs.IsKind(err, errs.KindInvalidSignature))
}
