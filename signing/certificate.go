package signing

import (
	"fmt"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/bcs"
	"fastset.xyz/setcore/errs"
	"fastset.xyz/setcore/types"
)

// CertOption configures VerifyCertificate.
type CertOption func(*certOptions)

type certOptions struct {
	committee map[address.PublicKeyBytes]struct{}
}

// WithCommittee restricts accepted attestations to the given validators.
func WithCommittee(validators ...address.ValidatorName) CertOption {
	return func(o *certOptions) {
		o.committee = make(map[address.PublicKeyBytes]struct{}, len(validators))
		for _, v := range validators {
			o.committee[v] = struct{}{}
		}
	}
}

// VerifyValidatorSignature checks one validator's attestation over tx.
func VerifyValidatorSignature(tx types.Transaction, validator address.ValidatorName, sig types.Signature) error {
	msg, err := bcs.SigningBytes(tx)
	if err != nil {
		return err
	}
	if !verifyMessage(msg, sig, validator) {
		return errs.New(errs.KindInvalidSignature, "SET-CERT-003", "validator "+validator.String()+" signature does not verify")
	}
	return nil
}

// VerifyValidated checks the attestation carried by vt.
func VerifyValidated(vt types.ValidatedTransaction) error {
	return VerifyValidatorSignature(vt.Value.Transaction, vt.Validator, vt.Signature)
}

// Attest signs env's transaction as validator k.
func Attest(env types.TransactionEnvelope, k KeyPair) (types.ValidatedTransaction, error) {
	sig, err := Sign(env.Transaction, k)
	if err != nil {
		return types.ValidatedTransaction{}, err
	}
	return types.ValidatedTransaction{Value: env, Validator: k.Address(), Signature: sig}, nil
}

// VerifyCertificate checks that cert carries at least quorum distinct valid
// validator signatures over its enclosed transaction. The quorum is the
// network's current setting and is not stored in the certificate. The
// envelope's own authorization is not checked here; see VerifyEnvelope.
func VerifyCertificate(cert types.TransactionCertificate, quorum types.Quorum, opts ...CertOption) error {
	var o certOptions
	for _, opt := range opts {
		opt(&o)
	}
	if quorum == 0 {
		return errs.New(errs.KindInvalidConfig, "SET-CERT-005", "certificate quorum must be at least 1")
	}

	seen := make(map[address.PublicKeyBytes]struct{}, len(cert.Signatures))
	for _, entry := range cert.Signatures {
		if _, dup := seen[entry.Signer]; dup {
			return errs.New(errs.KindDuplicateSigner, "SET-CERT-001", "validator "+entry.Signer.String()+" signed twice")
		}
		seen[entry.Signer] = struct{}{}
		if o.committee != nil {
			if _, ok := o.committee[entry.Signer]; !ok {
				return errs.New(errs.KindInvalidSignature, "SET-CERT-002", "validator "+entry.Signer.String()+" is not in the committee")
			}
		}
	}

	msg, err := bcs.SigningBytes(cert.Envelope.Transaction)
	if err != nil {
		return err
	}
	if i := firstInvalid(msg, cert.Signatures); i >= 0 {
		return errs.New(errs.KindInvalidSignature, "SET-CERT-003",
			fmt.Sprintf("validator %s signature does not verify", cert.Signatures[i].Signer))
	}
	if uint64(len(cert.Signatures)) < uint64(quorum) {
		return errs.New(errs.KindQuorumNotMet, "SET-CERT-004",
			fmt.Sprintf("certificate has %d of %d required validator signatures", len(cert.Signatures), quorum))
	}
	return nil
}

// Certify assembles a certificate from attestations of env. Attestations for
// other envelopes are rejected.
func Certify(env types.TransactionEnvelope, attestations ...types.ValidatedTransaction) (types.TransactionCertificate, error) {
	want, err := types.Encode(env)
	if err != nil {
		return types.TransactionCertificate{}, err
	}
	cert := types.TransactionCertificate{Envelope: env}
	for _, vt := range attestations {
		got, err := types.Encode(vt.Value)
		if err != nil {
			return types.TransactionCertificate{}, err
		}
		if string(got) != string(want) {
			return types.TransactionCertificate{}, errs.New(errs.KindInvalidSignature, "SET-CERT-006",
				"attestation by "+vt.Validator.String()+" is for a different envelope")
		}
		cert.Signatures = append(cert.Signatures, vt.Attestation())
	}
	return cert, nil
}
