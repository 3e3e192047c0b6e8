package types

import (
	"encoding/json"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/bcs"
)

// TransactionEnvelope is a transaction together with its sender's authorization.
type TransactionEnvelope struct {
	Transaction Transaction         `json:"transaction"`
	Signature   SignatureOrMultiSig `json:"signature"`
}

func (TransactionEnvelope) TypeName() string { return "TransactionEnvelope" }

func (v TransactionEnvelope) MarshalBCS(e *bcs.Encoder) {
	v.Transaction.MarshalBCS(e)
	v.Signature.MarshalBCS(e)
}

func (v *TransactionEnvelope) UnmarshalBCS(d *bcs.Decoder) {
	v.Transaction.UnmarshalBCS(d)
	v.Signature.UnmarshalBCS(d)
}

// ValidatedTransaction is one validator's attestation that an envelope is valid.
// Signature is over the enclosed transaction.
type ValidatedTransaction struct {
	Value     TransactionEnvelope   `json:"value"`
	Validator address.ValidatorName `json:"validator"`
	Signature Signature             `json:"signature"`
}

func (ValidatedTransaction) TypeName() string { return "ValidatedTransaction" }

func (v ValidatedTransaction) MarshalBCS(e *bcs.Encoder) {
	v.Value.MarshalBCS(e)
	v.Validator.MarshalBCS(e)
	v.Signature.MarshalBCS(e)
}

func (v *ValidatedTransaction) UnmarshalBCS(d *bcs.Decoder) {
	v.Value.UnmarshalBCS(d)
	v.Validator.UnmarshalBCS(d)
	v.Signature.UnmarshalBCS(d)
}

// Attestation returns the validator's signature as a NamedSignature.
func (v ValidatedTransaction) Attestation() NamedSignature {
	return NamedSignature{Signer: v.Validator, Signature: v.Signature}
}

// TransactionCertificate is an envelope plus validator attestations over its
// transaction. Signatures keep the order in which they were aggregated.
type TransactionCertificate struct {
	Envelope   TransactionEnvelope `json:"envelope"`
	Signatures []NamedSignature    `json:"signatures"`
}

func (TransactionCertificate) TypeName() string { return "TransactionCertificate" }

func (c TransactionCertificate) MarshalBCS(e *bcs.Encoder) {
	c.Envelope.MarshalBCS(e)
	encodeNamedSignatures(e, c.Signatures)
}

func (c *TransactionCertificate) UnmarshalBCS(d *bcs.Decoder) {
	c.Envelope.UnmarshalBCS(d)
	c.Signatures = decodeNamedSignatures(d)
}

func (c TransactionCertificate) MarshalJSON() ([]byte, error) {
	type plain TransactionCertificate
	c.Signatures = nonNil(c.Signatures)
	return json.Marshal(plain(c))
}

// Transaction returns the certified transaction.
func (c TransactionCertificate) Transaction() Transaction {
	return c.Envelope.Transaction
}
