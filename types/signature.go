package types

import (
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/sha3"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/bcs"
	"fastset.xyz/setcore/errs"
	"fastset.xyz/setcore/internal/jsonbytes"
)

const SignatureSize = 64

// Signature is a 64-byte Ed25519 signature.
type Signature [SignatureSize]byte

// SignatureFromSlice copies a 64-byte slice.
func SignatureFromSlice(b []byte) (Signature, error) {
	var s Signature
	if len(b) != SignatureSize {
		return s, errs.New(errs.KindParse, "SET-TYPE-003", "signature must be 64 bytes")
	}
	copy(s[:], b)
	return s, nil
}

func (s Signature) String() string { return hex.EncodeToString(s[:]) }

func (s Signature) MarshalBCS(e *bcs.Encoder) { e.Fixed(s[:]) }

func (s *Signature) UnmarshalBCS(d *bcs.Decoder) { d.FixedInto(s[:]) }

func (s Signature) MarshalJSON() ([]byte, error) { return jsonbytes.Marshal(s[:]) }

func (s *Signature) UnmarshalJSON(data []byte) error {
	return fixedJSON(data, s[:], "signature")
}

// NamedSignature pairs a signer's address with its signature. It is used both
// for multisig members and for validator attestations.
type NamedSignature struct {
	Signer    address.PublicKeyBytes
	Signature Signature
}

func (n NamedSignature) MarshalBCS(e *bcs.Encoder) {
	n.Signer.MarshalBCS(e)
	n.Signature.MarshalBCS(e)
}

func (n *NamedSignature) UnmarshalBCS(d *bcs.Decoder) {
	n.Signer.UnmarshalBCS(d)
	n.Signature.UnmarshalBCS(d)
}

func (n NamedSignature) MarshalJSON() ([]byte, error) {
	return marshalPair(n.Signer, n.Signature)
}

func (n *NamedSignature) UnmarshalJSON(data []byte) error {
	return unmarshalPair(data, &n.Signer, &n.Signature)
}

func encodeNamedSignatures(e *bcs.Encoder, sigs []NamedSignature) {
	bcs.Seq(e, sigs, func(e *bcs.Encoder, n NamedSignature) { n.MarshalBCS(e) })
}

func decodeNamedSignatures(d *bcs.Decoder) []NamedSignature {
	return bcs.DecodeSeq(d, func(d *bcs.Decoder) NamedSignature {
		var n NamedSignature
		n.UnmarshalBCS(d)
		return n
	})
}

// MultiSigConfig describes a threshold account. Nonce only disambiguates configs
// that share signers and quorum; it plays no part in verifying signatures.
type MultiSigConfig struct {
	AuthorizedSigners []address.PublicKeyBytes `json:"authorized_signers"`
	Quorum            Quorum                   `json:"quorum"`
	Nonce             Nonce                    `json:"nonce"`
}

func (MultiSigConfig) TypeName() string { return "MultiSigConfig" }

func (c MultiSigConfig) MarshalBCS(e *bcs.Encoder) {
	encodeAddresses(e, c.AuthorizedSigners)
	c.Quorum.MarshalBCS(e)
	c.Nonce.MarshalBCS(e)
}

func (c *MultiSigConfig) UnmarshalBCS(d *bcs.Decoder) {
	c.AuthorizedSigners = decodeAddresses(d)
	c.Quorum.UnmarshalBCS(d)
	c.Nonce.UnmarshalBCS(d)
}

func (c MultiSigConfig) MarshalJSON() ([]byte, error) {
	type plain MultiSigConfig
	c.AuthorizedSigners = nonNil(c.AuthorizedSigners)
	return json.Marshal(plain(c))
}

// ID identifies the threshold account described by c: SHA3-256 of its signing
// bytes. Configs differing only in Nonce have distinct IDs.
func (c MultiSigConfig) ID() (Digest, error) {
	return digestOf(c)
}

// MultiSig is a threshold authorization: a config and the members' signatures
// over the transaction.
type MultiSig struct {
	Config     MultiSigConfig   `json:"config"`
	Signatures []NamedSignature `json:"signatures"`
}

func (MultiSig) TypeName() string { return "MultiSig" }

func (m MultiSig) MarshalBCS(e *bcs.Encoder) {
	m.Config.MarshalBCS(e)
	encodeNamedSignatures(e, m.Signatures)
}

func (m *MultiSig) UnmarshalBCS(d *bcs.Decoder) {
	m.Config.UnmarshalBCS(d)
	m.Signatures = decodeNamedSignatures(d)
}

func (m MultiSig) MarshalJSON() ([]byte, error) {
	type plain MultiSig
	m.Signatures = nonNil(m.Signatures)
	return json.Marshal(plain(m))
}

// SignatureOrMultiSig authorizes a transaction with either a single signature by
// the sender or a threshold multisig. Construct it with SingleSignature or
// MultiSignature; the zero value is invalid and fails to encode.
type SignatureOrMultiSig struct {
	single *Signature
	multi  *MultiSig
}

const (
	variantSignature uint32 = 0
	variantMultiSig  uint32 = 1
)

func SingleSignature(sig Signature) SignatureOrMultiSig {
	return SignatureOrMultiSig{single: &sig}
}

func MultiSignature(ms MultiSig) SignatureOrMultiSig {
	return SignatureOrMultiSig{multi: &ms}
}

// Single returns the signature if s is the single-signature variant.
func (s SignatureOrMultiSig) Single() (Signature, bool) {
	if s.single == nil {
		return Signature{}, false
	}
	return *s.single, true
}

// Multi returns the multisig if s is the multisig variant.
func (s SignatureOrMultiSig) Multi() (MultiSig, bool) {
	if s.multi == nil {
		return MultiSig{}, false
	}
	return *s.multi, true
}

func (s SignatureOrMultiSig) IsZero() bool { return s.single == nil && s.multi == nil }

func (SignatureOrMultiSig) TypeName() string { return "SignatureOrMultiSig" }

func (s SignatureOrMultiSig) MarshalBCS(e *bcs.Encoder) {
	switch {
	case s.single != nil:
		e.Variant(variantSignature)
		s.single.MarshalBCS(e)
	case s.multi != nil:
		e.Variant(variantMultiSig)
		s.multi.MarshalBCS(e)
	default:
		e.Fail(errs.New(errs.KindInternal, "SET-TYPE-004", "empty SignatureOrMultiSig"))
	}
}

func (s *SignatureOrMultiSig) UnmarshalBCS(d *bcs.Decoder) {
	switch idx := d.Variant(); {
	case d.Err() != nil:
	case idx == variantSignature:
		var sig Signature
		sig.UnmarshalBCS(d)
		*s = SingleSignature(sig)
	case idx == variantMultiSig:
		var ms MultiSig
		ms.UnmarshalBCS(d)
		*s = MultiSignature(ms)
	default:
		d.UnknownVariant("SignatureOrMultiSig", idx)
	}
}

func (s SignatureOrMultiSig) MarshalJSON() ([]byte, error) {
	switch {
	case s.single != nil:
		return marshalTagged("Signature", s.single)
	case s.multi != nil:
		return marshalTagged("MultiSig", s.multi)
	default:
		return nil, errs.New(errs.KindInternal, "SET-TYPE-004", "empty SignatureOrMultiSig")
	}
}

func (s *SignatureOrMultiSig) UnmarshalJSON(data []byte) error {
	tag, payload, err := unmarshalTagged(data, "SignatureOrMultiSig")
	if err != nil {
		return err
	}
	switch tag {
	case "Signature":
		var sig Signature
		if err := json.Unmarshal(payload, &sig); err != nil {
			return err
		}
		*s = SingleSignature(sig)
	case "MultiSig":
		var ms MultiSig
		if err := json.Unmarshal(payload, &ms); err != nil {
			return err
		}
		*s = MultiSignature(ms)
	default:
		return unknownVariantJSON("SignatureOrMultiSig", tag)
	}
	return nil
}

func digestOf(v bcs.Signable) (Digest, error) {
	msg, err := bcs.SigningBytes(v)
	if err != nil {
		return Digest{}, err
	}
	return Digest(sha3.Sum256(msg)), nil
}
