package signing

import (
	"github.com/cloudflare/circl/sign/ed25519"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/bcs"
	"fastset.xyz/setcore/errs"
	"fastset.xyz/setcore/types"
)

// Sign signs the signing bytes of v.
func Sign(v bcs.Signable, k KeyPair) (types.Signature, error) {
	if k.IsZero() {
		return types.Signature{}, errs.New(errs.KindInternal, "SET-SIG-002", "empty key pair")
	}
	msg, err := bcs.SigningBytes(v)
	if err != nil {
		return types.Signature{}, err
	}
	return signMessage(msg, k), nil
}

func signMessage(msg []byte, k KeyPair) types.Signature {
	var sig types.Signature
	copy(sig[:], ed25519.Sign(k.priv, msg))
	return sig
}

// Verify checks that sig is pub's signature over the signing bytes of v.
func Verify(v bcs.Signable, sig types.Signature, pub address.PublicKeyBytes) error {
	msg, err := bcs.SigningBytes(v)
	if err != nil {
		return err
	}
	if !verifyMessage(msg, sig, pub) {
		return errs.New(errs.KindInvalidSignature, "SET-SIG-001", "signature by "+pub.String()+" does not verify")
	}
	return nil
}

func verifyMessage(msg []byte, sig types.Signature, pub address.PublicKeyBytes) bool {
	return ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig[:])
}

// SignTransaction returns an envelope carrying k's single signature over tx.
// k should be tx.Sender's key.
func SignTransaction(tx types.Transaction, k KeyPair) (types.TransactionEnvelope, error) {
	sig, err := Sign(tx, k)
	if err != nil {
		return types.TransactionEnvelope{}, err
	}
	return types.TransactionEnvelope{Transaction: tx, Signature: types.SingleSignature(sig)}, nil
}

// SignMember returns k's contribution to a multisig over tx.
func SignMember(tx types.Transaction, k KeyPair) (types.NamedSignature, error) {
	sig, err := Sign(tx, k)
	if err != nil {
		return types.NamedSignature{}, err
	}
	return types.NamedSignature{Signer: k.Address(), Signature: sig}, nil
}

// VerifyAuthorization checks auth over tx: a single signature must be the
// sender's, a multisig must satisfy its own config.
func VerifyAuthorization(tx types.Transaction, auth types.SignatureOrMultiSig) error {
	if sig, ok := auth.Single(); ok {
		return Verify(tx, sig, tx.Sender)
	}
	if ms, ok := auth.Multi(); ok {
		return VerifyMultiSig(tx, ms)
	}
	return errs.New(errs.KindInvalidSignature, "SET-SIG-005", "transaction carries no authorization")
}

// VerifyEnvelope is VerifyAuthorization on the envelope's parts.
func VerifyEnvelope(env types.TransactionEnvelope) error {
	return VerifyAuthorization(env.Transaction, env.Signature)
}
