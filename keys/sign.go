package keys

import (
	"fastset.xyz/setcore/bcs"
	"fastset.xyz/setcore/signing"
	"fastset.xyz/setcore/types"
)

// Signer resolves a stored key. An empty Role selects the root key.
type Signer struct {
	Name string
	Role string
}

// KeyPair loads the signer's key from ks.
func (s Signer) KeyPair(ks *KeyStore) (signing.KeyPair, error) {
	return ks.LoadKeyPair("", s.Name, s.Role, "")
}

// Sign signs v with the signer's stored key. The key is loaded for the call
// and not retained.
func (s Signer) Sign(ks *KeyStore, v bcs.Signable) (types.Signature, error) {
	kp, err := s.KeyPair(ks)
	if err != nil {
		return types.Signature{}, err
	}
	return signing.Sign(v, kp)
}
