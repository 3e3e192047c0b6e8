package keys

import (
	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/signing"
)

// AddressFromSeed returns the account address controlled by seed.
func AddressFromSeed(seed []byte) (address.PublicKeyBytes, error) {
	kp, err := signing.KeyPairFromSeed(seed)
	if err != nil {
		return address.PublicKeyBytes{}, err
	}
	return kp.Address(), nil
}
