package keys

import (
	"fmt"

	"golang.org/x/crypto/sha3"

	"fastset.xyz/setcore/signing"
)

const roleDomain = "fastset-setcore-kms-v1"

// DeriveRoleSeed deterministically derives a role-specific Ed25519 seed from a root seed.
//
// seed = SHA3-256(root || 0x00 || domain || 0x00 || "role:" || role)
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != signing.SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", signing.SeedSize)
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}

	h := sha3.New256()
	_, _ = h.Write(rootSeed)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(roleDomain))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte("role:"))
	_, _ = h.Write([]byte(role))
	return h.Sum(nil), nil
}
