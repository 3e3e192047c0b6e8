package signing

import (
	"crypto/rand"
	"errors"
	"io"
	"log/slog"

	"github.com/cloudflare/circl/sign/ed25519"

	"fastset.xyz/setcore/address"
	"fastset.xyz/setcore/errs"
)

// SeedSize is the length of an Ed25519 private key seed.
const SeedSize = ed25519.SeedSize

// KeyPair is an Ed25519 signing key. Formatting and logging a KeyPair only
// reveals its address; the secret leaves the value only through Seed.
type KeyPair struct {
	priv ed25519.PrivateKey
	addr address.PublicKeyBytes
}

// GenerateKeyPair creates a key pair from r, or crypto/rand when r is nil.
func GenerateKeyPair(r io.Reader) (KeyPair, error) {
	if r == nil {
		r = rand.Reader
	}
	_, priv, err := ed25519.GenerateKey(r)
	if err != nil {
		return KeyPair{}, errs.Wrap(errs.KindInternal, "SET-SIG-003", "generate ed25519 key", err)
	}
	return fromPrivate(priv), nil
}

// KeyPairFromSeed derives the key pair for a 32-byte seed.
func KeyPairFromSeed(seed []byte) (KeyPair, error) {
	if len(seed) != SeedSize {
		return KeyPair{}, errs.New(errs.KindParse, "SET-SIG-004", "ed25519 seed must be 32 bytes")
	}
	return fromPrivate(ed25519.NewKeyFromSeed(seed)), nil
}

func fromPrivate(priv ed25519.PrivateKey) KeyPair {
	var addr address.PublicKeyBytes
	copy(addr[:], priv[ed25519.SeedSize:])
	return KeyPair{priv: priv, addr: addr}
}

// Address returns the public key, which is also the account address.
func (k KeyPair) Address() address.PublicKeyBytes { return k.addr }

// Seed exports the private seed. Callers own the returned copy.
func (k KeyPair) Seed() []byte {
	if k.priv == nil {
		return nil
	}
	return append([]byte(nil), k.priv.Seed()...)
}

func (k KeyPair) IsZero() bool { return k.priv == nil }

func (k KeyPair) String() string {
	if k.priv == nil {
		return "KeyPair(<empty>)"
	}
	return "KeyPair(" + k.addr.String() + ")"
}

func (k KeyPair) GoString() string { return k.String() }

func (k KeyPair) LogValue() slog.Value {
	if k.priv == nil {
		return slog.StringValue("<empty>")
	}
	return slog.GroupValue(slog.String("address", k.addr.String()))
}

var errNoJSON = errors.New("signing: key pairs have no JSON form; export the seed explicitly")

// MarshalJSON always fails so a KeyPair cannot be serialized by accident.
func (k KeyPair) MarshalJSON() ([]byte, error) { return nil, errNoJSON }

func (k *KeyPair) UnmarshalJSON([]byte) error { return errNoJSON }
