// Package address implements FastSet account addresses: 32-byte Ed25519 public
// keys whose text form is bech32m with the human-readable part "set".
package address

import (
	"bytes"
	"encoding/json"

	"github.com/btcsuite/btcd/btcutil/bech32"

	"fastset.xyz/setcore/bcs"
	"fastset.xyz/setcore/errs"
	"fastset.xyz/setcore/internal/jsonbytes"
)

// HRP is the human-readable part of every address.
const HRP = "set"

// Size is the length of an address in bytes.
const Size = 32

// PublicKeyBytes is an Ed25519 public key used as an account address.
// Equality and hashing are on the raw bytes.
type PublicKeyBytes [Size]byte

// FastSetAddress identifies an account.
type FastSetAddress = PublicKeyBytes

// ValidatorName identifies a validator by its public key.
type ValidatorName = PublicKeyBytes

// FromSlice copies a 32-byte slice into an address.
func FromSlice(b []byte) (PublicKeyBytes, error) {
	var pk PublicKeyBytes
	if len(b) != Size {
		return pk, errs.New(errs.KindParse, "SET-ADDR-003", "address must be 32 bytes")
	}
	copy(pk[:], b)
	return pk, nil
}

// Encode returns the bech32m text form of pk.
func Encode(pk PublicKeyBytes) string {
	data, err := bech32.ConvertBits(pk[:], 8, 5, true)
	if err != nil {
		panic(err) // unreachable: 8-to-5 conversion with padding cannot fail
	}
	s, err := bech32.EncodeM(HRP, data)
	if err != nil {
		panic(err) // unreachable: fixed valid HRP and 5-bit data
	}
	return s
}

// Decode parses the bech32m text form. Bech32 (non-m) checksums, other HRPs,
// mixed case and payloads that are not 32 bytes are rejected with a parse error.
func Decode(text string) (PublicKeyBytes, error) {
	var pk PublicKeyBytes
	hrp, data, version, err := bech32.DecodeGeneric(text)
	if err != nil {
		return pk, errs.Wrap(errs.KindParse, "SET-ADDR-001", "invalid bech32m address", err)
	}
	if version != bech32.VersionM {
		return pk, errs.New(errs.KindParse, "SET-ADDR-001", "address checksum is not bech32m")
	}
	if hrp != HRP {
		return pk, errs.New(errs.KindParse, "SET-ADDR-002", "address prefix must be \""+HRP+"\"")
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return pk, errs.Wrap(errs.KindParse, "SET-ADDR-001", "invalid address payload", err)
	}
	return FromSlice(raw)
}

// Parse is Decode.
func Parse(text string) (PublicKeyBytes, error) { return Decode(text) }

// MustParse is Decode for constants; it panics on malformed input.
func MustParse(text string) PublicKeyBytes {
	pk, err := Decode(text)
	if err != nil {
		panic(err)
	}
	return pk
}

func (pk PublicKeyBytes) String() string { return Encode(pk) }

func (pk PublicKeyBytes) IsZero() bool { return pk == PublicKeyBytes{} }

func (pk PublicKeyBytes) MarshalBCS(e *bcs.Encoder) { e.Fixed(pk[:]) }

func (pk *PublicKeyBytes) UnmarshalBCS(d *bcs.Decoder) { d.FixedInto(pk[:]) }

// MarshalText renders the bech32m form, for flags, config files and map keys.
func (pk PublicKeyBytes) MarshalText() ([]byte, error) {
	return []byte(Encode(pk)), nil
}

func (pk *PublicKeyBytes) UnmarshalText(text []byte) error {
	v, err := Decode(string(text))
	if err != nil {
		return err
	}
	*pk = v
	return nil
}

// MarshalJSON emits the raw bytes as a JSON array of numbers, the wire form used
// by the proxy API.
func (pk PublicKeyBytes) MarshalJSON() ([]byte, error) {
	return jsonbytes.Marshal(pk[:])
}

// UnmarshalJSON accepts the byte-array form or a bech32m string.
func (pk *PublicKeyBytes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return pk.UnmarshalText([]byte(s))
	}
	if err := jsonbytes.UnmarshalFixed(data, pk[:]); err != nil {
		return errs.Wrap(errs.KindParse, "SET-ADDR-004", "invalid address bytes", err)
	}
	return nil
}
