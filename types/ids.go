package types

import (
	"encoding/hex"
	"strings"

	"fastset.xyz/setcore/bcs"
	"fastset.xyz/setcore/errs"
	"fastset.xyz/setcore/internal/jsonbytes"
)

// Nonce is a per-account sequence number. Accepted transactions from one account
// carry consecutive nonces.
type Nonce uint64

func (n Nonce) MarshalBCS(e *bcs.Encoder) { e.U64(uint64(n)) }

func (n *Nonce) UnmarshalBCS(d *bcs.Decoder) { *n = Nonce(d.U64()) }

// Quorum is a minimum number of distinct valid signatures.
type Quorum uint64

func (q Quorum) MarshalBCS(e *bcs.Encoder) { e.U64(uint64(q)) }

func (q *Quorum) UnmarshalBCS(d *bcs.Decoder) { *q = Quorum(d.U64()) }

const TokenIDSize = 32

// TokenID identifies a token.
type TokenID [TokenIDSize]byte

var nativeTokenID = TokenID{0xFA, 0x57, 0x5E, 0x70}

// NativeTokenID returns the reserved identifier of the network's native token.
func NativeTokenID() TokenID { return nativeTokenID }

func (t TokenID) IsNative() bool { return t == nativeTokenID }

// String returns lowercase hex.
func (t TokenID) String() string { return hex.EncodeToString(t[:]) }

// ParseTokenID parses 64 hex digits, optionally 0x-prefixed.
func ParseTokenID(s string) (TokenID, error) {
	var t TokenID
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return t, errs.Wrap(errs.KindParse, "SET-TYPE-001", "invalid token id", err)
	}
	if len(raw) != TokenIDSize {
		return t, errs.New(errs.KindParse, "SET-TYPE-001", "token id must be 32 bytes")
	}
	copy(t[:], raw)
	return t, nil
}

func (t TokenID) MarshalBCS(e *bcs.Encoder) { e.Fixed(t[:]) }

func (t *TokenID) UnmarshalBCS(d *bcs.Decoder) { d.FixedInto(t[:]) }

func (t TokenID) MarshalJSON() ([]byte, error) { return jsonbytes.Marshal(t[:]) }

func (t *TokenID) UnmarshalJSON(data []byte) error {
	return fixedJSON(data, t[:], "token id")
}

// StateKey names a 32-byte slot of account state.
type StateKey [32]byte

func (k StateKey) MarshalBCS(e *bcs.Encoder) { e.Fixed(k[:]) }

func (k *StateKey) UnmarshalBCS(d *bcs.Decoder) { d.FixedInto(k[:]) }

func (k StateKey) MarshalJSON() ([]byte, error) { return jsonbytes.Marshal(k[:]) }

func (k *StateKey) UnmarshalJSON(data []byte) error {
	return fixedJSON(data, k[:], "state key")
}

// State is the 32-byte value stored under a StateKey.
type State [32]byte

func (s State) MarshalBCS(e *bcs.Encoder) { e.Fixed(s[:]) }

func (s *State) UnmarshalBCS(d *bcs.Decoder) { d.FixedInto(s[:]) }

func (s State) MarshalJSON() ([]byte, error) { return jsonbytes.Marshal(s[:]) }

func (s *State) UnmarshalJSON(data []byte) error {
	return fixedJSON(data, s[:], "state")
}

// Digest is a SHA3-256 hash of signing bytes.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

func fixedJSON(data []byte, dst []byte, what string) error {
	if err := jsonbytes.UnmarshalFixed(data, dst); err != nil {
		return errs.Wrap(errs.KindParse, "SET-TYPE-002", "invalid "+what, err)
	}
	return nil
}
