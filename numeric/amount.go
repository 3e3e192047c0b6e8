package numeric

import (
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	"fastset.xyz/setcore/bcs"
	"fastset.xyz/setcore/errs"
)

// AmountSize is the length of an Amount's binary form.
const AmountSize = 32

// Amount is an unsigned 256-bit quantity of tokens.
//
// Amount is an immutable value; arithmetic returns a new Amount or a typed error
// and never wraps.
type Amount struct {
	v uint256.Int
}

// NewAmount returns the Amount holding v.
func NewAmount(v uint64) Amount {
	var a Amount
	a.v.SetUint64(v)
	return a
}

// MaxAmount returns 2^256-1.
func MaxAmount() Amount {
	var a Amount
	a.v.SetAllOne()
	return a
}

// ParseAmount parses lowercase or uppercase hexadecimal without a prefix.
// Leading zeros are accepted.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Amount{}, errs.New(errs.KindParse, "SET-NUM-001", "empty amount")
	}
	if !isHexDigits(s) {
		return Amount{}, errs.New(errs.KindParse, "SET-NUM-001", "amount is not hexadecimal")
	}
	t := strings.TrimLeft(s, "0")
	if t == "" {
		return Amount{}, nil
	}
	if len(t) > 2*AmountSize {
		return Amount{}, errs.New(errs.KindParse, "SET-NUM-002", "amount exceeds 256 bits")
	}
	var a Amount
	if err := a.v.SetFromHex("0x" + t); err != nil {
		return Amount{}, errs.Wrap(errs.KindParse, "SET-NUM-001", "invalid amount", err)
	}
	return a, nil
}

// MustParseAmount is ParseAmount for constants; it panics on malformed input.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AmountFromBytes decodes the 32-byte little-endian binary form.
func AmountFromBytes(b []byte) (Amount, error) {
	if len(b) != AmountSize {
		return Amount{}, errs.New(errs.KindParse, "SET-NUM-005", "amount must be 32 bytes")
	}
	var be [AmountSize]byte
	for i := range b {
		be[AmountSize-1-i] = b[i]
	}
	var a Amount
	a.v.SetBytes32(be[:])
	return a, nil
}

// AmountFromBig converts a non-negative big integer below 2^256.
func AmountFromBig(x *big.Int) (Amount, error) {
	if x.Sign() < 0 {
		return Amount{}, errs.New(errs.KindAmountUnderflow, "SET-NUM-004", "negative amount")
	}
	var a Amount
	if a.v.SetFromBig(x) {
		return Amount{}, errs.New(errs.KindAmountOverflow, "SET-NUM-003", "amount exceeds 256 bits")
	}
	return a, nil
}

// String returns lowercase hexadecimal without a prefix.
func (a Amount) String() string {
	return strings.TrimPrefix(a.v.Hex(), "0x")
}

// Bytes returns the 32-byte little-endian binary form.
func (a Amount) Bytes() [AmountSize]byte {
	be := a.v.Bytes32()
	var out [AmountSize]byte
	for i := range be {
		out[AmountSize-1-i] = be[i]
	}
	return out
}

func (a Amount) Big() *big.Int { return a.v.ToBig() }

// Uint64 returns the value and whether it fits in 64 bits.
func (a Amount) Uint64() (uint64, bool) {
	return a.v.Uint64(), a.v.IsUint64()
}

func (a Amount) IsZero() bool { return a.v.IsZero() }

func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }

func (a Amount) Equal(b Amount) bool { return a.v.Eq(&b.v) }

// Add returns a+b or an AmountOverflow error.
func (a Amount) Add(b Amount) (Amount, error) {
	var out Amount
	if _, overflow := out.v.AddOverflow(&a.v, &b.v); overflow {
		return Amount{}, errs.New(errs.KindAmountOverflow, "SET-NUM-003", "amount addition overflows")
	}
	return out, nil
}

// Sub returns a-b or an AmountUnderflow error.
func (a Amount) Sub(b Amount) (Amount, error) {
	var out Amount
	if _, underflow := out.v.SubOverflow(&a.v, &b.v); underflow {
		return Amount{}, errs.New(errs.KindAmountUnderflow, "SET-NUM-004", "amount subtraction underflows")
	}
	return out, nil
}

func (a Amount) MarshalBCS(e *bcs.Encoder) {
	b := a.Bytes()
	e.Fixed(b[:])
}

func (a *Amount) UnmarshalBCS(d *bcs.Decoder) {
	var b [AmountSize]byte
	d.FixedInto(b[:])
	if d.Err() != nil {
		return
	}
	v, _ := AmountFromBytes(b[:])
	*a = v
}

// MarshalText renders the hex text form; JSON carries it as a string.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalText(text []byte) error {
	v, err := ParseAmount(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

func isHexDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
