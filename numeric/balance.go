package numeric

import (
	"math/big"
	"strings"

	"fastset.xyz/setcore/bcs"
	"fastset.xyz/setcore/errs"
)

// BalanceSize is the length of a Balance's binary form: five 64-bit limbs.
const BalanceSize = 40

var (
	balanceMax = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	balanceMin = new(big.Int).Neg(balanceMax)

	// i320 representable range, used to tell malformed text from out-of-range values.
	i320Limit = new(big.Int).Lsh(big.NewInt(1), 319)
	twoTo320  = new(big.Int).Lsh(big.NewInt(1), 320)
)

// Balance is a signed 320-bit integer restricted to [-(2^256-1), 2^256-1].
//
// The zero value is 0. Balance is immutable; the wrapped big.Int is never
// mutated after construction.
type Balance struct {
	v *big.Int
}

func (b Balance) big() *big.Int {
	if b.v == nil {
		return new(big.Int)
	}
	return b.v
}

func newBalance(x *big.Int) (Balance, error) {
	if x.Cmp(balanceMax) > 0 || x.Cmp(balanceMin) < 0 {
		return Balance{}, errs.New(errs.KindBalanceOverflow, "SET-NUM-103", "balance out of range")
	}
	return wrapBalance(x), nil
}

// wrapBalance stores zero as a nil pointer so equal balances compare equal.
func wrapBalance(x *big.Int) Balance {
	if x.Sign() == 0 {
		return Balance{}
	}
	return Balance{v: x}
}

// NewBalance returns the Balance holding v. Every int64 is in range.
func NewBalance(v int64) Balance {
	return wrapBalance(big.NewInt(v))
}

// BalanceFromBig validates x against the balance range.
func BalanceFromBig(x *big.Int) (Balance, error) {
	return newBalance(new(big.Int).Set(x))
}

// BalanceFromAmount widens a. Every Amount is within the balance range.
func BalanceFromAmount(a Amount) Balance {
	return wrapBalance(a.Big())
}

// MaxBalance returns 2^256-1.
func MaxBalance() Balance { return Balance{v: balanceMax} }

// MinBalance returns -(2^256-1).
func MinBalance() Balance { return Balance{v: balanceMin} }

// ParseBalance parses optionally negative hexadecimal without a prefix, e.g. "-ff".
// Text that cannot be an i320 is a parse error; an i320 outside the balance range
// is BalanceOverflow.
func ParseBalance(s string) (Balance, error) {
	neg := false
	digits := s
	if strings.HasPrefix(digits, "-") {
		neg = true
		digits = digits[1:]
	}
	if digits == "" || !isHexDigits(digits) {
		return Balance{}, errs.New(errs.KindParse, "SET-NUM-101", "balance is not signed hexadecimal")
	}
	x, ok := new(big.Int).SetString(digits, 16)
	if !ok {
		return Balance{}, errs.New(errs.KindParse, "SET-NUM-101", "balance is not signed hexadecimal")
	}
	if neg {
		x.Neg(x)
	}
	if x.Cmp(i320Limit) >= 0 || x.Cmp(new(big.Int).Neg(i320Limit)) < 0 {
		return Balance{}, errs.New(errs.KindParse, "SET-NUM-102", "balance exceeds 320 bits")
	}
	return newBalance(x)
}

// BalanceFromBytes decodes 40 bytes of little-endian two's complement.
func BalanceFromBytes(b []byte) (Balance, error) {
	if len(b) != BalanceSize {
		return Balance{}, errs.New(errs.KindParse, "SET-NUM-104", "balance must be 40 bytes")
	}
	be := make([]byte, BalanceSize)
	for i := range b {
		be[BalanceSize-1-i] = b[i]
	}
	x := new(big.Int).SetBytes(be)
	if b[BalanceSize-1]&0x80 != 0 {
		x.Sub(x, twoTo320)
	}
	return newBalance(x)
}

// String returns signed lowercase hexadecimal without a prefix.
func (b Balance) String() string {
	return b.big().Text(16)
}

// Bytes returns the 40-byte little-endian two's complement form.
func (b Balance) Bytes() [BalanceSize]byte {
	x := b.big()
	if x.Sign() < 0 {
		x = new(big.Int).Add(x, twoTo320)
	}
	var be [BalanceSize]byte
	x.FillBytes(be[:])
	var out [BalanceSize]byte
	for i := range be {
		out[BalanceSize-1-i] = be[i]
	}
	return out
}

// Big returns a copy of the value.
func (b Balance) Big() *big.Int { return new(big.Int).Set(b.big()) }

func (b Balance) Sign() int { return b.big().Sign() }

func (b Balance) Cmp(o Balance) int { return b.big().Cmp(o.big()) }

func (b Balance) Equal(o Balance) bool { return b.Cmp(o) == 0 }

// Neg is total: the range is symmetric.
func (b Balance) Neg() Balance {
	return wrapBalance(new(big.Int).Neg(b.big()))
}

func (b Balance) Add(o Balance) (Balance, error) {
	return newBalance(new(big.Int).Add(b.big(), o.big()))
}

func (b Balance) Sub(o Balance) (Balance, error) {
	return newBalance(new(big.Int).Sub(b.big(), o.big()))
}

func (b Balance) AddAmount(a Amount) (Balance, error) {
	return b.Add(BalanceFromAmount(a))
}

func (b Balance) SubAmount(a Amount) (Balance, error) {
	return b.Sub(BalanceFromAmount(a))
}

// Amount converts a non-negative balance back to an Amount.
func (b Balance) Amount() (Amount, error) {
	return AmountFromBig(b.big())
}

func (b Balance) MarshalBCS(e *bcs.Encoder) {
	raw := b.Bytes()
	e.Fixed(raw[:])
}

func (b *Balance) UnmarshalBCS(d *bcs.Decoder) {
	var raw [BalanceSize]byte
	d.FixedInto(raw[:])
	if d.Err() != nil {
		return
	}
	v, err := BalanceFromBytes(raw[:])
	if err != nil {
		d.Fail(err)
		return
	}
	*b = v
}

func (b Balance) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Balance) UnmarshalText(text []byte) error {
	v, err := ParseBalance(string(text))
	if err != nil {
		return err
	}
	*b = v
	return nil
}
