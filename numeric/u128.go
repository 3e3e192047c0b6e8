package numeric

import (
	"encoding/json"
	"math/big"
	"strconv"

	"fastset.xyz/setcore/bcs"
	"fastset.xyz/setcore/errs"
)

// U128 is an unsigned 128-bit integer, used for nanosecond timestamps.
type U128 struct {
	Lo, Hi uint64
}

func U128From64(v uint64) U128 { return U128{Lo: v} }

// U128FromBig fails for negative values and values of 2^128 or more.
func U128FromBig(x *big.Int) (U128, error) {
	if x.Sign() < 0 || x.BitLen() > 128 {
		return U128{}, errs.New(errs.KindParse, "SET-NUM-201", "value does not fit in u128")
	}
	lo := new(big.Int).And(x, new(big.Int).SetUint64(^uint64(0)))
	hi := new(big.Int).Rsh(x, 64)
	return U128{Lo: lo.Uint64(), Hi: hi.Uint64()}, nil
}

// ParseU128 parses a decimal string.
func ParseU128(s string) (U128, error) {
	if s == "" || s[0] == '+' || s[0] == '-' {
		return U128{}, errs.New(errs.KindParse, "SET-NUM-202", "invalid u128")
	}
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return U128From64(v), nil
	}
	x, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return U128{}, errs.New(errs.KindParse, "SET-NUM-202", "invalid u128")
	}
	return U128FromBig(x)
}

func (u U128) Big() *big.Int {
	x := new(big.Int).SetUint64(u.Hi)
	x.Lsh(x, 64)
	return x.Or(x, new(big.Int).SetUint64(u.Lo))
}

func (u U128) String() string {
	if u.Hi == 0 {
		return strconv.FormatUint(u.Lo, 10)
	}
	return u.Big().String()
}

func (u U128) MarshalBCS(e *bcs.Encoder) { e.U128(u.Lo, u.Hi) }

func (u *U128) UnmarshalBCS(d *bcs.Decoder) { u.Lo, u.Hi = d.U128() }

// MarshalJSON emits a bare JSON number.
func (u U128) MarshalJSON() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalJSON accepts a JSON number or a decimal string.
func (u *U128) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return errs.Wrap(errs.KindParse, "SET-NUM-203", "invalid u128 string", err)
		}
	}
	v, err := ParseU128(s)
	if err != nil {
		return err
	}
	*u = v
	return nil
}
