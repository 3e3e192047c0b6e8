package numeric

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastset.xyz/setcore/bcs"
	"fastset.xyz/setcore/errs"
)

func TestBalanceBounds(t *testing.T) {
	top, err := ParseBalance(strings.Repeat("f", 64))
	require.NoError(t, err)
	assert.True(t, top.Equal(MaxBalance()))

	_, err = MaxBalance().Add(NewBalance(1))
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindBalanceOverflow))

	_, err = MinBalance().Sub(NewBalance(1))
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindBalanceOverflow))

	back, err := MaxBalance().Sub(NewBalance(1))
	require.NoError(t, err)
	back, err = back.Add(NewBalance(1))
	require.NoError(t, err)
	assert.Equal(t, MaxBalance().String(), back.String())

	assert.True(t, MaxBalance().Neg().Equal(MinBalance()))
}

func TestBalanceFromBig(t *testing.T) {
	over := new(big.Int).Lsh(big.NewInt(1), 256)
	_, err := BalanceFromBig(over)
	assert.True(t, errs.IsKind(err, errs.KindBalanceOverflow))

	_, err = BalanceFromBig(new(big.Int).Neg(over))
	assert.True(t, errs.IsKind(err, errs.KindBalanceOverflow))

	b, err := BalanceFromBig(big.NewInt(-42))
	require.NoError(t, err)
	assert.Equal(t, -1, b.Sign())
}

func TestParseBalance(t *testing.T) {
	cases := []struct {
		in   string
		want string
		kind errs.Kind
	}{
		{in: "0", want: "0"},
		{in: "-0", want: "0"},
		{in: "ff", want: "ff"},
		{in: "-FF", want: "-ff"},
		{in: "-" + strings.Repeat("f", 64), want: "-" + strings.Repeat("f", 64)},
		{in: "1" + strings.Repeat("0", 64), kind: errs.KindBalanceOverflow},
		{in: "-1" + strings.Repeat("0", 64), kind: errs.KindBalanceOverflow},
		{in: "1" + strings.Repeat("0", 80), kind: errs.KindParse},
		{in: "", kind: errs.KindParse},
		{in: "-", kind: errs.KindParse},
		{in: "0xff", kind: errs.KindParse},
		{in: "--1", kind: errs.KindParse},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			b, err := ParseBalance(tc.in)
			if tc.kind != "" {
				require.Error(t, err)
				assert.True(t, errs.IsKind(err, tc.kind), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, b.String())
		})
	}
}

func TestBalanceBytesTwosComplement(t *testing.T) {
	minusOne := NewBalance(-1)
	raw := minusOne.Bytes()
	for _, x := range raw {
		assert.Equal(t, byte(0xff), x)
	}
	back, err := BalanceFromBytes(raw[:])
	require.NoError(t, err)
	assert.Equal(t, minusOne, back)

	for _, b := range []Balance{NewBalance(0), NewBalance(1), MaxBalance(), MinBalance(), NewBalance(-1 << 40)} {
		raw := b.Bytes()
		back, err := BalanceFromBytes(raw[:])
		require.NoError(t, err)
		assert.True(t, b.Equal(back), "%s", b)
	}

	// 2^256 as an i320 is representable but outside the balance range.
	var tooBig [BalanceSize]byte
	tooBig[32] = 1
	_, err = BalanceFromBytes(tooBig[:])
	assert.True(t, errs.IsKind(err, errs.KindBalanceOverflow))

	_, err = BalanceFromBytes(raw[:39])
	assert.True(t, errs.IsKind(err, errs.KindParse))
}

func TestBalanceCanonicalEncodingRejectsOutOfRange(t *testing.T) {
	raw, err := bcs.Marshal(NewBalance(-2))
	require.NoError(t, err)
	require.Len(t, raw, BalanceSize)

	var back Balance
	require.NoError(t, bcs.Unmarshal(raw, &back))
	assert.Equal(t, NewBalance(-2), back)

	bad := make([]byte, BalanceSize)
	bad[33] = 0x01
	err = bcs.Unmarshal(bad, &back)
	assert.True(t, errs.IsKind(err, errs.KindBalanceOverflow))
}

func TestBalanceAmountHelpers(t *testing.T) {
	b, err := NewBalance(10).SubAmount(NewAmount(15))
	require.NoError(t, err)
	assert.Equal(t, "-5", b.String())

	_, err = b.Amount()
	assert.True(t, errs.IsKind(err, errs.KindAmountUnderflow))

	b, err = b.AddAmount(NewAmount(20))
	require.NoError(t, err)
	a, err := b.Amount()
	require.NoError(t, err)
	assert.Equal(t, NewAmount(15), a)

	assert.True(t, BalanceFromAmount(MaxAmount()).Equal(MaxBalance()))
}
