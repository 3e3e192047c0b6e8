package bcs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastset.xyz/setcore/errs"
)

type point struct {
	X     uint32
	Label string
	Tags  []uint16
	Note  *uint8
	Valid bool
}

func (p point) TypeName() string { return "Point" }

func (p point) MarshalBCS(e *Encoder) {
	e.U32(p.X)
	e.String(p.Label)
	Seq(e, p.Tags, func(e *Encoder, v uint16) { e.U16(v) })
	e.OptionTag(p.Note != nil)
	if p.Note != nil {
		e.U8(*p.Note)
	}
	e.Bool(p.Valid)
}

func (p *point) UnmarshalBCS(d *Decoder) {
	p.X = d.U32()
	p.Label = d.String()
	p.Tags = DecodeSeq(d, func(d *Decoder) uint16 { return d.U16() })
	if d.OptionTag() {
		n := d.U8()
		p.Note = &n
	}
	p.Valid = d.Bool()
}

type otherPoint struct{ point }

func (otherPoint) TypeName() string { return "OtherPoint" }

type badName struct{ point }

func (badName) TypeName() string { return "a::b" }

func TestEncodingLayout(t *testing.T) {
	note := uint8(9)
	p := point{X: 0x01020304, Label: "hi", Tags: []uint16{1, 0x0102}, Note: &note, Valid: true}
	raw, err := Marshal(p)
	require.NoError(t, err)
	want := []byte{
		0x04, 0x03, 0x02, 0x01, // u32 LE
		0x02, 'h', 'i', // string
		0x02, 0x01, 0x00, 0x02, 0x01, // seq of u16
		0x01, 0x09, // Some(9)
		0x01, // true
	}
	assert.Equal(t, want, raw)

	var back point
	require.NoError(t, Unmarshal(raw, &back))
	assert.Equal(t, p, back)
}

func TestSigningBytesPrefixesTypeName(t *testing.T) {
	p := point{X: 1}
	sb, err := SigningBytes(p)
	require.NoError(t, err)
	raw, err := Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, append([]byte("Point::"), raw...), sb)

	again, err := SigningBytes(point{X: 1})
	require.NoError(t, err)
	assert.Equal(t, sb, again)

	other, err := SigningBytes(otherPoint{p})
	require.NoError(t, err)
	assert.NotEqual(t, sb, other)

	_, err = SigningBytes(badName{p})
	assert.True(t, errs.IsKind(err, errs.KindInternal))
	assert.Equal(t, "SET-BCS-201", errs.RuleID(err))
}

func TestUleb128(t *testing.T) {
	cases := map[uint32][]byte{
		0:          {0x00},
		127:        {0x7f},
		128:        {0x80, 0x01},
		300:        {0xac, 0x02},
		1<<31 - 1:  {0xff, 0xff, 0xff, 0xff, 0x07},
		0xffffffff: {0xff, 0xff, 0xff, 0xff, 0x0f},
	}
	for v, want := range cases {
		e := NewEncoder()
		e.Uleb128(v)
		assert.Equal(t, want, e.Bytes())

		d := NewDecoder(want)
		assert.Equal(t, v, d.Uleb128())
		require.NoError(t, d.Finish())
	}
}

func TestDecoderRejects(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		rule string
	}{
		{"trailing bytes", append(mustMarshal(t, point{}), 0x00), "SET-BCS-002"},
		{"truncated", mustMarshal(t, point{})[:3], "SET-BCS-001"},
		{"invalid bool", []byte{0, 0, 0, 0, 0, 0, 0, 2}, "SET-BCS-003"},
		{"invalid option tag", []byte{0, 0, 0, 0, 0, 0, 2, 0}, "SET-BCS-008"},
		{"non-canonical length", []byte{0, 0, 0, 0, 0x80, 0x00, 0, 0, 0}, "SET-BCS-005"},
		{"length overflow", []byte{0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 0x1f}, "SET-BCS-004"},
		{"length beyond input", []byte{0, 0, 0, 0, 0x05, 'a'}, "SET-BCS-001"},
		{"invalid utf8", []byte{0, 0, 0, 0, 0x01, 0xff, 0, 0, 0}, "SET-BCS-007"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p point
			err := Unmarshal(tc.data, &p)
			require.Error(t, err)
			assert.Equal(t, tc.rule, errs.RuleID(err))
			assert.True(t, errs.IsKind(err, errs.KindParse))
		})
	}
}

func TestUnknownVariant(t *testing.T) {
	d := NewDecoder([]byte{0x05})
	idx := d.Variant()
	d.UnknownVariant("ClaimType", idx)
	err := d.Finish()
	assert.True(t, errs.IsKind(err, errs.KindUnknownVariant))
	assert.Equal(t, "SET-BCS-101", errs.RuleID(err))
}

func mustMarshal(t *testing.T, m Marshaler) []byte {
	t.Helper()
	raw, err := Marshal(m)
	require.NoError(t, err)
	return raw
}
