package bcs

import (
	"encoding/binary"

	"fastset.xyz/setcore/errs"
)

// Encoder accumulates a canonical encoding. The first error is sticky; later
// writes are ignored.
type Encoder struct {
	buf []byte
	err error
}

func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Bytes returns a copy of the encoded bytes.
func (e *Encoder) Bytes() []byte {
	return append([]byte(nil), e.buf...)
}

func (e *Encoder) Err() error { return e.err }

func (e *Encoder) U8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *Encoder) Bool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
		return
	}
	e.buf = append(e.buf, 0)
}

func (e *Encoder) U16(v uint16) {
	e.buf = binary.LittleEndian.AppendUint16(e.buf, v)
}

func (e *Encoder) U32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) U64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

// U128 writes a 128-bit integer given as its low and high 64-bit halves.
func (e *Encoder) U128(lo, hi uint64) {
	e.U64(lo)
	e.U64(hi)
}

// Fixed writes b verbatim. It is used for fixed-size arrays whose length is part
// of the type.
func (e *Encoder) Fixed(b []byte) {
	e.buf = append(e.buf, b...)
}

// Uleb128 writes v as an unsigned LEB128 integer.
func (e *Encoder) Uleb128(v uint32) {
	for v >= 0x80 {
		e.buf = append(e.buf, byte(v)|0x80)
		v >>= 7
	}
	e.buf = append(e.buf, byte(v))
}

// SeqLen writes the length prefix of a sequence with n elements.
func (e *Encoder) SeqLen(n int) {
	if n < 0 || n > MaxSequenceLength {
		e.Fail(errs.New(errs.KindInternal, "SET-BCS-202", "sequence too long to encode"))
		return
	}
	e.Uleb128(uint32(n))
}

// Variant writes an enum discriminant.
func (e *Encoder) Variant(index uint32) {
	e.Uleb128(index)
}

// OptionTag writes the presence tag of an optional value.
func (e *Encoder) OptionTag(present bool) {
	e.Bool(present)
}

// ByteSeq writes a length-prefixed byte sequence.
func (e *Encoder) ByteSeq(b []byte) {
	e.SeqLen(len(b))
	e.Fixed(b)
}

// String writes a length-prefixed UTF-8 string.
func (e *Encoder) String(s string) {
	e.SeqLen(len(s))
	e.buf = append(e.buf, s...)
}

// Value writes m's encoding in place.
func (e *Encoder) Value(m Marshaler) {
	m.MarshalBCS(e)
}

// Fail records err unless an earlier error is already recorded.
func (e *Encoder) Fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

// Seq writes a length-prefixed sequence, encoding each element with each.
func Seq[T any](e *Encoder, items []T, each func(*Encoder, T)) {
	e.SeqLen(len(items))
	for _, it := range items {
		each(e, it)
	}
}
