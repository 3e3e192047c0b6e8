package bcs

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"fastset.xyz/setcore/errs"
)

// Decoder reads a canonical encoding. The first error is sticky: after a failure
// every read returns a zero value and Err reports the original problem.
type Decoder struct {
	data []byte
	off  int
	err  error
}

func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

func (d *Decoder) Err() error { return d.err }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.data) - d.off }

// Finish returns the sticky error, or an error if input remains unread.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if d.Remaining() != 0 {
		return errs.New(errs.KindParse, "SET-BCS-002", fmt.Sprintf("%d trailing bytes after value", d.Remaining()))
	}
	return nil
}

// Fail records err unless an earlier error is already recorded.
func (d *Decoder) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// UnknownVariant records an UnknownVariant error for enum.
func (d *Decoder) UnknownVariant(enum string, index uint32) {
	d.Fail(errs.New(errs.KindUnknownVariant, "SET-BCS-101", fmt.Sprintf("unknown %s variant %d", enum, index)))
}

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || n > d.Remaining() {
		d.Fail(errs.New(errs.KindParse, "SET-BCS-001", "unexpected end of input"))
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *Decoder) U8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *Decoder) Bool() bool {
	b := d.take(1)
	if b == nil {
		return false
	}
	switch b[0] {
	case 0:
		return false
	case 1:
		return true
	default:
		d.Fail(errs.New(errs.KindParse, "SET-BCS-003", fmt.Sprintf("invalid bool byte 0x%02x", b[0])))
		return false
	}
}

func (d *Decoder) U16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (d *Decoder) U32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (d *Decoder) U64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// U128 reads a 128-bit integer and returns its low and high halves.
func (d *Decoder) U128() (lo, hi uint64) {
	lo = d.U64()
	hi = d.U64()
	return lo, hi
}

// Fixed reads exactly n bytes. The returned slice is a copy.
func (d *Decoder) Fixed(n int) []byte {
	b := d.take(n)
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// FixedInto fills dst from the input.
func (d *Decoder) FixedInto(dst []byte) {
	b := d.take(len(dst))
	if b == nil {
		return
	}
	copy(dst, b)
}

// Uleb128 reads a canonical unsigned LEB128 integer that fits in 32 bits.
func (d *Decoder) Uleb128() uint32 {
	var value uint64
	for shift := uint(0); shift < 35; shift += 7 {
		b := d.take(1)
		if b == nil {
			return 0
		}
		digit := uint64(b[0] & 0x7f)
		value |= digit << shift
		if value > math.MaxUint32 {
			break
		}
		if b[0]&0x80 == 0 {
			if shift > 0 && digit == 0 {
				d.Fail(errs.New(errs.KindParse, "SET-BCS-005", "non-canonical ULEB128 encoding"))
				return 0
			}
			return uint32(value)
		}
	}
	d.Fail(errs.New(errs.KindParse, "SET-BCS-004", "ULEB128 value overflows u32"))
	return 0
}

// SeqLen reads a sequence length prefix. Every element of the sequences in this
// module occupies at least one byte, so a length larger than the remaining input
// is rejected before any allocation.
func (d *Decoder) SeqLen() int {
	n := d.Uleb128()
	if d.err != nil {
		return 0
	}
	if n > MaxSequenceLength {
		d.Fail(errs.New(errs.KindParse, "SET-BCS-006", "sequence length exceeds maximum"))
		return 0
	}
	if int(n) > d.Remaining() {
		d.Fail(errs.New(errs.KindParse, "SET-BCS-001", "unexpected end of input"))
		return 0
	}
	return int(n)
}

// Variant reads an enum discriminant.
func (d *Decoder) Variant() uint32 {
	return d.Uleb128()
}

// OptionTag reads the presence tag of an optional value.
func (d *Decoder) OptionTag() bool {
	b := d.take(1)
	if b == nil {
		return false
	}
	switch b[0] {
	case 0:
		return false
	case 1:
		return true
	default:
		d.Fail(errs.New(errs.KindParse, "SET-BCS-008", fmt.Sprintf("invalid option tag 0x%02x", b[0])))
		return false
	}
}

// ByteSeq reads a length-prefixed byte sequence.
func (d *Decoder) ByteSeq() []byte {
	n := d.SeqLen()
	if d.err != nil {
		return nil
	}
	return d.Fixed(n)
}

// String reads a length-prefixed UTF-8 string.
func (d *Decoder) String() string {
	b := d.ByteSeq()
	if d.err != nil {
		return ""
	}
	if !utf8.Valid(b) {
		d.Fail(errs.New(errs.KindParse, "SET-BCS-007", "string is not valid UTF-8"))
		return ""
	}
	return string(b)
}

// Value decodes u in place.
func (d *Decoder) Value(u Unmarshaler) {
	if d.err != nil {
		return
	}
	u.UnmarshalBCS(d)
}

// DecodeSeq reads a length-prefixed sequence, decoding each element with each.
// It returns nil for an empty sequence.
func DecodeSeq[T any](d *Decoder, each func(*Decoder) T) []T {
	n := d.SeqLen()
	if d.Err() != nil || n == 0 {
		return nil
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v := each(d)
		if d.Err() != nil {
			return nil
		}
		out = append(out, v)
	}
	return out
}
