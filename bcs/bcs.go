package bcs

import (
	"bytes"

	"fastset.xyz/setcore/errs"
)

// NameSeparator separates the type name from the encoded fields in signing bytes.
// Type names must never contain it.
const NameSeparator = "::"

// MaxSequenceLength is the largest length prefix accepted for sequences and strings.
const MaxSequenceLength = 1<<31 - 1

// Marshaler is implemented by every type with a canonical encoding.
type Marshaler interface {
	MarshalBCS(e *Encoder)
}

// Unmarshaler is implemented by every type that can be decoded from its canonical encoding.
type Unmarshaler interface {
	UnmarshalBCS(d *Decoder)
}

// Signable is a Marshaler with a declared, stable type name.
type Signable interface {
	Marshaler
	TypeName() string
}

// Marshal returns the canonical encoding of m.
func Marshal(m Marshaler) ([]byte, error) {
	e := NewEncoder()
	m.MarshalBCS(e)
	if err := e.Err(); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// Unmarshal decodes data into u. The whole input must be consumed.
func Unmarshal(data []byte, u Unmarshaler) error {
	d := NewDecoder(data)
	u.UnmarshalBCS(d)
	return d.Finish()
}

// SigningBytes returns TypeName() + "::" + bcs(v), the exact message that is hashed
// and signed for v.
func SigningBytes(v Signable) ([]byte, error) {
	name := v.TypeName()
	if name == "" || bytes.Contains([]byte(name), []byte(NameSeparator)) {
		return nil, errs.New(errs.KindInternal, "SET-BCS-201", "invalid signable type name")
	}
	e := NewEncoder()
	e.buf = append(e.buf, name...)
	e.buf = append(e.buf, NameSeparator...)
	v.MarshalBCS(e)
	if err := e.Err(); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}
