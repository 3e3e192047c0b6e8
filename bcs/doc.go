// Package bcs implements the canonical binary encoding used for hashing and signing.
//
// The format follows the Binary Canonical Serialization rules:
//
//   - integers are fixed width and little-endian
//   - bool is a single byte, 0 or 1
//   - sequences and strings carry a ULEB128 length prefix
//   - fixed-size arrays are written as raw bytes without a prefix
//   - options are a 0/1 tag followed by the value when present
//   - enums are a ULEB128 variant index followed by the variant payload
//
// There is no reflection. Every encodable type implements Marshaler (and usually
// Unmarshaler) and writes its fields in declaration order. Types that are signed
// additionally implement Signable, which names the type; the signed message is
//
//	TypeName() + "::" + bcs(value)
//
// Decoding is strict: non-canonical ULEB128, invalid bool or option tags, unknown
// enum variants and trailing bytes are all rejected, so that decode(encode(x)) == x
// and encode(decode(b)) == b for every accepted b.
package bcs
