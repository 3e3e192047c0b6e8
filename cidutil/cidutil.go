// Package cidutil derives content identifiers for canonically encoded values.
//
// Every stored object is addressed by a CIDv1 using the "raw" multicodec and a
// sha2-256 multihash of its exact bytes.
package cidutil

import (
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"fastset.xyz/setcore/bcs"
)

// Sum returns the CIDv1 (raw + sha2-256) of data.
func Sum(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// String returns the string form of Sum(data), or "" if hashing fails.
func String(data []byte) string {
	id, err := Sum(data)
	if err != nil {
		// multihash.Sum only errors for unknown codes or bad lengths.
		return ""
	}
	return id.String()
}

// Matches reports whether data hashes to id under id's own multihash.
func Matches(id cid.Cid, data []byte) bool {
	if !id.Defined() {
		return false
	}
	dec, err := multihash.Decode(id.Hash())
	if err != nil {
		return false
	}
	got, err := multihash.Sum(data, dec.Code, dec.Length)
	if err != nil {
		return false
	}
	return string(got) == string(id.Hash())
}

// Canonical encodes v and returns its bytes together with their CID.
func Canonical(v bcs.Marshaler) ([]byte, cid.Cid, error) {
	b, err := bcs.Marshal(v)
	if err != nil {
		return nil, cid.Undef, err
	}
	id, err := Sum(b)
	if err != nil {
		return nil, cid.Undef, err
	}
	return b, id, nil
}

// Parse decodes s and requires the raw multicodec.
func Parse(s string) (cid.Cid, error) {
	id, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, err
	}
	if id.Prefix().Codec != cid.Raw {
		return cid.Undef, fmt.Errorf("cidutil: codec %#x is not raw", id.Prefix().Codec)
	}
	return id, nil
}
