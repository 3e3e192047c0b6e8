package types

import "fastset.xyz/setcore/bcs"

// Encode returns the canonical encoding of v without a type name prefix.
func Encode(v bcs.Marshaler) ([]byte, error) {
	return bcs.Marshal(v)
}

// Decode decodes a canonical encoding into a new T. The input must be consumed
// exactly.
func Decode[T any, PT interface {
	*T
	bcs.Unmarshaler
}](data []byte) (T, error) {
	var v T
	if err := bcs.Unmarshal(data, PT(&v)); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

func DecodeTransaction(data []byte) (Transaction, error) {
	return Decode[Transaction](data)
}

func DecodeEnvelope(data []byte) (TransactionEnvelope, error) {
	return Decode[TransactionEnvelope](data)
}

func DecodeCertificate(data []byte) (TransactionCertificate, error) {
	return Decode[TransactionCertificate](data)
}
