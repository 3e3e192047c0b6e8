// Package types defines the FastSet transaction, authorization and certificate
// model together with the RPC response shapes.
//
// Every type has a canonical encoding (MarshalBCS/UnmarshalBCS) and declares a
// stable TypeName, so bcs.SigningBytes can produce the exact message that is
// hashed and signed. JSON forms follow the proxy API: fixed byte arrays are JSON
// arrays of numbers, Amount and Balance are hex strings, enums are externally
// tagged objects such as {"TokenTransfer": {...}}.
package types
