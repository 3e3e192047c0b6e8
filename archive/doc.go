// Package archive keeps verified transaction certificates retrievable.
//
// Put checks that a certificate carries a validator quorum and that its envelope
// is authorized by the sender, then stores the certificate's canonical bytes in a
// content-addressed store and records (sender, nonce) -> CID in a bolt index.
// Lookups by sender and nonce answer settlement queries for archival
// transactions.
package archive
