// Package signing implements the FastSet authorization scheme: Ed25519
// signatures over canonical signing bytes, threshold multisig, and validator
// certificates.
//
// Everything here is stateless and safe for concurrent use. Verification errors
// are *errs.Error values; branch on errs.IsKind or errs.RuleID.
package signing
