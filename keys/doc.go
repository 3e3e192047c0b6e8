// Package keys manages the Ed25519 seeds behind FastSet accounts.
//
// Stable:
//   - Pure, deterministic primitives: role-seed derivation and address export.
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore). Seeds are stored hex encoded, one
//     file per key, with 0600 permissions.
package keys
