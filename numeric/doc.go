// Package numeric implements the bounded fixed-width integers of the protocol:
// Amount (unsigned 256-bit), Balance (signed 320-bit bounded to ±(2^256-1)) and
// U128.
//
// Text forms are hexadecimal without a prefix (Balance carries a leading '-' when
// negative). Binary forms are fixed-width little-endian: 32 bytes for Amount and
// 40 bytes of two's complement for Balance. Arithmetic never wraps; it returns a
// typed *errs.Error instead.
package numeric
