// Package errs defines the structured error taxonomy shared by the setcore packages.
package errs

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	KindBalanceOverflow  Kind = "BalanceOverflow"
	KindAmountOverflow   Kind = "AmountOverflow"
	KindAmountUnderflow  Kind = "AmountUnderflow"
	KindParse            Kind = "Parse"
	KindInvalidSignature Kind = "InvalidSignature"
	KindQuorumNotMet     Kind = "QuorumNotMet"
	KindDuplicateSigner  Kind = "DuplicateSigner"
	KindUnknownVariant   Kind = "UnknownVariant"
	KindInvalidConfig    Kind = "InvalidConfig"
	KindInternal         Kind = "Internal"
)

// Error is the structured error type returned by the protocol core.
//
// RuleID is a stable identifier (e.g. SET-NUM-001, SET-BCS-004, SET-SIG-101)
// naming the violated rule. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New returns a structured error without a cause.
func New(kind Kind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg}
}

// Wrap returns a structured error carrying cause. A nil cause behaves like New.
func Wrap(kind Kind, ruleID, msg string, cause error) error {
	if cause == nil {
		return New(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of the outermost *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
