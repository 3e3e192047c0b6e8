package proxy

import (
	"bytes"
	"encoding/json"

	"fastset.xyz/setcore/errs"
	"fastset.xyz/setcore/types"
)

// SubmitResult is the outcome of proxy_submitTransaction. It is one of
// Success, IncompleteVerifierSigs or IncompleteMultiSig.
type SubmitResult interface {
	isSubmitResult()
}

// Success means validators certified the transaction.
type Success struct {
	Certificate types.TransactionCertificate
}

// IncompleteVerifierSigs means the proxy stored the transaction until more
// verifier signatures arrive.
type IncompleteVerifierSigs struct{}

// IncompleteMultiSig means the proxy stored the transaction until more multisig
// members sign.
type IncompleteMultiSig struct{}

func (Success) isSubmitResult()                {}
func (IncompleteVerifierSigs) isSubmitResult() {}
func (IncompleteMultiSig) isSubmitResult()     {}

const (
	tagSuccess                = "Success"
	tagIncompleteVerifierSigs = "IncompleteVerifierSigs"
	tagIncompleteMultiSig     = "IncompleteMultiSig"
)

// EncodeSubmitResult renders r in the proxy's wire form, e.g.
// {"Success": {...}} or {"IncompleteMultiSig": []}.
func EncodeSubmitResult(r SubmitResult) ([]byte, error) {
	switch v := r.(type) {
	case Success:
		return json.Marshal(map[string]types.TransactionCertificate{tagSuccess: v.Certificate})
	case IncompleteVerifierSigs:
		return json.Marshal(map[string][]struct{}{tagIncompleteVerifierSigs: {}})
	case IncompleteMultiSig:
		return json.Marshal(map[string][]struct{}{tagIncompleteMultiSig: {}})
	default:
		return nil, errs.New(errs.KindInternal, "SET-RPC-012", "unsupported submit result")
	}
}

// DecodeSubmitResult parses a submit result. Payload-less variants are also
// accepted as bare strings. Unknown tags fail with KindUnknownVariant.
func DecodeSubmitResult(data []byte) (SubmitResult, error) {
	data = bytes.TrimSpace(data)
	var (
		tag     string
		payload json.RawMessage
	)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &tag); err != nil {
			return nil, errs.Wrap(errs.KindParse, "SET-RPC-010", "invalid submit result", err)
		}
	} else {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, errs.Wrap(errs.KindParse, "SET-RPC-010", "invalid submit result", err)
		}
		if len(obj) != 1 {
			return nil, errs.New(errs.KindParse, "SET-RPC-010", "submit result must have exactly one variant key")
		}
		for k, v := range obj {
			tag, payload = k, v
		}
	}

	switch tag {
	case tagSuccess:
		if len(payload) == 0 {
			return nil, errs.New(errs.KindParse, "SET-RPC-010", "Success carries no certificate")
		}
		var cert types.TransactionCertificate
		if err := json.Unmarshal(payload, &cert); err != nil {
			return nil, errs.Wrap(errs.KindParse, "SET-RPC-010", "invalid Success certificate", err)
		}
		return Success{Certificate: cert}, nil
	case tagIncompleteVerifierSigs:
		if err := checkEmpty(payload); err != nil {
			return nil, err
		}
		return IncompleteVerifierSigs{}, nil
	case tagIncompleteMultiSig:
		if err := checkEmpty(payload); err != nil {
			return nil, err
		}
		return IncompleteMultiSig{}, nil
	default:
		return nil, errs.New(errs.KindUnknownVariant, "SET-RPC-011", "unknown submit result variant "+tag)
	}
}

// checkEmpty accepts an absent payload, null, or an empty array.
func checkEmpty(payload json.RawMessage) error {
	if len(payload) == 0 {
		return nil
	}
	var fields []json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || len(fields) != 0 {
		return errs.New(errs.KindParse, "SET-RPC-010", "payload-less variant carries data")
	}
	return nil
}
