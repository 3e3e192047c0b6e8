package types

import (
	"bytes"
	"encoding/json"

	"fastset.xyz/setcore/errs"
)

// marshalTagged renders an externally tagged enum value: {"Tag": payload}.
func marshalTagged(tag string, payload any) ([]byte, error) {
	return json.Marshal(map[string]any{tag: payload})
}

// unmarshalTagged splits {"Tag": payload} into its tag and raw payload. A bare
// "Tag" string is accepted for payload-less variants.
func unmarshalTagged(data []byte, enum string) (string, json.RawMessage, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return "", nil, errs.Wrap(errs.KindParse, "SET-TYPE-010", "invalid "+enum, err)
		}
		return tag, nil, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return "", nil, errs.Wrap(errs.KindParse, "SET-TYPE-010", "invalid "+enum, err)
	}
	if len(obj) != 1 {
		return "", nil, errs.New(errs.KindParse, "SET-TYPE-010", enum+" must have exactly one variant key")
	}
	var (
		tag     string
		payload json.RawMessage
	)
	for tag, payload = range obj {
	}
	return tag, payload, nil
}

func unknownVariantJSON(enum, tag string) error {
	return errs.New(errs.KindUnknownVariant, "SET-TYPE-011", "unknown "+enum+" variant "+tag)
}

// marshalPair renders a two-element tuple as a JSON array.
func marshalPair(a, b any) ([]byte, error) {
	return json.Marshal([2]any{a, b})
}

func unmarshalPair(data []byte, a, b any) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errs.Wrap(errs.KindParse, "SET-TYPE-012", "invalid tuple", err)
	}
	if len(raw) != 2 {
		return errs.New(errs.KindParse, "SET-TYPE-012", "tuple must have two elements")
	}
	if err := json.Unmarshal(raw[0], a); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], b)
}

// nonNil makes empty sequences render as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
