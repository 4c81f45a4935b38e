package entity

import (
	"encoding/json"
)

// Upstream records are decoded field by field so that one wrongly typed value
// zeroes that value instead of failing the whole request document.

// objectFields decodes data as a JSON object. ok is false for any other JSON value.
func objectFields(data []byte) (map[string]json.RawMessage, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

// stringField returns a JSON string verbatim and "" for any other value
func stringField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// textField returns a JSON string verbatim and the raw text of any other non-null value
func textField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v ParamValue
	_ = v.UnmarshalJSON(raw)
	return v.String()
}

// listField decodes a JSON array element by element. Anything but an array yields nil,
// an empty array yields an empty non-nil slice.
func listField[T any](raw json.RawMessage) []T {
	if len(raw) == 0 {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil || elems == nil {
		return nil
	}

	out := make([]T, 0, len(elems))
	for _, elem := range elems {
		var v T
		if err := json.Unmarshal(elem, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
