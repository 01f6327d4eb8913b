// Package wire normalizes the loosely shaped JSON the storefront backend
// returns into plain Go values.
//
// The backend serializes with reference preservation, so a list can arrive
// as a bare array, as {"$values": [...]}, or nested one level deeper under
// "data" or "Items". A single object where a list was expected is treated
// as a one-element list. List and Object are the only places that guess.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrShape is returned when the payload is neither a list nor an object.
var ErrShape = errors.New("wire: unexpected payload shape")

// wrapperKeys are probed in order on object payloads.
var wrapperKeys = []string{"$values", "data", "Items", "items"}

// List decodes raw into a slice of T, unwrapping every known envelope.
// Empty bodies and JSON null yield an empty, non-nil slice.
func List[T any](raw []byte) ([]T, error) {
	elems, err := Elements(raw)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(elems))
	for i, el := range elems {
		if isNull(el) {
			continue
		}
		var v T
		if err := json.Unmarshal(el, &v); err != nil {
			return nil, fmt.Errorf("wire: element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Elements returns the raw elements of a list payload after unwrapping.
// Null elements are kept so callers can apply their own defaults.
func Elements(raw []byte) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return []json.RawMessage{}, nil
	}

	switch raw[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, fmt.Errorf("wire: decode array: %w", err)
		}
		return elems, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("wire: decode object: %w", err)
		}
		for _, key := range wrapperKeys {
			if inner, ok := obj[key]; ok {
				return Elements(inner)
			}
		}
		return []json.RawMessage{raw}, nil
	default:
		return nil, ErrShape
	}
}

// Object decodes a single entity that may arrive bare, wrapped in
// {"$values": {...}}, or as the first element of a wrapped list.
// found is false when the payload holds no entity at all.
func Object[T any](raw []byte) (v T, found bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return v, false, nil
	}

	if raw[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return v, false, fmt.Errorf("wire: decode object: %w", err)
		}
		if inner, ok := obj["$values"]; ok {
			return Object[T](inner)
		}
		if err := json.Unmarshal(raw, &v); err != nil {
			return v, false, fmt.Errorf("wire: decode object: %w", err)
		}
		return v, true, nil
	}

	elems, err := Elements(raw)
	if err != nil {
		return v, false, err
	}
	for _, el := range elems {
		if isNull(el) {
			continue
		}
		if err := json.Unmarshal(el, &v); err != nil {
			return v, false, fmt.Errorf("wire: decode element: %w", err)
		}
		return v, true, nil
	}
	return v, false, nil
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
