package wire

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Fields is one JSON object read key by key. Every accessor tolerates the
// loose typing of the backend (numbers sent as strings, strings sent as
// numbers) and falls back to the zero value for that key alone, so one bad
// field never costs the rest of the object.
type Fields map[string]json.RawMessage

// Decode reads raw as an object. ok is false for null, empty input and
// anything that is not an object.
func Decode(raw []byte) (f Fields, ok bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, false
	}
	return f, true
}

// Has reports whether any of keys is present and not null.
func (f Fields) Has(keys ...string) bool {
	_, ok := f.lookup(keys)
	return ok
}

// Raw returns the first present value among keys, or nil.
func (f Fields) Raw(keys ...string) json.RawMessage {
	raw, _ := f.lookup(keys)
	return raw
}

// Float reads the first present key as a number. Numeric strings count.
func (f Fields) Float(keys ...string) float64 {
	raw, ok := f.lookup(keys)
	if !ok {
		return 0
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return n
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			return n
		}
	}
	return 0
}

// Int reads the first present key as a whole number, truncating fractions.
func (f Fields) Int(keys ...string) int {
	return int(f.Float(keys...))
}

// String reads the first present key as text. Numbers and booleans keep
// their literal spelling.
func (f Fields) String(keys ...string) string {
	raw, ok := f.lookup(keys)
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	switch raw[0] {
	case '{', '[':
		return ""
	}
	return string(raw)
}

// StringPtr is String for optional fields: nil when absent or empty.
func (f Fields) StringPtr(keys ...string) *string {
	s := f.String(keys...)
	if s == "" {
		return nil
	}
	return &s
}

func (f Fields) lookup(keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		raw, ok := f[k]
		if !ok {
			continue
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 || isNull(raw) {
			continue
		}
		return raw, true
	}
	return nil, false
}
