// Package answer converts stored and submitted answer payloads between their
// storage representations and canonical in-memory values.
//
// Rows written over the years hold the same logical value in several shapes: a
// bare string, a JSON-encoded string, a JSON string that itself contains JSON, or
// a native structured value. Every caller goes through Decode so that tolerance
// lives in one place.
package answer

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Pair is one left/right matching relationship.
type Pair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// Decode returns the canonical value for raw. It never fails: input that does
// not parse is returned as the literal string it was.
//
//	nil                      -> nil
//	string                   -> parsed JSON value, or the string verbatim
//	[]byte / json.RawMessage -> parsed JSON; a parsed string is decoded once more
//	anything else            -> returned unchanged
func Decode(raw any) any {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return decodeString(v)
	case json.RawMessage:
		return decodeColumn(v)
	case []byte:
		return decodeColumn(v)
	default:
		return v
	}
}

// decodeColumn handles a storage column. The column is JSON text whose value may
// itself be a JSON-encoded string.
func decodeColumn(b []byte) any {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	v, ok := parseJSON(b)
	if !ok {
		return string(b)
	}
	if s, isStr := v.(string); isStr {
		return decodeString(s)
	}
	return v
}

func decodeString(s string) any {
	v, ok := parseJSON([]byte(s))
	if !ok {
		return s
	}
	return v
}

// parseJSON parses exactly one JSON value. Numbers stay as json.Number so that
// "1e3" and "1000" are not conflated.
func parseJSON(b []byte) (any, bool) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, false
	}
	return v, true
}

// CleanLiteral trims whitespace and strips wrapping quote characters that
// match on both ends. Wrappers are stripped until none remain, so
// CleanLiteral(CleanLiteral(s)) == CleanLiteral(s).
func CleanLiteral(s string) string {
	s = strings.TrimSpace(s)
	for len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first != last || (first != '"' && first != '\'') {
			break
		}
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// NormalizeForCompare is CleanLiteral followed by lowercasing.
func NormalizeForCompare(s string) string {
	return strings.TrimSpace(strings.ToLower(CleanLiteral(s)))
}

// Text renders a scalar as a string. nil and structured values render as "".
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Strings converts a decoded list into strings. ok is false when v is not a list.
func Strings(v any) (out []string, ok bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out = make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, Text(e))
		}
		return out, true
	default:
		return nil, false
	}
}

// Mapping returns v as an object keyed by string.
func Mapping(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// Pairs reads matching pairs from either a list of {left, right} objects or a
// left->right object. Entries that are not objects are skipped.
func Pairs(v any) ([]Pair, bool) {
	switch t := v.(type) {
	case []Pair:
		return t, true
	case []any:
		out := make([]Pair, 0, len(t))
		for _, e := range t {
			m, ok := Mapping(e)
			if !ok {
				continue
			}
			out = append(out, Pair{Left: Text(m["left"]), Right: Text(m["right"])})
		}
		return out, true
	case map[string]any, map[string]string:
		m, _ := Mapping(t)
		lefts := make([]string, 0, len(m))
		for left := range m {
			lefts = append(lefts, left)
		}
		sort.Strings(lefts)
		out := make([]Pair, 0, len(m))
		for _, left := range lefts {
			out = append(out, Pair{Left: left, Right: Text(m[left])})
		}
		return out, true
	default:
		return nil, false
	}
}

// Encode returns the storage form of a submitted value: structured values become
// JSON text, scalars are kept as they are.
func Encode(v any) any {
	switch v.(type) {
	case nil, string, bool, json.Number, float64, float32, int, int64:
		return v
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(b)
}
