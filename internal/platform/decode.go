package platform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Known wrapper keys for list endpoints, tried after the resource-specific key
var listKeys = []string{"data", "items", "results"}

// ErrShape is returned when a response matches none of the accepted shapes
type ErrShape struct {
	Endpoint string
}

func (e *ErrShape) Error() string {
	return fmt.Sprintf("unexpected response shape from %s", e.Endpoint)
}

// normalizeList returns the JSON array of a list response. The platform
// answers either with a bare array or with an object wrapping the array
// under the resource name or one of listKeys, possibly one level deeper.
func normalizeList(endpoint string, body []byte, resource string) (json.RawMessage, error) {
	keys := append([]string{resource}, listKeys...)
	if arr, ok := findArray(bytes.TrimSpace(body), keys, 2); ok {
		return arr, nil
	}
	return nil, &ErrShape{Endpoint: endpoint}
}

func findArray(body []byte, keys []string, depth int) (json.RawMessage, bool) {
	if len(body) == 0 {
		return nil, false
	}
	if body[0] == '[' {
		return body, true
	}
	if body[0] != '{' || depth == 0 {
		return nil, false
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, false
	}
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		if arr, ok := findArray(bytes.TrimSpace(v), keys, depth-1); ok {
			return arr, true
		}
	}
	return nil, false
}

// unwrapObject returns the object under key when present, else body itself
func unwrapObject(body []byte, keys ...string) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return body
	}
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			v = bytes.TrimSpace(v)
			if len(v) > 0 && v[0] == '{' {
				return v
			}
		}
	}
	return body
}

// flexString accepts a JSON string or number
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number or a numeric string
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(string(s), 64)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// flexBool accepts true/false, 0/1 and their string forms
type flexBool struct {
	Value bool
	Set   bool
}

func (f *flexBool) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = flexBool{}
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err == nil {
		*f = flexBool{Value: v, Set: true}
		return nil
	}
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*f = flexBool{}
		return nil
	}
	v, err := strconv.ParseBool(string(s))
	if err != nil {
		return err
	}
	*f = flexBool{Value: v, Set: true}
	return nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}

// flexTime accepts RFC3339 and the common SQL timestamp layouts; anything else is zero
type flexTime time.Time

func (f *flexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*f = flexTime{}
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*f = flexTime(t)
			return nil
		}
	}
	*f = flexTime{}
	return nil
}

// parseSerialNumbers decodes the serial-number field of an order item. It may
// be an array, a string holding a JSON array (sometimes encoded twice), or a
// plain literal. Anything that does not parse is kept as one literal string.
func parseSerialNumbers(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var list []flexString
	if err := json.Unmarshal(raw, &list); err == nil {
		return cleanSerials(list)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return []string{string(raw)}
	}
	return parseSerialString(s, 2)
}

func parseSerialString(s string, depth int) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if depth > 0 {
		var list []flexString
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			return cleanSerials(list)
		}
		var inner string
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			return parseSerialString(inner, depth-1)
		}
	}
	return []string{s}
}

func cleanSerials(list []flexString) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s := strings.TrimSpace(string(v)); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
