// Package jsonv is the order-preserving JSON value model shared by the
// collector, diff, history and storage layers.
//
// A value is one of: nil, bool, float64, string, []any or *Object. Objects keep
// insertion order so that diffs computed from the same two inputs are always
// emitted in the same order.
package jsonv

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/iancoleman/orderedmap"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Object is an insertion-ordered JSON object.
type Object = orderedmap.OrderedMap

// ErrInvalid is returned by Parse when the input is not valid JSON.
var ErrInvalid = errors.New("invalid JSON document")

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return orderedmap.New()
}

// Parse decodes data into the ordered value model. Key order is the order in
// which keys appear in the document.
func Parse(data []byte) (any, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalid
	}
	return FromResult(gjson.ParseBytes(data)), nil
}

// FromResult converts a gjson result into the ordered value model. A missing
// result converts to nil.
func FromResult(r gjson.Result) any {
	switch r.Type {
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.Number:
		return r.Num
	case gjson.String:
		return r.Str
	case gjson.JSON:
		if r.IsArray() {
			out := make([]any, 0)
			r.ForEach(func(_, v gjson.Result) bool {
				out = append(out, FromResult(v))
				return true
			})
			return out
		}
		obj := NewObject()
		r.ForEach(func(k, v gjson.Result) bool {
			obj.Set(k.Str, FromResult(v))
			return true
		})
		return obj
	}
	return nil
}

// Normalize round-trips v through JSON so that structs, maps and numeric
// types all land in the ordered value model. The result shares nothing with
// v, which makes Normalize the deep clone used before diffing.
func Normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize value: %w", err)
	}
	return Parse(data)
}

// Clone is Normalize for values already known to be JSON-compatible. It
// returns nil when v cannot be encoded.
func Clone(v any) any {
	out, err := Normalize(v)
	if err != nil {
		return nil
	}
	return out
}

// Encode marshals v, optionally pretty-printed.
func Encode(v any, indent bool) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if indent {
		return pretty.Pretty(data), nil
	}
	return data, nil
}

// Compact strips insignificant whitespace from a JSON document.
func Compact(data []byte) []byte {
	return pretty.Ugly(data)
}

// AsObject reports whether v is an object and returns an ordered view of it.
// Plain maps are accepted too; their keys are visited in sorted order.
func AsObject(v any) (*Object, bool) {
	switch t := v.(type) {
	case *Object:
		return t, t != nil
	case Object:
		return &t, true
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			obj.Set(k, t[k])
		}
		return obj, true
	}
	return nil, false
}

// AsArray reports whether v is an array.
func AsArray(v any) ([]any, bool) {
	a, ok := v.([]any)
	return a, ok
}

// AsNumber reports whether v is numeric, widening Go integer types.
func AsNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// Keys returns a copy of the object's keys in order.
func Keys(o *Object) []string {
	if o == nil {
		return nil
	}
	src := o.Keys()
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Get returns the value stored under key, or nil.
func Get(o *Object, key string) any {
	if o == nil {
		return nil
	}
	v, _ := o.Get(key)
	return v
}

// Format renders v for human-readable change lines: numbers without trailing
// zeros, strings unquoted, composites as compact JSON.
func Format(v any) string {
	if n, ok := AsNumber(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
