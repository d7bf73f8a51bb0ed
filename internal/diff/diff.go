// Package diff compares two JSON-compatible trees and emits an ordered
// changelog.
package diff

import (
	"fmt"
	"math"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/fakeyudi/idlesnap/internal/jsonv"
)

// Type is the kind of a change record.
type Type string

const (
	Added   Type = "added"
	Removed Type = "removed"
	Updated Type = "updated"
)

// percentCap suppresses percent annotations above this magnitude; they come
// from divisions by tiny old values and carry no information.
const percentCap = 1000

// Change is one entry of a changelog.
type Change struct {
	Type    Type   `json:"type"`
	Path    string `json:"path"`
	Old     any    `json:"old,omitempty"`
	New     any    `json:"new,omitempty"`
	Percent string `json:"percent,omitempty"`
}

// UnmarshalJSON decodes old and new into the ordered value model, so a
// change read back from storage renders like the one that was written.
func (c *Change) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return jsonv.ErrInvalid
	}
	r := gjson.ParseBytes(data)
	if !r.IsObject() {
		return fmt.Errorf("change is not an object: %.40s", data)
	}
	*c = Change{
		Type:    Type(r.Get("type").String()),
		Path:    r.Get("path").String(),
		Old:     jsonv.FromResult(r.Get("old")),
		New:     jsonv.FromResult(r.Get("new")),
		Percent: r.Get("percent").String(),
	}
	return nil
}

// String renders the change as one human-readable line.
func (c Change) String() string {
	switch c.Type {
	case Added:
		return fmt.Sprintf("+ %s: %s", c.Path, jsonv.Format(c.New))
	case Removed:
		return fmt.Sprintf("- %s: %s", c.Path, jsonv.Format(c.Old))
	}
	line := fmt.Sprintf("~ %s: %s -> %s", c.Path, jsonv.Format(c.Old), jsonv.Format(c.New))
	if c.Percent != "" {
		line += " (" + c.Percent + ")"
	}
	return line
}

// Diff compares previous and current and returns the changes in traversal
// order. The result is never nil.
//
// Arrays are paired element by element through Identity. Objects report
// removals in previous's key order, then additions and updates in current's
// key order. Scalars compare strictly: 1 and "1" differ.
//
// An array compared against an object is walked as an index-keyed object
// rather than as an array; an array compared against a scalar is a single
// update.
func Diff(previous, current any, prefix string) []Change {
	out := make([]Change, 0)
	return walk(out, previous, current, prefix)
}

func walk(out []Change, previous, current any, path string) []Change {
	pa, prevIsArray := jsonv.AsArray(previous)
	ca, curIsArray := jsonv.AsArray(current)
	if prevIsArray && curIsArray {
		return walkArrays(out, pa, ca, path)
	}

	po, prevIsObj := objectLike(previous)
	co, curIsObj := objectLike(current)
	if prevIsObj && curIsObj {
		return walkObjects(out, po, co, path)
	}

	if !Equal(previous, current) {
		out = append(out, update(path, previous, current))
	}
	return out
}

func walkObjects(out []Change, previous, current *jsonv.Object, path string) []Change {
	for _, k := range previous.Keys() {
		if _, ok := current.Get(k); !ok {
			out = append(out, Change{Type: Removed, Path: join(path, k), Old: jsonv.Get(previous, k)})
		}
	}
	for _, k := range current.Keys() {
		cur := jsonv.Get(current, k)
		prev, ok := previous.Get(k)
		if !ok {
			out = append(out, Change{Type: Added, Path: join(path, k), New: cur})
			continue
		}
		if composite(prev) && composite(cur) {
			out = walk(out, prev, cur, join(path, k))
			continue
		}
		if !Equal(prev, cur) {
			out = append(out, update(join(path, k), prev, cur))
		}
	}
	return out
}

func walkArrays(out []Change, previous, current []any, path string) []Change {
	prevKeys, prevOK := identities(previous)
	curKeys, curOK := identities(current)
	if !prevOK || !curOK {
		prevKeys = positions(len(previous))
		curKeys = positions(len(current))
	}

	inCurrent := make(map[string]int, len(current))
	for i, k := range curKeys {
		inCurrent[k] = i
	}
	inPrevious := make(map[string]int, len(previous))
	for i, k := range prevKeys {
		inPrevious[k] = i
	}

	for i, k := range prevKeys {
		if _, ok := inCurrent[k]; !ok {
			out = append(out, Change{Type: Removed, Path: join(path, k), Old: previous[i]})
		}
	}
	for i, k := range curKeys {
		j, ok := inPrevious[k]
		if !ok {
			out = append(out, Change{Type: Added, Path: join(path, k), New: current[i]})
			continue
		}
		out = walk(out, previous[j], current[i], join(path, k))
	}
	return out
}

// Identity returns the pairing key of an array element: its id, else its
// localID, else its name. ok is false when none is present.
func Identity(v any) (key string, ok bool) {
	o, isObj := v.(*jsonv.Object)
	if !isObj {
		return "", false
	}
	for _, field := range []string{"id", "localID", "name"} {
		if raw, present := o.Get(field); present && raw != nil {
			if s := scalarKey(raw); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// identities computes the pairing keys of every element. ok is false when an
// element has no identity or two elements share one, in which case the caller
// pairs by position.
func identities(arr []any) ([]string, bool) {
	keys := make([]string, len(arr))
	seen := make(map[string]bool, len(arr))
	for i, el := range arr {
		k, ok := Identity(el)
		if !ok || seen[k] {
			return nil, false
		}
		seen[k] = true
		keys[i] = k
	}
	return keys, true
}

func positions(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = "[" + strconv.Itoa(i) + "]"
	}
	return keys
}

func scalarKey(v any) string {
	if n, ok := jsonv.AsNumber(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}

func update(path string, previous, current any) Change {
	c := Change{Type: Updated, Path: path, Old: previous, New: current}
	oldN, okOld := jsonv.AsNumber(previous)
	newN, okNew := jsonv.AsNumber(current)
	if okOld && okNew {
		c.Percent = Percent(oldN, newN)
	}
	return c
}

// Percent formats the relative change from old to new, or returns "" when old
// is zero or the magnitude exceeds the cap.
func Percent(old, new float64) string {
	if old == 0 {
		return ""
	}
	pct := (new - old) / math.Abs(old) * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) || math.Abs(pct) > percentCap {
		return ""
	}
	return fmt.Sprintf("%+.2f%%", pct)
}

// Equal is strict scalar equality; composites are equal when they encode to
// the same JSON.
func Equal(a, b any) bool {
	an, aNum := jsonv.AsNumber(a)
	bn, bNum := jsonv.AsNumber(b)
	if aNum || bNum {
		return aNum && bNum && an == bn
	}
	switch at := a.(type) {
	case nil:
		return b == nil
	case string:
		bt, ok := b.(string)
		return ok && at == bt
	case bool:
		bt, ok := b.(bool)
		return ok && at == bt
	}
	if b == nil {
		return false
	}
	if _, ok := b.(string); ok {
		return false
	}
	if _, ok := b.(bool); ok {
		return false
	}
	ae, err1 := jsonv.Encode(a, false)
	be, err2 := jsonv.Encode(b, false)
	return err1 == nil && err2 == nil && string(ae) == string(be)
}

func composite(v any) bool {
	if _, ok := jsonv.AsArray(v); ok {
		return true
	}
	_, ok := jsonv.AsObject(v)
	return ok
}

// objectLike views objects as themselves and arrays as index-keyed objects.
func objectLike(v any) (*jsonv.Object, bool) {
	if o, ok := jsonv.AsObject(v); ok {
		return o, true
	}
	arr, ok := jsonv.AsArray(v)
	if !ok {
		return nil, false
	}
	o := jsonv.NewObject()
	for i, el := range arr {
		o.Set(strconv.Itoa(i), el)
	}
	return o, true
}

// join extends a path: dotted for keys, bracketed for positions.
func join(prefix, key string) string {
	if prefix == "" || (len(key) > 0 && key[0] == '[') {
		return prefix + key
	}
	return prefix + "." + key
}
