// Package snapshot defines the export document: a tree of independently
// collected sections plus the metadata of the cycle that produced it.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tidwall/gjson"

	"github.com/fakeyudi/idlesnap/internal/jsonv"
)

// MetaKey is the top-level key the metadata is written under.
const MetaKey = "meta"

// Ref is the stable, serializable reduction of a host entity (item, monster,
// skill, recipe). Live host objects never reach the snapshot.
type Ref struct {
	Name     string  `json:"name"`
	ID       string  `json:"id"`
	Quantity float64 `json:"quantity"`
}

// Meta describes one export cycle.
type Meta struct {
	ID          string `json:"id"`
	Timestamp   int64  `json:"timestamp"` // unix ms
	ProcessMs   int64  `json:"processMs"`
	BufferMs    int64  `json:"bufferMs"`
	Full        bool   `json:"full"`
	Character   string `json:"character"`
	GameVersion string `json:"gameVersion"`
	Version     string `json:"version"`
}

// Document is a full or quick export.
type Document struct {
	Sections *jsonv.Object
	Meta     Meta
}

// New returns an empty document.
func New() *Document {
	return &Document{Sections: jsonv.NewObject()}
}

// Set stores a section value, keeping first-insertion order.
func (d *Document) Set(name string, v any) {
	d.Sections.Set(name, v)
}

// Section returns the named section.
func (d *Document) Section(name string) (any, bool) {
	if d == nil || d.Sections == nil {
		return nil, false
	}
	return d.Sections.Get(name)
}

// Names returns the section names in collection order.
func (d *Document) Names() []string {
	return jsonv.Keys(d.Sections)
}

// MarshalJSON writes the sections in order followed by the metadata.
func (d *Document) MarshalJSON() ([]byte, error) {
	out := jsonv.NewObject()
	for _, k := range d.Names() {
		out.Set(k, jsonv.Get(d.Sections, k))
	}
	out.Set(MetaKey, d.Meta)
	return json.Marshal(out)
}

// Parse reads a document previously written by MarshalJSON.
func Parse(data []byte) (*Document, error) {
	v, err := jsonv.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse export document: %w", err)
	}
	obj, ok := v.(*jsonv.Object)
	if !ok {
		return nil, errors.New("parse export document: top level is not an object")
	}
	doc := New()
	for _, k := range jsonv.Keys(obj) {
		if k == MetaKey {
			continue
		}
		doc.Set(k, jsonv.Get(obj, k))
	}
	if raw := gjson.GetBytes(data, MetaKey); raw.IsObject() {
		if err := json.Unmarshal([]byte(raw.Raw), &doc.Meta); err != nil {
			return nil, fmt.Errorf("parse export metadata: %w", err)
		}
	}
	return doc, nil
}

// Placeholder is the marker stored in place of a disabled or failed section.
func Placeholder(section string) *jsonv.Object {
	o := jsonv.NewObject()
	o.Set("info", Title(section)+" data unavailable")
	return o
}

// IsPlaceholder reports whether v is a Placeholder marker.
func IsPlaceholder(v any) bool {
	o, ok := v.(*jsonv.Object)
	if !ok || len(o.Keys()) != 1 {
		return false
	}
	s, ok := jsonv.Get(o, "info").(string)
	return ok && strings.HasSuffix(s, " data unavailable")
}

// Title upper-cases the first letter of a section name.
func Title(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
