// Package schema describes the persisted idlesnap documents as JSON Schema.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/fakeyudi/idlesnap/internal/collector"
	"github.com/fakeyudi/idlesnap/internal/eta"
	"github.com/fakeyudi/idlesnap/internal/history"
	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

// Definition names under $defs.
const (
	DefMeta      = "meta"
	DefChangelog = "changelog"
	DefHistory   = "changesHistory"
	DefActivity  = "activity"
)

var rateType = reflect.TypeOf(eta.Rate(0))

// rate is either a number or the "NaN" sentinel written before a second
// sample exists.
func rate() *jsonschema.Schema {
	return &jsonschema.Schema{
		Description: "Units per hour, or NaN before a rate can be measured.",
		OneOf: []*jsonschema.Schema{
			{Type: "number"},
			{Type: "string", Enum: []any{"NaN"}},
		},
	}
}

func reflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == rateType {
				return rate()
			}
			return nil
		},
	}
}

func reflect1(r *jsonschema.Reflector, v any, title, description string) *jsonschema.Schema {
	s := r.Reflect(v)
	s.Version = ""
	s.Title = title
	s.Description = description
	return s
}

// Build returns the root schema. Every persisted document is a definition;
// the export document itself is an open object whose meta key follows
// DefMeta.
func Build() *jsonschema.Schema {
	r := reflector()

	meta := reflect1(r, &snapshot.Meta{}, "Export metadata",
		"Describes the export cycle that produced a snapshot.")
	changelog := reflect1(r, &history.Changelog{}, "Changelog",
		"Header line and structural changes of one diffing export cycle.")
	activity := reflect1(r, &collector.Activity{}, "Activity",
		"Current activity with its combat or skill rate readings.")

	pair := &jsonschema.Schema{
		Type:        "array",
		Description: "A [key, changelog] pair; the key is the export timestamp in milliseconds.",
		Items: &jsonschema.Schema{
			OneOf: []*jsonschema.Schema{{Type: "string"}, changelog},
		},
	}
	hist := &jsonschema.Schema{
		Type:        "array",
		Title:       "Changes history",
		Description: "Bounded, oldest-first list of changelogs.",
		Items:       pair,
	}

	return &jsonschema.Schema{
		Version:              jsonschema.Version,
		Title:                "idlesnap export",
		Description:          "Full or quick export: one key per collected section plus meta.",
		Type:                 "object",
		AdditionalProperties: &jsonschema.Schema{},
		Definitions: jsonschema.Definitions{
			DefMeta:      meta,
			DefChangelog: changelog,
			DefHistory:   hist,
			DefActivity:  activity,
		},
	}
}

// Write encodes the root schema, indented, to path.
func Write(path string) error {
	data, err := json.MarshalIndent(Build(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	data = append(data, '\n')
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write schema: %w", err)
	}
	return nil
}
