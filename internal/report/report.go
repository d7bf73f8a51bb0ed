// Package report renders export documents and changelogs for people: JSON
// and Markdown files that round-trip through their parsers, plain-text
// changelogs, and a summary shared by the terminal viewer.
package report

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"

	"github.com/fakeyudi/idlesnap/internal/jsonv"
	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

// SectionStatus describes one section of a document.
type SectionStatus struct {
	Name      string
	Available bool
	Entries   int // array length or object key count
}

// Summary is the human-facing digest of a document.
type Summary struct {
	Character   string
	GameMode    string
	GameVersion string
	GP          float64
	Exported    time.Time
	Full        bool
	ProcessMs   int64
	Activity    []string
	Sections    []SectionStatus
}

// Summarize digests doc.
func Summarize(doc *snapshot.Document) Summary {
	basics := section(doc, "basics")
	s := Summary{
		Character:   doc.Meta.Character,
		GameMode:    basics.Get("gameMode").String(),
		GameVersion: doc.Meta.GameVersion,
		GP:          basics.Get("gp").Float(),
		Exported:    time.UnixMilli(doc.Meta.Timestamp),
		Full:        doc.Meta.Full,
		ProcessMs:   doc.Meta.ProcessMs,
		Activity:    ActivityLines(section(doc, "activity")),
	}
	if s.Character == "" {
		s.Character = basics.Get("character").String()
	}
	for _, name := range doc.Names() {
		v, _ := doc.Section(name)
		st := SectionStatus{Name: name, Available: !snapshot.IsPlaceholder(v)}
		if arr, ok := jsonv.AsArray(v); ok {
			st.Entries = len(arr)
		} else if obj, ok := jsonv.AsObject(v); ok {
			st.Entries = len(jsonv.Keys(obj))
		}
		s.Sections = append(s.Sections, st)
	}
	return s
}

// section returns a document section as a gjson result.
func section(doc *snapshot.Document, name string) gjson.Result {
	v, ok := doc.Section(name)
	if !ok {
		return gjson.Result{}
	}
	data, err := jsonv.Encode(v, false)
	if err != nil {
		return gjson.Result{}
	}
	return gjson.ParseBytes(data)
}

// ActivityLines describes an activity section in a few lines.
func ActivityLines(a gjson.Result) []string {
	kind := a.Get("type").String()
	target := a.Get("target.name").String()
	if kind == "" || kind == "idle" {
		return []string{"Idle"}
	}
	lines := []string{fmt.Sprintf("%s: %s", humanizeKind(kind), target)}

	if c := a.Get("combat"); c.Exists() {
		lines = append(lines, fmt.Sprintf("%s kills in %s, %s",
			humanize.Commaf(c.Get("diffKillcount").Float()),
			duration(c.Get("diffTime").Int()/1000),
			perHour(c.Get("killsPerHour"), "kills")))
		if d := c.Get("damage"); d.Exists() {
			lines = append(lines, fmt.Sprintf("Damage %s dealt, %s taken",
				perHour(d.Get("damageDealtPerHour"), "dmg"),
				perHour(d.Get("damageTakenPerHour"), "dmg")))
		}
	}

	if sk := a.Get("skill"); sk.Exists() {
		if r := sk.Get("recipe.name"); r.Exists() {
			lines[0] += " (" + r.String() + ")"
		}
		lines = append(lines, fmt.Sprintf("Level %d, %s", sk.Get("level").Int(), perHour(sk.Get("xpPerHour"), "xp")))
		sk.Get("levels").ForEach(func(_, p gjson.Result) bool {
			lines = append(lines, projection("Level", p))
			return true
		})
		if m := sk.Get("mastery"); m.Exists() {
			lines = append(lines, fmt.Sprintf("Mastery %d, %s", m.Get("level").Int(), perHour(m.Get("xpPerHour"), "xp")))
		}
		if p := sk.Get("pool"); p.Exists() {
			lines = append(lines, fmt.Sprintf("Mastery pool %.2f%%", p.Get("percent").Float()))
		}
		if b := sk.Get("costs.bottleneck"); b.Exists() {
			line := fmt.Sprintf("Resources: %s actions left (%s)",
				humanize.Comma(b.Get("itemQteActions").Int()), b.Get("item.name").String())
			if ms := sk.Get("costs.timeLeftMs").Int(); ms > 0 {
				line += ", " + duration(ms/1000)
			}
			lines = append(lines, line)
		}
	}
	return lines
}

func humanizeKind(kind string) string {
	switch kind {
	case "combat":
		return "Fighting"
	case "skill":
		return "Training"
	}
	return snapshot.Title(kind)
}

func projection(label string, p gjson.Result) string {
	secs := p.Get("seconds")
	if secs.Type != gjson.Number {
		return fmt.Sprintf("%s %d: no progress", label, p.Get("level").Int())
	}
	return fmt.Sprintf("%s %d in %s", label, p.Get("level").Int(), duration(secs.Int()))
}

// perHour formats a rate; the "NaN" marker is shown as unknown.
func perHour(r gjson.Result, unit string) string {
	if r.Type != gjson.Number {
		return "? " + unit + "/h"
	}
	return humanize.Commaf(r.Float()) + " " + unit + "/h"
}

func duration(secs int64) string {
	return (time.Duration(secs) * time.Second).String()
}
