package report

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/fakeyudi/idlesnap/internal/jsonv"
	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

// Renderer serializes a document to bytes.
type Renderer interface {
	Render(doc *snapshot.Document) ([]byte, error)
	Ext() string
}

// RendererFor returns the renderer of a format name; anything but "json"
// is Markdown.
func RendererFor(format string) Renderer {
	if format == "json" {
		return &JSONRenderer{}
	}
	return &MarkdownRenderer{}
}

// JSONRenderer renders a document as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(doc *snapshot.Document) ([]byte, error) {
	return jsonv.Encode(doc, true)
}

func (r *JSONRenderer) Ext() string { return ".json" }

const (
	versionSentinel = "<!-- idlesnap-export-version: 1 -->"
	dataPrefix      = "<!-- idlesnap-data: "
	dataSuffix      = " -->"
)

// MarkdownRenderer renders a document as human-readable Markdown with an
// embedded base64 JSON payload for lossless round-trip parsing.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Ext() string { return ".md" }

func (r *MarkdownRenderer) Render(doc *snapshot.Document) ([]byte, error) {
	data, err := jsonv.Encode(doc, false)
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)
	s := Summarize(doc)

	var sb strings.Builder

	// Sentinel and embedded payload.
	sb.WriteString(versionSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, encoded, dataSuffix)

	fmt.Fprintf(&sb, "# idlesnap: %s, %s\n\n", s.Character, s.Exported.Format("2006-01-02 15:04:05 MST"))

	sb.WriteString("## Summary\n\n")
	if s.GameMode != "" {
		fmt.Fprintf(&sb, "- Game mode: %s\n", s.GameMode)
	}
	fmt.Fprintf(&sb, "- GP: %s\n", humanize.Commaf(s.GP))
	fmt.Fprintf(&sb, "- Game version: %s\n", s.GameVersion)
	kind := "quick"
	if s.Full {
		kind = "full"
	}
	fmt.Fprintf(&sb, "- Export: %s, %d ms\n\n", kind, s.ProcessMs)

	sb.WriteString("## Activity\n\n")
	for _, line := range s.Activity {
		fmt.Fprintf(&sb, "- %s\n", line)
	}
	sb.WriteString("\n")

	sb.WriteString("## Sections\n\n")
	sb.WriteString("| Section | Status | Entries |\n")
	sb.WriteString("|---------|--------|---------|\n")
	for _, st := range s.Sections {
		status := "ok"
		if !st.Available {
			status = "_unavailable_"
		}
		fmt.Fprintf(&sb, "| %s | %s | %d |\n", st.Name, status, st.Entries)
	}
	sb.WriteString("\n")

	if skills := section(doc, "skills"); skills.IsArray() {
		sb.WriteString("## Skills\n\n")
		sb.WriteString("| Skill | Level | XP |\n")
		sb.WriteString("|-------|-------|----|\n")
		for _, sk := range skills.Array() {
			fmt.Fprintf(&sb, "| %s | %d | %s |\n",
				sk.Get("name").String(), sk.Get("level").Int(), humanize.Commaf(sk.Get("xp").Float()))
		}
		sb.WriteString("\n")
	}

	for _, name := range doc.Names() {
		if name == "basics" || name == "activity" || name == "skills" {
			continue
		}
		v, _ := doc.Section(name)
		if snapshot.IsPlaceholder(v) {
			continue
		}
		body, err := jsonv.Encode(v, true)
		if err != nil {
			return nil, fmt.Errorf("marshal section %s: %w", name, err)
		}
		fmt.Fprintf(&sb, "## %s\n\n```json\n%s```\n\n", snapshot.Title(name), body)
	}

	return []byte(sb.String()), nil
}

// Filename returns the export file name of a document written at t.
func Filename(t time.Time, r Renderer) string {
	return "idlesnap-" + t.UTC().Format("20060102T150405Z") + r.Ext()
}
