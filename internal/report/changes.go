package report

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/tidwall/pretty"

	"github.com/fakeyudi/idlesnap/internal/history"
	"github.com/fakeyudi/idlesnap/internal/jsonv"
)

// ChangelogText is the header followed by one line per change.
func ChangelogText(c history.Changelog) string {
	if len(c.Changes) == 0 {
		return c.Header + "\nNo changes."
	}
	return c.Text()
}

// WriteHistory writes every history entry as text, oldest first, separated
// by blank lines.
func WriteHistory(w io.Writer, h *history.History) error {
	var parts []string
	for _, e := range h.Entries() {
		parts = append(parts, ChangelogText(e.Changelog))
	}
	_, err := io.WriteString(w, strings.Join(parts, "\n\n")+"\n")
	return err
}

// HistoryJSON is the aggregate export of a history: an object keyed by
// entry key, oldest first.
func HistoryJSON(h *history.History) ([]byte, error) {
	out := jsonv.NewObject()
	for _, e := range h.Entries() {
		out.Set(e.Key, e.Changelog)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(data), nil
}
