// Package history keeps the bounded, timestamp-keyed log of changelogs
// produced by successive export cycles.
package history

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fakeyudi/idlesnap/internal/diff"
)

// Changelog is the result of one diffing export cycle.
type Changelog struct {
	Header  string        `json:"header"`
	Changes []diff.Change `json:"changes"`
}

// Lines renders the changelog as the header followed by one line per change.
func (c Changelog) Lines() []string {
	lines := make([]string, 0, len(c.Changes)+1)
	if c.Header != "" {
		lines = append(lines, c.Header)
	}
	for _, ch := range c.Changes {
		lines = append(lines, ch.String())
	}
	return lines
}

// Text is Lines joined by newlines.
func (c Changelog) Text() string {
	return strings.Join(c.Lines(), "\n")
}

// Entry is one keyed changelog.
type Entry struct {
	Key       string
	Changelog Changelog
}

// History is an insertion-ordered association list bounded by Max. Oldest
// entries are evicted first.
type History struct {
	max     int
	entries []Entry
}

// New returns an empty history bounded to max entries.
func New(max int) *History {
	if max < 0 {
		max = 0
	}
	return &History{max: max}
}

// Max returns the current bound.
func (h *History) Max() int { return h.max }

// SetMax changes the bound and evicts immediately if needed.
func (h *History) SetMax(max int) {
	if max < 0 {
		max = 0
	}
	h.max = max
	h.evict()
}

// Len returns the number of entries.
func (h *History) Len() int { return len(h.entries) }

// Push appends a changelog under key. An existing entry with the same key is
// replaced and moves to the end.
func (h *History) Push(key string, c Changelog) {
	h.remove(key)
	h.entries = append(h.entries, Entry{Key: key, Changelog: c})
	h.evict()
}

// Get returns the changelog stored under key.
func (h *History) Get(key string) (Changelog, bool) {
	for _, e := range h.entries {
		if e.Key == key {
			return e.Changelog, true
		}
	}
	return Changelog{}, false
}

// Keys returns the keys oldest first.
func (h *History) Keys() []string {
	keys := make([]string, len(h.entries))
	for i, e := range h.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the entries oldest first.
func (h *History) Entries() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Clone returns an independent copy with the same bound.
func (h *History) Clone() *History {
	return &History{max: h.max, entries: h.Entries()}
}

// Last returns the newest entry.
func (h *History) Last() (Entry, bool) {
	if len(h.entries) == 0 {
		return Entry{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// Clear drops every entry.
func (h *History) Clear() {
	h.entries = nil
}

func (h *History) remove(key string) {
	for i, e := range h.entries {
		if e.Key == key {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return
		}
	}
}

func (h *History) evict() {
	if over := len(h.entries) - h.max; over > 0 {
		h.entries = append([]Entry(nil), h.entries[over:]...)
	}
}

// MarshalJSON writes the history as an array of [key, changelog] pairs.
func (h *History) MarshalJSON() ([]byte, error) {
	pairs := make([][2]any, len(h.entries))
	for i, e := range h.entries {
		pairs[i] = [2]any{e.Key, e.Changelog}
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON reads the array-of-pairs form. The bound is not applied here;
// decode into New(max) and call SetMax to enforce it.
func (h *History) UnmarshalJSON(data []byte) error {
	var pairs []json.RawMessage
	if err := json.Unmarshal(data, &pairs); err != nil {
		return fmt.Errorf("decode history: %w", err)
	}
	entries := make([]Entry, 0, len(pairs))
	for i, raw := range pairs {
		var pair []json.RawMessage
		if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
			return fmt.Errorf("decode history: entry %d is not a [key, changelog] pair", i)
		}
		var e Entry
		if err := json.Unmarshal(pair[0], &e.Key); err != nil {
			return fmt.Errorf("decode history: entry %d key: %w", i, err)
		}
		if err := json.Unmarshal(pair[1], &e.Changelog); err != nil {
			return fmt.Errorf("decode history: entry %d changelog: %w", i, err)
		}
		entries = append(entries, e)
	}
	h.entries = entries
	return nil
}
