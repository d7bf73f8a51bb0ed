// Package export runs export cycles: it collects a snapshot from the host
// dump, diffs it against the previous one, records the changes in a bounded
// history and persists both.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fakeyudi/idlesnap/internal/collector"
	"github.com/fakeyudi/idlesnap/internal/config"
	"github.com/fakeyudi/idlesnap/internal/diff"
	"github.com/fakeyudi/idlesnap/internal/eta"
	"github.com/fakeyudi/idlesnap/internal/history"
	"github.com/fakeyudi/idlesnap/internal/host"
	"github.com/fakeyudi/idlesnap/internal/jsonv"
	"github.com/fakeyudi/idlesnap/internal/snapshot"
	"github.com/fakeyudi/idlesnap/internal/storage"
)

// Storage keys, relative to the character namespace.
const (
	KeyExportData     = "exportData"
	KeyChangesHistory = "changesHistory"
)

// ErrNoExport is returned by the output surface before any full export
// exists for the active character.
var ErrNoExport = errors.New("no export available")

// LoadFunc returns the current host state.
type LoadFunc func(ctx context.Context) (*host.State, error)

// Options configures an Exporter.
type Options struct {
	Config   config.Source
	Store    storage.Store // un-namespaced; the exporter scopes it per character
	Load     LoadFunc
	Notifier Notifier
	Logger   *slog.Logger
	Now      func() time.Time
	Version  string
}

// Result is the outcome of one cycle.
type Result struct {
	Doc *snapshot.Document
	// Cached is true when a quick cycle returned the previous quick result.
	Cached bool
	// Key and Changelog are set when the cycle produced a history entry.
	Key       string
	Changelog *history.Changelog
}

// Exporter owns the current snapshot, the changes history and the rate
// tracker of every character it has seen.
type Exporter struct {
	mu       sync.Mutex
	opts     Options
	log      *slog.Logger
	now      func() time.Time
	notifier Notifier

	character string
	selected  bool
	current   *snapshot.Document // last full export of character
	history   *history.History   // nil until loaded
	quick     *snapshot.Document
	quickAt   time.Time
	trackers  map[string]*eta.Tracker
}

// New returns an Exporter.
func New(opts Options) *Exporter {
	e := &Exporter{
		opts:     opts,
		log:      opts.Logger,
		now:      opts.Now,
		notifier: opts.Notifier,
		trackers: make(map[string]*eta.Tracker),
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.notifier == nil {
		e.notifier = nopNotifier{}
	}
	if e.opts.Store == nil {
		e.opts.Store = storage.NewMemoryStore()
	}
	return e
}

// store returns the codec-wrapped store of one character.
func (e *Exporter) store(character string) storage.Store {
	return storage.WithCodec(storage.Namespaced(e.opts.Store, character), func() bool {
		return e.opts.Config.Current().Compress
	})
}

func (e *Exporter) tracker(character string) *eta.Tracker {
	tr, ok := e.trackers[character]
	if !ok {
		tr = eta.New(e.store(character), eta.WithClock(e.now), eta.WithLogger(e.log))
		e.trackers[character] = tr
	}
	return tr
}

// Select makes character the active character of the output surface. Run
// selects the character found in the dump.
func (e *Exporter) Select(character string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.selectLocked(character)
}

func (e *Exporter) selectLocked(character string) {
	if e.selected && character == e.character {
		return
	}
	e.selected = true
	e.character = character
	e.current = nil
	e.history = nil
	e.quick = nil
}

// Run performs one export cycle. A quick cycle collects only the always-on
// sections and is debounced by the configured quick buffer.
func (e *Exporter) Run(ctx context.Context, quick bool) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg := e.opts.Config.Current()
	state, err := e.opts.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading host state: %w", err)
	}
	character := state.Character().Name
	e.selectLocked(character)

	start := e.now()
	if quick && e.quick != nil && start.Sub(e.quickAt) < cfg.QuickBuffer {
		return &Result{Doc: e.quick, Cached: true}, nil
	}

	doc := snapshot.New()
	features := func() (eta.Features, bool) {
		return eta.Features{
			Damage:       cfg.ETA.Damage,
			Mastery:      cfg.ETA.Mastery,
			Costs:        cfg.ETA.Costs,
			GlobalEvents: cfg.ETA.GlobalEvents,
			LevelsAhead:  cfg.ETA.LevelsAhead,
		}, cfg.ETA.Enabled
	}
	for _, sec := range []collector.Section{collector.Basics(), collector.ActivitySection(e.tracker(character), features)} {
		v, _ := sec.Run(ctx, state, true, e.log)
		doc.Set(sec.Name, v)
	}
	if !quick {
		for _, sec := range collector.Optional() {
			v, _ := sec.Run(ctx, state, cfg.Enabled(sec.Name), e.log)
			doc.Set(sec.Name, v)
		}
	}

	end := e.now()
	doc.Meta = snapshot.Meta{
		ID:          uuid.NewString(),
		Timestamp:   end.UnixMilli(),
		ProcessMs:   end.Sub(start).Milliseconds(),
		BufferMs:    cfg.QuickBuffer.Milliseconds(),
		Full:        !quick,
		Character:   character,
		GameVersion: state.Version(),
		Version:     e.opts.Version,
	}

	res := &Result{Doc: doc}
	if quick {
		e.quick, e.quickAt = doc, start
		e.notifier.SnapshotReady(doc)
		return res, nil
	}

	store := e.store(character)
	if cfg.Changes.Enabled && cfg.Changes.Persist {
		if prev := e.previous(store); prev != nil {
			h := e.loadHistory(store, cfg.Changes.HistoryMax)
			key := nextKey(h, doc.Meta.Timestamp)
			c := history.Changelog{
				Header:  character + " - " + end.Format(time.DateTime),
				Changes: diff.Diff(prev.Sections, doc.Sections, ""),
			}
			h.Push(key, c)
			if err := storage.SetJSON(store, KeyChangesHistory, h); err != nil {
				e.log.Warn("persisting changes history", "err", err)
			}
			res.Key, res.Changelog = key, &c
		}
		if err := storage.SetJSON(store, KeyExportData, doc); err != nil {
			e.log.Warn("persisting export", "err", err)
		}
	}

	e.current = doc
	e.quick, e.quickAt = doc, start
	e.notifier.SnapshotReady(doc)
	if res.Changelog != nil {
		e.notifier.DiffReady(res.Key, *res.Changelog)
	}
	return res, nil
}

// nextKey returns the history key of an export taken at ts (unix ms). Keys
// strictly increase, so two exports in the same millisecond get distinct
// keys.
func nextKey(h *history.History, ts int64) string {
	if last, ok := h.Last(); ok {
		if n, err := strconv.ParseInt(last.Key, 10, 64); err == nil && ts <= n {
			ts = n + 1
		}
	}
	return strconv.FormatInt(ts, 10)
}

// previous returns the last full export, from memory or storage. Unreadable
// data is logged and treated as absent.
func (e *Exporter) previous(store storage.Store) *snapshot.Document {
	if e.current != nil {
		return e.current
	}
	data, err := store.Get(KeyExportData)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			e.log.Warn("discarding stored export", "err", err)
		}
		return nil
	}
	doc, err := snapshot.Parse(data)
	if err != nil {
		e.log.Warn("discarding stored export", "err", err)
		return nil
	}
	e.current = doc
	return doc
}

// loadHistory returns the in-memory history, loading it on first use.
func (e *Exporter) loadHistory(store storage.Store, max int) *history.History {
	if e.history == nil {
		h := history.New(max)
		if err := storage.GetJSON(store, KeyChangesHistory, h); err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				e.log.Warn("discarding stored changes history", "err", err)
			}
			h = history.New(max)
		}
		e.history = h
	}
	e.history.SetMax(max)
	return e.history
}

// ExportJSON returns the last full export of the active character.
func (e *Exporter) ExportJSON() (*snapshot.Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if doc := e.previous(e.store(e.character)); doc != nil {
		return doc, nil
	}
	return nil, ErrNoExport
}

// ExportString encodes the last full export, indented when pretty.
func (e *Exporter) ExportString(pretty bool) (string, error) {
	doc, err := e.ExportJSON()
	if err != nil {
		return "", err
	}
	data, err := jsonv.Encode(doc, pretty)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ChangesData returns the newest history entry.
func (e *Exporter) ChangesData() (history.Entry, error) {
	h, err := e.ChangesHistory()
	if err != nil {
		return history.Entry{}, err
	}
	last, ok := h.Last()
	if !ok {
		return history.Entry{}, ErrNoExport
	}
	return last, nil
}

// ChangesHistory returns a copy of the changes history of the active
// character.
func (e *Exporter) ChangesHistory() (*history.History, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cfg := e.opts.Config.Current()
	return e.loadHistory(e.store(e.character), cfg.Changes.HistoryMax).Clone(), nil
}

// ResetExportData forgets the last full export and the rate baselines; the
// next cycle is a cold start.
func (e *Exporter) ResetExportData() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.current = nil
	e.quick = nil
	e.tracker(e.character).Reset()
	if err := e.store(e.character).Remove(KeyExportData); err != nil {
		return fmt.Errorf("resetting export data: %w", err)
	}
	return nil
}

// ResetChangesHistory empties the changes history.
func (e *Exporter) ResetChangesHistory() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.history != nil {
		e.history.Clear()
	}
	if err := e.store(e.character).Remove(KeyChangesHistory); err != nil {
		return fmt.Errorf("resetting changes history: %w", err)
	}
	return nil
}
