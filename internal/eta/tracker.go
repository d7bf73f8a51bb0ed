// Package eta measures progress rates for the current activity and projects
// when the next milestones will be reached.
//
// A Tracker holds baselines: the counters observed when an activity started.
// Each observation compares the live counters against the baseline of the
// same activity; when the activity changes the baseline is reset.
package eta

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fakeyudi/idlesnap/internal/storage"
)

// BaselinesKey is the storage key the baselines persist under.
const BaselinesKey = "etaBaselines"

// DefaultLevelsAhead is how many upcoming levels are projected by default.
const DefaultLevelsAhead = 5

// Features toggles the optional parts of a reading. It is read per
// observation so configuration changes apply on the next cycle.
type Features struct {
	Damage       bool
	Mastery      bool
	Costs        bool
	GlobalEvents bool
	LevelsAhead  int
}

type baselines struct {
	Combat *combatBaseline           `json:"combat,omitempty"`
	Skills map[string]*skillBaseline `json:"skills,omitempty"`
}

// Tracker owns the combat baseline and one baseline per skill.
type Tracker struct {
	mu     sync.Mutex
	store  storage.Store
	now    func() time.Time
	log    *slog.Logger
	state  baselines
	loaded bool
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger used for persistence warnings.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

// New returns a Tracker persisting through store. A nil store keeps
// baselines in memory only.
func New(store storage.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store: store,
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *Tracker) nowMs() int64 {
	return t.now().UnixMilli()
}

// load reads persisted baselines once. Corrupt data is logged and dropped.
func (t *Tracker) load() {
	if t.loaded {
		return
	}
	t.loaded = true
	t.state = baselines{Skills: map[string]*skillBaseline{}}
	if t.store == nil {
		return
	}
	var b baselines
	err := storage.GetJSON(t.store, BaselinesKey, &b)
	switch {
	case err == nil:
		t.state = b
		if t.state.Skills == nil {
			t.state.Skills = map[string]*skillBaseline{}
		}
	case errors.Is(err, storage.ErrNotFound):
	default:
		t.log.Warn("eta: discarding stored baselines", "err", err)
	}
}

func (t *Tracker) save() {
	if t.store == nil {
		return
	}
	if err := storage.SetJSON(t.store, BaselinesKey, t.state); err != nil {
		t.log.Warn("eta: persisting baselines", "err", err)
	}
}

// Reset drops every baseline.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loaded = true
	t.state = baselines{Skills: map[string]*skillBaseline{}}
	if t.store != nil {
		if err := t.store.Remove(BaselinesKey); err != nil {
			t.log.Warn("eta: removing baselines", "err", err)
		}
	}
}
