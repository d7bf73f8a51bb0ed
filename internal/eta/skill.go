package eta

import (
	"math"

	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

// MasteryMaxLevel caps recipe mastery projections.
const MasteryMaxLevel = 99

// MasterySample is the live mastery of the current recipe.
type MasterySample struct {
	Level int
	XP    float64
}

// SkillSample is the live state of the skill being trained.
type SkillSample struct {
	Skill       snapshot.Ref
	Level       int
	MaxLevel    int
	XP          float64
	Recipe      *snapshot.Ref
	MultiRecipe bool
	Mastery     *MasterySample
	PoolXP      float64
	PoolCap     float64
	// ActionIntervalMs and PreservationChance feed the costs reading.
	ActionIntervalMs   float64
	PreservationChance float64
	Costs              []CostSample
}

// Projection is the expected time to reach a level.
type Projection struct {
	Level     int     `json:"level"`
	XP        float64 `json:"xp"`
	Remaining float64 `json:"remaining"`
	Seconds   *int64  `json:"seconds"`
	At        int64   `json:"at,omitempty"` // unix ms
}

// MasteryReading is the mastery progress of the current recipe.
type MasteryReading struct {
	Level     int          `json:"level"`
	XP        float64      `json:"xp"`
	DiffXP    float64      `json:"diffXp"`
	XPPerHour Rate         `json:"xpPerHour"`
	Levels    []Projection `json:"levels"`
}

// PoolReading is the progress of the skill's mastery pool.
type PoolReading struct {
	XP        float64 `json:"xp"`
	Cap       float64 `json:"cap"`
	Percent   float64 `json:"percent"`
	DiffXP    float64 `json:"diffXp"`
	XPPerHour Rate    `json:"xpPerHour"`
}

// SkillReading is the XP rate of the current skill since its baseline.
type SkillReading struct {
	Skill     snapshot.Ref    `json:"skill"`
	Recipe    *snapshot.Ref   `json:"recipe,omitempty"`
	Level     int             `json:"level"`
	XP        float64         `json:"xp"`
	StartXP   float64         `json:"startXp"`
	DiffXP    float64         `json:"diffXp"`
	StartTime int64           `json:"startTime"`
	DiffTime  int64           `json:"diffTime"`
	XPPerHour Rate            `json:"xpPerHour"`
	Levels    []Projection    `json:"levels"`
	Mastery   *MasteryReading `json:"mastery,omitempty"`
	Pool      *PoolReading    `json:"pool,omitempty"`
	Costs     *CostReading    `json:"costs,omitempty"`
	Reset     bool            `json:"reset"`
}

type skillBaseline struct {
	SkillID        string   `json:"skillId"`
	StartLevel     int      `json:"startLevel"`
	RecipeID       string   `json:"recipeId,omitempty"`
	StartTime      int64    `json:"startTime"`
	UpdateTime     int64    `json:"updateTime"`
	StartXP        float64  `json:"startXp"`
	StartMastery   float64  `json:"startMasteryXp"`
	StartPool      float64  `json:"startPoolXp"`
	LastObserved   *float64 `json:"lastObserved,omitempty"`
	LastChangeTime int64    `json:"lastChangeTime,omitempty"`
}

func (b *skillBaseline) matches(s SkillSample) bool {
	if s.MultiRecipe {
		return true
	}
	if b.StartLevel != s.Level {
		return false
	}
	return s.Recipe == nil || b.RecipeID == s.Recipe.ID
}

func seedSkill(s SkillSample, now int64) *skillBaseline {
	xp := s.XP
	b := &skillBaseline{
		SkillID:        s.Skill.ID,
		StartLevel:     s.Level,
		StartTime:      now,
		UpdateTime:     now,
		StartXP:        s.XP,
		StartPool:      s.PoolXP,
		LastObserved:   &xp,
		LastChangeTime: now,
	}
	if s.Recipe != nil {
		b.RecipeID = s.Recipe.ID
	}
	if s.Mastery != nil {
		b.StartMastery = s.Mastery.XP
	}
	return b
}

// ObserveSkill measures XP rates for s. The first observation of a skill
// seeds its baseline. An observation whose level or recipe differs from the
// baseline deletes it; the next observation re-seeds. Both report zero
// deltas.
func (t *Tracker) ObserveSkill(s SkillSample, f Features) SkillReading {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.load()
	now := t.nowMs()
	key := s.Skill.ID

	b, ok := t.state.Skills[key]
	switch {
	case !ok:
		b = seedSkill(s, now)
		t.state.Skills[key] = b
		t.save()
		return t.zeroSkill(s, b, f, now)
	case !b.matches(s):
		delete(t.state.Skills, key)
		t.save()
		return t.zeroSkill(s, seedSkill(s, now), f, now)
	}

	b.UpdateTime = now
	end := now
	if f.GlobalEvents {
		if b.LastObserved == nil || *b.LastObserved != s.XP {
			xp := s.XP
			b.LastObserved = &xp
			b.LastChangeTime = now
		}
		// The rate runs from the start to the last change rather than from
		// the last change to now: now minus the last change would divide
		// the whole gain since the start by the idle time only.
		end = b.LastChangeTime
	}
	t.save()
	return t.skillReading(s, b, f, now, end, false)
}

func (t *Tracker) zeroSkill(s SkillSample, b *skillBaseline, f Features, now int64) SkillReading {
	return t.skillReading(s, b, f, now, b.StartTime, true)
}

// skillReading measures from the baseline start to end.
func (t *Tracker) skillReading(s SkillSample, b *skillBaseline, f Features, now, end int64, reset bool) SkillReading {
	deltaMs := end - b.StartTime
	r := SkillReading{
		Skill:     s.Skill,
		Recipe:    s.Recipe,
		Level:     s.Level,
		XP:        s.XP,
		StartXP:   b.StartXP,
		StartTime: b.StartTime,
		DiffTime:  deltaMs,
		Reset:     reset,
	}
	if !reset {
		r.DiffXP = s.XP - b.StartXP
	}
	r.XPPerHour = PerHour(r.DiffXP, deltaMs)

	maxLevel := s.MaxLevel
	if maxLevel <= 0 {
		maxLevel = 99
	}
	r.Levels = project(s.Level, maxLevel, s.XP, r.XPPerHour, levelsAhead(f), now)

	if f.Mastery && s.Mastery != nil {
		m := &MasteryReading{Level: s.Mastery.Level, XP: s.Mastery.XP}
		if !reset {
			m.DiffXP = s.Mastery.XP - b.StartMastery
		}
		m.XPPerHour = PerHour(m.DiffXP, deltaMs)
		m.Levels = project(s.Mastery.Level, MasteryMaxLevel, s.Mastery.XP, m.XPPerHour, levelsAhead(f), now)
		r.Mastery = m
	}
	if f.Mastery && s.PoolCap > 0 {
		p := &PoolReading{
			XP:      s.PoolXP,
			Cap:     s.PoolCap,
			Percent: math.Round(s.PoolXP/s.PoolCap*10000) / 100,
		}
		if !reset {
			p.DiffXP = s.PoolXP - b.StartPool
		}
		p.XPPerHour = PerHour(p.DiffXP, deltaMs)
		r.Pool = p
	}
	if f.Costs && len(s.Costs) > 0 {
		c := Costs(s.Costs, s.PreservationChance, s.ActionIntervalMs)
		r.Costs = &c
	}
	return r
}

func levelsAhead(f Features) int {
	if f.LevelsAhead <= 0 {
		return DefaultLevelsAhead
	}
	return f.LevelsAhead
}

// project returns the time to each of the next n levels after level, up to
// maxLevel.
func project(level, maxLevel int, xp float64, rate Rate, n int, now int64) []Projection {
	out := make([]Projection, 0, n)
	for l := level + 1; l <= level+n && l <= maxLevel && l <= MaxTableLevel; l++ {
		p := Projection{Level: l, XP: LevelXP(l)}
		p.Remaining = math.Max(p.XP-xp, 0)
		if secs, ok := SecondsTo(p.Remaining, rate); ok {
			p.Seconds = &secs
			p.At = now + secs*1000
		}
		out = append(out, p)
	}
	return out
}

// Notify records an externally observed XP change for skillID. It only
// affects trackers running with global events enabled.
func (t *Tracker) Notify(skillID string, xp float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.load()
	b, ok := t.state.Skills[skillID]
	if !ok {
		return
	}
	b.LastObserved = &xp
	b.LastChangeTime = t.nowMs()
	t.save()
}
