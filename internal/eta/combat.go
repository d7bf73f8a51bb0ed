package eta

import "github.com/fakeyudi/idlesnap/internal/snapshot"

// CombatSample is the live combat state.
type CombatSample struct {
	Monster        snapshot.Ref
	Area           snapshot.Ref
	AreaFreeForAll bool
	KillCount      float64
	// Game-wide statistics counters.
	DamageDealt float64
	DamageTaken float64
}

// DamageReading is damage throughput since the baseline.
type DamageReading struct {
	DiffDealt    float64 `json:"diffDamageDealt"`
	DiffTaken    float64 `json:"diffDamageTaken"`
	DealtPerHour Rate    `json:"damageDealtPerHour"`
	TakenPerHour Rate    `json:"damageTakenPerHour"`
}

// CombatReading is the kill rate since the baseline.
type CombatReading struct {
	Monster        snapshot.Ref   `json:"monster"`
	Area           snapshot.Ref   `json:"area"`
	KillCount      float64        `json:"killcount"`
	StartKillCount float64        `json:"startKillcount"`
	DiffKillCount  float64        `json:"diffKillcount"`
	StartTime      int64          `json:"startTime"`
	DiffTime       int64          `json:"diffTime"`
	KillsPerHour   Rate           `json:"killsPerHour"`
	Damage         *DamageReading `json:"damage,omitempty"`
	Reset          bool           `json:"reset"`
}

type combatBaseline struct {
	MonsterID        string   `json:"monsterId"`
	AreaID           string   `json:"areaId"`
	StartTime        int64    `json:"startTime"`
	UpdateTime       int64    `json:"updateTime"`
	StartKillCount   *float64 `json:"startKillcount"`
	StartDamageDealt *float64 `json:"startDamageDealt"`
	StartDamageTaken *float64 `json:"startDamageTaken"`
}

func (b *combatBaseline) valid() bool {
	return b != nil &&
		b.StartKillCount != nil &&
		b.StartDamageDealt != nil &&
		b.StartDamageTaken != nil &&
		b.StartTime > 0 &&
		b.UpdateTime > 0
}

// matches reports whether s continues the activity b was seeded for: the
// same monster, or the same area unless that area is free-for-all.
func (b *combatBaseline) matches(s CombatSample) bool {
	if !b.valid() {
		return false
	}
	if b.MonsterID != "" && b.MonsterID == s.Monster.ID {
		return true
	}
	return b.AreaID != "" && b.AreaID == s.Area.ID && !s.AreaFreeForAll
}

func seedCombat(s CombatSample, now int64) *combatBaseline {
	kills, dealt, taken := s.KillCount, s.DamageDealt, s.DamageTaken
	return &combatBaseline{
		MonsterID:        s.Monster.ID,
		AreaID:           s.Area.ID,
		StartTime:        now,
		UpdateTime:       now,
		StartKillCount:   &kills,
		StartDamageDealt: &dealt,
		StartDamageTaken: &taken,
	}
}

// ObserveCombat measures the kill rate for s. A sample that does not
// continue the stored baseline resets it and reports zero deltas.
func (t *Tracker) ObserveCombat(s CombatSample, f Features) CombatReading {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.load()
	now := t.nowMs()

	b := t.state.Combat
	reset := !b.matches(s)
	if reset {
		b = seedCombat(s, now)
		t.state.Combat = b
	} else {
		b.UpdateTime = now
		b.MonsterID = s.Monster.ID
	}
	t.save()

	r := CombatReading{
		Monster:        s.Monster,
		Area:           s.Area,
		KillCount:      s.KillCount,
		StartKillCount: *b.StartKillCount,
		DiffKillCount:  s.KillCount - *b.StartKillCount,
		StartTime:      b.StartTime,
		DiffTime:       now - b.StartTime,
		Reset:          reset,
	}
	r.KillsPerHour = PerHour(r.DiffKillCount, r.DiffTime)
	if f.Damage {
		d := &DamageReading{
			DiffDealt: s.DamageDealt - *b.StartDamageDealt,
			DiffTaken: s.DamageTaken - *b.StartDamageTaken,
		}
		d.DealtPerHour = perHour2(d.DiffDealt, r.DiffTime)
		d.TakenPerHour = perHour2(d.DiffTaken, r.DiffTime)
		r.Damage = d
	}
	return r
}

// ClearCombat drops the combat baseline. Call it when the player stops
// fighting.
func (t *Tracker) ClearCombat() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.load()
	if t.state.Combat == nil {
		return
	}
	t.state.Combat = nil
	t.save()
}
