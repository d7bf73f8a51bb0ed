package collector

import (
	"context"

	"github.com/fakeyudi/idlesnap/internal/eta"
	"github.com/fakeyudi/idlesnap/internal/host"
	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

// Activity is the activity section's value.
type Activity struct {
	Type   host.ActivityKind  `json:"type"`
	Target *snapshot.Ref      `json:"target,omitempty"`
	Combat *eta.CombatReading `json:"combat,omitempty"`
	Skill  *eta.SkillReading  `json:"skill,omitempty"`
}

// FeatureFunc returns the ETA features for the current cycle and whether
// rate tracking is on at all.
type FeatureFunc func() (eta.Features, bool)

// ActivitySection is the always-on current activity, measured by tr.
func ActivitySection(tr *eta.Tracker, features FeatureFunc) Section {
	return Section{Name: "activity", Collector: Func(func(_ context.Context, s *host.State) (any, error) {
		f, on := features()
		return CollectActivity(s, tr, f, on), nil
	})}
}

// CollectActivity reads the current activity and, when on, feeds it to tr.
func CollectActivity(s *host.State, tr *eta.Tracker, f eta.Features, on bool) Activity {
	a := s.Activity()
	out := Activity{Type: a.Kind}
	if a.Kind != host.ActivityCombat && on {
		tr.ClearCombat()
	}

	switch a.Kind {
	case host.ActivityCombat:
		monster := a.Combat.Monster
		out.Target = &monster
		if !on {
			break
		}
		stats := s.CombatStats()
		r := tr.ObserveCombat(eta.CombatSample{
			Monster:        a.Combat.Monster,
			Area:           a.Combat.Area,
			AreaFreeForAll: a.Combat.AreaFreeForAll,
			KillCount:      a.Combat.KillCount,
			DamageDealt:    stats.DamageDealt,
			DamageTaken:    stats.DamageTaken,
		}, f)
		out.Combat = &r

	case host.ActivitySkill:
		sk := a.Skill.Skill
		target := sk.Ref
		target.Quantity = 0
		out.Target = &target
		if !on {
			break
		}
		r := tr.ObserveSkill(skillSample(s, a.Skill), f)
		out.Skill = &r
	}
	return out
}

func skillSample(s *host.State, a *host.SkillAction) eta.SkillSample {
	sk := a.Skill
	sample := eta.SkillSample{
		Skill:              sk.Ref,
		Level:              sk.Level,
		MaxLevel:           sk.MaxLevel,
		XP:                 sk.XP,
		Recipe:             a.Recipe,
		MultiRecipe:        a.MultiRecipe,
		PoolXP:             sk.PoolXP,
		PoolCap:            sk.PoolCap,
		ActionIntervalMs:   a.ActionIntervalMs,
		PreservationChance: a.PreservationChance,
	}
	sample.Skill.Quantity = 0
	if a.Recipe != nil {
		if m, ok := sk.MasteryFor(a.Recipe.ID); ok {
			sample.Mastery = &eta.MasterySample{Level: m.Level, XP: m.XP}
		}
	}
	for _, c := range a.Costs {
		sample.Costs = append(sample.Costs, eta.CostSample{
			Item:      c.Item,
			PerAction: c.PerAction,
			Stock:     s.Stock(c.Item.ID),
		})
	}
	return sample
}
