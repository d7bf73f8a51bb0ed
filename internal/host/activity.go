package host

import (
	"github.com/tidwall/gjson"

	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

// ActivityKind is what the player is currently doing.
type ActivityKind string

const (
	ActivityIdle   ActivityKind = "idle"
	ActivityCombat ActivityKind = "combat"
	ActivitySkill  ActivityKind = "skill"
)

// Combat is the current combat target.
type Combat struct {
	Monster        snapshot.Ref
	Area           snapshot.Ref
	AreaFreeForAll bool
	KillCount      float64
}

// SkillAction is the current non-combat action.
type SkillAction struct {
	Skill              Skill
	Recipe             *snapshot.Ref
	MultiRecipe        bool
	ActionIntervalMs   float64
	PreservationChance float64
	Costs              []Cost
}

// Activity is the current activity. Exactly one of Combat and Skill is set
// unless Kind is ActivityIdle.
type Activity struct {
	Kind   ActivityKind
	Combat *Combat
	Skill  *SkillAction
}

// Activity reads the current activity. Unknown or incomplete activities are
// reported as idle.
func (s *State) Activity() Activity {
	a := s.Raw("activity")
	switch ActivityKind(a.Get("type").String()) {
	case ActivityCombat:
		monster := a.Get("monster")
		if !monster.Exists() {
			return Activity{Kind: ActivityIdle}
		}
		area := a.Get("area")
		return Activity{Kind: ActivityCombat, Combat: &Combat{
			Monster:        RefOf(monster),
			Area:           RefOf(area),
			AreaFreeForAll: area.Get("freeForAll").Bool(),
			KillCount:      a.Get("killCount").Float(),
		}}

	case ActivitySkill:
		skillID := a.Get("skill")
		if skillID.IsObject() {
			skillID = skillID.Get("id")
		}
		sk, ok := s.Skill(skillID.String())
		if !ok {
			return Activity{Kind: ActivityIdle}
		}
		action := &SkillAction{
			Skill:              sk,
			MultiRecipe:        a.Get("multiRecipe").Bool(),
			ActionIntervalMs:   a.Get("actionIntervalMs").Float(),
			PreservationChance: a.Get("preservationChance").Float(),
		}
		if recipe := a.Get("recipe"); recipe.IsObject() {
			ref := RefOf(recipe)
			ref.Quantity = 0
			action.Recipe = &ref
			action.Costs = s.resolveCosts(recipe)
		}
		return Activity{Kind: ActivitySkill, Skill: action}
	}
	return Activity{Kind: ActivityIdle}
}

// resolveCosts resolves costs and fills missing item names from the bank.
func (s *State) resolveCosts(recipe gjson.Result) []Cost {
	costs := RecipeCosts(recipe)
	for i := range costs {
		if costs[i].Item.Name == "" {
			costs[i].Item.Name = s.ItemName(costs[i].Item.ID)
		}
	}
	return costs
}
