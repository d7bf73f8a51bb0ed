package collector

import (
	"context"

	"github.com/tidwall/gjson"

	"github.com/fakeyudi/idlesnap/internal/host"
	"github.com/fakeyudi/idlesnap/internal/jsonv"
	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

// Basics is the always-on character summary.
func Basics() Section {
	return Section{Name: "basics", Collector: Func(collectBasics)}
}

type basics struct {
	Character   string  `json:"character"`
	GameMode    string  `json:"gameMode"`
	GameVersion string  `json:"gameVersion"`
	Hitpoints   float64 `json:"hitpoints"`
	GP          float64 `json:"gp"`
	SlayerCoins float64 `json:"slayerCoins"`
	RaidCoins   float64 `json:"raidCoins"`
	CombatLevel int     `json:"combatLevel"`
	BankSlots   int     `json:"bankSlots"`
}

func collectBasics(_ context.Context, s *host.State) (any, error) {
	if err := s.Expect("character", "object"); err != nil {
		return nil, err
	}
	c := s.Character()
	return basics{
		Character:   c.Name,
		GameMode:    c.GameMode,
		GameVersion: s.Version(),
		Hitpoints:   c.Hitpoints,
		GP:          c.GP,
		SlayerCoins: c.SlayerCoins,
		RaidCoins:   c.RaidCoins,
		CombatLevel: c.CombatLevel,
		BankSlots:   c.BankSlots,
	}, nil
}

// Optional returns the optional sections in export order.
func Optional() []Section {
	return []Section{
		{Name: "skills", Optional: true, Collector: Func(collectSkills)},
		{Name: "mastery", Optional: true, Collector: Func(collectMastery)},
		{Name: "bank", Optional: true, Collector: shaped("bank", "array", func(s *host.State) any { return s.Bank() })},
		{Name: "equipment", Optional: true, Collector: Func(collectEquipment)},
		{Name: "stats", Optional: true, Collector: shaped("stats", "object", func(s *host.State) any { return raw(s.Raw("stats")) })},
		{Name: "astrology", Optional: true, Collector: shaped("astrology", "object", func(s *host.State) any { return s.Constellations() })},
		{Name: "township", Optional: true, Collector: shaped("township", "object", func(s *host.State) any { return s.Township() })},
		{Name: "pets", Optional: true, Collector: shaped("pets", "array", func(s *host.State) any { return s.Pets() })},
		{Name: "completion", Optional: true, Collector: shaped("completion", "object", func(s *host.State) any { return raw(s.Completion()) })},
		{Name: "shop", Optional: true, Collector: shaped("shop", "object", func(s *host.State) any { return s.Purchases() })},
		{Name: "farming", Optional: true, Collector: shaped("farming", "object", func(s *host.State) any { return s.Plots() })},
		{Name: "agility", Optional: true, Collector: shaped("agility", "object", func(s *host.State) any { return s.Agility() })},
		{Name: "slayer", Optional: true, Collector: shaped("slayer", "object", func(s *host.State) any { return s.SlayerTask() })},
		{Name: "cartography", Optional: true, Collector: shaped("cartography", "object", func(s *host.State) any { return s.Maps() })},
	}
}

// shaped checks the dump type at path before reading it with fn.
func shaped(path, want string, fn func(*host.State) any) Collector {
	return Func(func(_ context.Context, s *host.State) (any, error) {
		if err := s.Expect(path, want); err != nil {
			return nil, err
		}
		return fn(s), nil
	})
}

// raw converts a dump subtree, keeping key order. Absent subtrees become an
// empty object.
func raw(v gjson.Result) any {
	if !v.Exists() {
		return jsonv.NewObject()
	}
	return jsonv.FromResult(v)
}

type skillOut struct {
	snapshot.Ref
	Level    int     `json:"level"`
	XP       float64 `json:"xp"`
	MaxLevel int     `json:"maxLevel"`
	Unlocked bool    `json:"unlocked"`
}

func collectSkills(_ context.Context, s *host.State) (any, error) {
	if err := s.Expect("skills", "array"); err != nil {
		return nil, err
	}
	out := []skillOut{}
	for _, sk := range s.Skills() {
		ref := sk.Ref
		ref.Quantity = 0
		out = append(out, skillOut{Ref: ref, Level: sk.Level, XP: sk.XP, MaxLevel: sk.MaxLevel, Unlocked: sk.Unlocked})
	}
	return out, nil
}

type masteryOut struct {
	Skill       string         `json:"skill"`
	PoolXP      float64        `json:"poolXp"`
	PoolCap     float64        `json:"poolCap"`
	PoolPercent float64        `json:"poolPercent"`
	Recipes     []recipeLevels `json:"recipes"`
}

type recipeLevels struct {
	Name  string  `json:"name"`
	ID    string  `json:"id"`
	Level int     `json:"level"`
	XP    float64 `json:"xp"`
}

func collectMastery(_ context.Context, s *host.State) (any, error) {
	if err := s.Expect("skills", "array"); err != nil {
		return nil, err
	}
	out := []masteryOut{}
	for _, sk := range s.Skills() {
		if !sk.HasMasteries {
			continue
		}
		m := masteryOut{Skill: sk.Ref.Name, PoolXP: sk.PoolXP, PoolCap: sk.PoolCap, Recipes: []recipeLevels{}}
		if sk.PoolCap > 0 {
			m.PoolPercent = float64(int64(sk.PoolXP/sk.PoolCap*10000+0.5)) / 100
		}
		for _, r := range sk.Masteries {
			m.Recipes = append(m.Recipes, recipeLevels{Name: r.Ref.Name, ID: r.Ref.ID, Level: r.Level, XP: r.XP})
		}
		out = append(out, m)
	}
	return out, nil
}

type equipmentOut struct {
	SelectedSet int         `json:"selectedSet"`
	Sets        [][]slotOut `json:"sets"`
}

type slotOut struct {
	Slot string       `json:"slot"`
	Item snapshot.Ref `json:"item"`
}

func collectEquipment(_ context.Context, s *host.State) (any, error) {
	if err := s.Expect("equipment", "object"); err != nil {
		return nil, err
	}
	selected, sets := s.Equipment()
	out := equipmentOut{SelectedSet: selected, Sets: [][]slotOut{}}
	for _, set := range sets {
		slots := []slotOut{}
		for _, sl := range set {
			slots = append(slots, slotOut{Slot: sl.Slot, Item: sl.Item})
		}
		out.Sets = append(out.Sets, slots)
	}
	return out, nil
}
