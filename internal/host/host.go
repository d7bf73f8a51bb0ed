// Package host reads the game state dump written by the in-page bridge.
//
// The dump mirrors a live, versioned object graph whose schema is not under
// our control. Every accessor in this package treats every field as optional:
// a missing value yields a zero value or an empty collection, never an error.
// Callers outside this package never see raw JSON paths.
package host

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

// ErrInvalidDump is returned when the dump is not a JSON object.
var ErrInvalidDump = errors.New("host dump is not a JSON object")

// State is a read-only view over one host dump.
type State struct {
	root gjson.Result
}

// Parse wraps a dump already in memory.
func Parse(data []byte) (*State, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidDump
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, ErrInvalidDump
	}
	return &State{root: root}, nil
}

// Load reads and parses the dump at path.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read host dump: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Raw returns the subtree at path for sections that are passed through with
// light reshaping. The result may not exist.
func (s *State) Raw(path string) gjson.Result {
	if s == nil {
		return gjson.Result{}
	}
	return s.root.Get(path)
}

// Version is the host game version string.
func (s *State) Version() string {
	return s.Raw("version").String()
}

// Character holds the player-level scalars.
type Character struct {
	Name        string
	GameMode    string
	Hitpoints   float64
	GP          float64
	SlayerCoins float64
	RaidCoins   float64
	CombatLevel int
	BankSlots   int
}

// Character returns the player-level scalars.
func (s *State) Character() Character {
	c := s.Raw("character")
	return Character{
		Name:        c.Get("name").String(),
		GameMode:    c.Get("gameMode").String(),
		Hitpoints:   c.Get("hitpoints").Float(),
		GP:          c.Get("gp").Float(),
		SlayerCoins: c.Get("slayerCoins").Float(),
		RaidCoins:   c.Get("raidCoins").Float(),
		CombatLevel: int(c.Get("combatLevel").Int()),
		BankSlots:   int(c.Get("bankSlots").Int()),
	}
}

// Mastery is one recipe's mastery progress.
type Mastery struct {
	Ref   snapshot.Ref
	Level int
	XP    float64
}

// Skill is one skill's progress.
type Skill struct {
	Ref          snapshot.Ref
	Level        int
	XP           float64
	MaxLevel     int
	Unlocked     bool
	PoolXP       float64
	PoolCap      float64
	Masteries    []Mastery
	HasMasteries bool
}

// Skills returns every skill in dump order.
func (s *State) Skills() []Skill {
	var out []Skill
	s.Raw("skills").ForEach(func(_, v gjson.Result) bool {
		out = append(out, skillOf(v))
		return true
	})
	return out
}

// Skill looks a skill up by id, localID or name.
func (s *State) Skill(id string) (Skill, bool) {
	if id == "" {
		return Skill{}, false
	}
	var found Skill
	ok := false
	s.Raw("skills").ForEach(func(_, v gjson.Result) bool {
		if v.Get("id").String() == id || v.Get("localID").String() == id || v.Get("name").String() == id {
			found, ok = skillOf(v), true
			return false
		}
		return true
	})
	return found, ok
}

func skillOf(v gjson.Result) Skill {
	sk := Skill{
		Ref:      RefOf(v),
		Level:    int(v.Get("level").Int()),
		XP:       v.Get("xp").Float(),
		MaxLevel: int(v.Get("maxLevel").Int()),
		Unlocked: v.Get("unlocked").Bool(),
		PoolXP:   v.Get("masteryPoolXP").Float(),
		PoolCap:  v.Get("masteryPoolCap").Float(),
	}
	if sk.MaxLevel == 0 {
		sk.MaxLevel = 99
	}
	if m := v.Get("mastery"); m.IsArray() {
		sk.HasMasteries = true
		m.ForEach(func(_, mv gjson.Result) bool {
			sk.Masteries = append(sk.Masteries, Mastery{
				Ref:   RefOf(mv),
				Level: int(mv.Get("level").Int()),
				XP:    mv.Get("xp").Float(),
			})
			return true
		})
	}
	return sk
}

// MasteryFor returns the mastery entry of a recipe.
func (sk Skill) MasteryFor(recipeID string) (Mastery, bool) {
	for _, m := range sk.Masteries {
		if m.Ref.ID == recipeID {
			return m, true
		}
	}
	return Mastery{}, false
}

// Bank returns the bank contents in dump order.
func (s *State) Bank() []snapshot.Ref {
	return Refs(s.Raw("bank"))
}

// Stock returns the banked quantity of an item, 0 when absent.
func (s *State) Stock(itemID string) float64 {
	for _, r := range s.Bank() {
		if r.ID == itemID {
			return r.Quantity
		}
	}
	return 0
}

// ItemName resolves an item id to its display name through the bank, falling
// back to the id.
func (s *State) ItemName(itemID string) string {
	for _, r := range s.Bank() {
		if r.ID == itemID && r.Name != "" {
			return r.Name
		}
	}
	return itemID
}

// Slot is one equipment slot.
type Slot struct {
	Slot string
	Item snapshot.Ref
}

// Equipment returns the selected set index and every set's occupied slots.
func (s *State) Equipment() (selected int, sets [][]Slot) {
	e := s.Raw("equipment")
	selected = int(e.Get("selectedSet").Int())
	e.Get("sets").ForEach(func(_, set gjson.Result) bool {
		var slots []Slot
		set.Get("slots").ForEach(func(_, sl gjson.Result) bool {
			item := sl.Get("item")
			if !item.Exists() || item.Type == gjson.Null {
				return true
			}
			ref := RefOf(item)
			ref.Quantity = sl.Get("quantity").Float()
			slots = append(slots, Slot{Slot: sl.Get("slot").String(), Item: ref})
			return true
		})
		sets = append(sets, slots)
		return true
	})
	return selected, sets
}

// CombatStats are the game-wide cumulative combat counters.
type CombatStats struct {
	DamageDealt    float64
	DamageTaken    float64
	MonstersKilled float64
}

// CombatStats returns the game-wide combat counters.
func (s *State) CombatStats() CombatStats {
	c := s.Raw("stats.combat")
	return CombatStats{
		DamageDealt:    c.Get("damageDealt").Float(),
		DamageTaken:    c.Get("damageTaken").Float(),
		MonstersKilled: c.Get("monstersKilled").Float(),
	}
}

// RefOf reduces an entity to its stable triple. The id falls back to localID
// and the quantity to count.
func RefOf(v gjson.Result) snapshot.Ref {
	ref := snapshot.Ref{
		Name: v.Get("name").String(),
		ID:   v.Get("id").String(),
	}
	if ref.ID == "" {
		ref.ID = v.Get("localID").String()
	}
	if q := v.Get("quantity"); q.Exists() {
		ref.Quantity = q.Float()
	} else {
		ref.Quantity = v.Get("count").Float()
	}
	if v.Type == gjson.String {
		ref.ID = v.Str
	}
	return ref
}

// Refs reduces every element of an array to a Ref, skipping nulls.
func Refs(v gjson.Result) []snapshot.Ref {
	out := []snapshot.Ref{}
	v.ForEach(func(_, el gjson.Result) bool {
		if el.Type == gjson.Null {
			return true
		}
		out = append(out, RefOf(el))
		return true
	})
	return out
}
