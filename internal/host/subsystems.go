package host

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

// ShapeError reports a subsystem present in the dump with an unexpected JSON
// type. Absent subsystems are not errors.
type ShapeError struct {
	Path string
	Want string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("host: %s is not %s", e.Path, e.Want)
}

// Expect checks the JSON type at path when it is present. want is "object"
// or "array".
func (s *State) Expect(path, want string) error {
	v := s.Raw(path)
	if !v.Exists() || v.Type == gjson.Null {
		return nil
	}
	if (want == "object" && !v.IsObject()) || (want == "array" && !v.IsArray()) {
		return &ShapeError{Path: path, Want: want}
	}
	return nil
}

// Pet is a pet and whether it has been found.
type Pet struct {
	snapshot.Ref
	Unlocked bool `json:"unlocked"`
}

// Pets returns every known pet.
func (s *State) Pets() []Pet {
	out := []Pet{}
	s.Raw("pets").ForEach(func(_, v gjson.Result) bool {
		out = append(out, Pet{Ref: RefOf(v), Unlocked: v.Get("unlocked").Bool()})
		return true
	})
	return out
}

// Completion returns the completion percentages keyed by category, in dump
// order.
func (s *State) Completion() gjson.Result {
	return s.Raw("completion")
}

// Township is the township summary.
type Township struct {
	Population float64        `json:"population"`
	Happiness  float64        `json:"happiness"`
	Education  float64        `json:"education"`
	Health     float64        `json:"health"`
	Worship    *snapshot.Ref  `json:"worship"`
	Buildings  []snapshot.Ref `json:"buildings"`
	Resources  []snapshot.Ref `json:"resources"`
}

// Township returns the township summary.
func (s *State) Township() Township {
	t := s.Raw("township")
	out := Township{
		Population: t.Get("population").Float(),
		Happiness:  t.Get("happiness").Float(),
		Education:  t.Get("education").Float(),
		Health:     t.Get("health").Float(),
		Buildings:  Refs(t.Get("buildings")),
		Resources:  Refs(t.Get("resources")),
	}
	if w := t.Get("worship"); w.IsObject() {
		ref := RefOf(w)
		out.Worship = &ref
	}
	return out
}

// Constellation is one astrology constellation and its modifier levels.
type Constellation struct {
	snapshot.Ref
	Standard []int64 `json:"standardModifiers"`
	Unique   []int64 `json:"uniqueModifiers"`
}

// Constellations returns the astrology progress.
func (s *State) Constellations() []Constellation {
	out := []Constellation{}
	s.Raw("astrology.constellations").ForEach(func(_, v gjson.Result) bool {
		out = append(out, Constellation{
			Ref:      RefOf(v),
			Standard: ints(v.Get("standardModifiers")),
			Unique:   ints(v.Get("uniqueModifiers")),
		})
		return true
	})
	return out
}

func ints(v gjson.Result) []int64 {
	out := []int64{}
	v.ForEach(func(_, n gjson.Result) bool {
		out = append(out, n.Int())
		return true
	})
	return out
}

// Purchases returns shop purchases with their counts.
func (s *State) Purchases() []snapshot.Ref {
	return Refs(s.Raw("shop.purchases"))
}

// Plot is one farming plot.
type Plot struct {
	ID       string        `json:"id"`
	Category string        `json:"category"`
	State    string        `json:"state"`
	Crop     *snapshot.Ref `json:"crop"`
	GrowthMs float64       `json:"growthMs"`
}

// Plots returns the farming plots.
func (s *State) Plots() []Plot {
	out := []Plot{}
	s.Raw("farming.plots").ForEach(func(_, v gjson.Result) bool {
		p := Plot{
			ID:       v.Get("id").String(),
			Category: v.Get("category").String(),
			State:    v.Get("state").String(),
			GrowthMs: v.Get("growthMs").Float(),
		}
		if c := v.Get("crop"); c.IsObject() {
			ref := RefOf(c)
			p.Crop = &ref
		}
		out = append(out, p)
		return true
	})
	return out
}

// Agility is the built course.
type Agility struct {
	Obstacles []snapshot.Ref `json:"obstacles"`
	Pillar    *snapshot.Ref  `json:"pillar"`
}

// Agility returns the built agility course.
func (s *State) Agility() Agility {
	a := s.Raw("agility")
	out := Agility{Obstacles: Refs(a.Get("obstacles"))}
	if p := a.Get("pillar"); p.IsObject() {
		ref := RefOf(p)
		out.Pillar = &ref
	}
	return out
}

// SlayerTask is the current slayer assignment.
type SlayerTask struct {
	Monster   *snapshot.Ref `json:"monster"`
	Category  string        `json:"category"`
	KillsLeft float64       `json:"killsLeft"`
	Extended  bool          `json:"extended"`
}

// SlayerTask returns the current slayer task; Monster is nil without one.
func (s *State) SlayerTask() SlayerTask {
	t := s.Raw("slayer.task")
	out := SlayerTask{
		Category:  t.Get("category").String(),
		KillsLeft: t.Get("killsLeft").Float(),
		Extended:  t.Get("extended").Bool(),
	}
	if m := t.Get("monster"); m.IsObject() {
		ref := RefOf(m)
		out.Monster = &ref
	}
	return out
}

// WorldMap is one cartography map's survey progress.
type WorldMap struct {
	snapshot.Ref
	Surveyed float64 `json:"surveyed"`
	Total    float64 `json:"total"`
}

// Maps returns cartography survey progress.
func (s *State) Maps() []WorldMap {
	out := []WorldMap{}
	s.Raw("cartography.maps").ForEach(func(_, v gjson.Result) bool {
		out = append(out, WorldMap{
			Ref:      RefOf(v),
			Surveyed: v.Get("surveyed").Float(),
			Total:    v.Get("total").Float(),
		})
		return true
	})
	return out
}
