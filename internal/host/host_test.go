package host_test

import (
	"testing"

	"github.com/fakeyudi/idlesnap/internal/host"
	"github.com/fakeyudi/idlesnap/internal/host/hosttest"
)

func TestParseRejectsNonObject(t *testing.T) {
	for _, in := range []string{"", "[1,2]", "42", "{broken"} {
		if _, err := host.Parse([]byte(in)); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestMissingFieldsYieldZeroValues(t *testing.T) {
	s, err := host.Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c := s.Character(); c.Name != "" || c.GP != 0 {
		t.Errorf("expected zero character, got %+v", c)
	}
	if got := s.Bank(); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil bank, got %#v", got)
	}
	if a := s.Activity(); a.Kind != host.ActivityIdle {
		t.Errorf("expected idle activity, got %v", a.Kind)
	}
	if _, ok := s.Skill("melvorD:Woodcutting"); ok {
		t.Error("expected no skill in empty dump")
	}
}

func TestCharacterAndSkills(t *testing.T) {
	s := hosttest.State(t, hosttest.Dump())
	if got := s.Character().Name; got != "Hero" {
		t.Errorf("Name: want Hero, got %q", got)
	}
	sk, ok := s.Skill("Woodcutting")
	if !ok {
		t.Fatal("Woodcutting not found by localID")
	}
	if sk.Level != 50 || sk.MaxLevel != 99 || !sk.HasMasteries || len(sk.Masteries) != 2 {
		t.Errorf("unexpected skill: %+v", sk)
	}
	if m, ok := sk.MasteryFor("melvorD:Oak"); !ok || m.Level != 20 {
		t.Errorf("MasteryFor(Oak) = %+v, %v", m, ok)
	}
}

func TestEquipmentSkipsEmptySlots(t *testing.T) {
	selected, sets := hosttest.State(t, hosttest.Dump()).Equipment()
	if selected != 0 || len(sets) != 1 || len(sets[0]) != 1 {
		t.Fatalf("unexpected equipment: %d %+v", selected, sets)
	}
	if sets[0][0].Item.Name != "Bronze Helmet" || sets[0][0].Item.Quantity != 1 {
		t.Errorf("unexpected slot: %+v", sets[0][0])
	}
}

func TestCombatActivity(t *testing.T) {
	d := hosttest.Dump()
	hosttest.Combat(d, "melvorD:Chicken", "melvorD:Farmlands", false, 12)
	a := hosttest.State(t, d).Activity()
	if a.Kind != host.ActivityCombat || a.Combat == nil {
		t.Fatalf("expected combat, got %+v", a)
	}
	if a.Combat.Monster.ID != "melvorD:Chicken" || a.Combat.KillCount != 12 || a.Combat.AreaFreeForAll {
		t.Errorf("unexpected combat: %+v", a.Combat)
	}
}

func TestSkillActivityResolvesCostNamesFromBank(t *testing.T) {
	d := hosttest.Dump()
	hosttest.Skilling(d, "melvorD:Smithing", hosttest.M{
		"id":   "melvorD:Bronze_Bar",
		"name": "Bronze Bar",
		"itemCosts": []any{
			hosttest.M{"item": "melvorD:Copper_Ore", "quantity": 1},
			hosttest.M{"item": "melvorD:Tin_Ore", "quantity": 1},
		},
	})
	a := hosttest.State(t, d).Activity()
	if a.Kind != host.ActivitySkill || a.Skill.Recipe == nil {
		t.Fatalf("expected skill activity with recipe, got %+v", a)
	}
	if len(a.Skill.Costs) != 2 || a.Skill.Costs[1].Item.Name != "Tin Ore" {
		t.Errorf("unexpected costs: %+v", a.Skill.Costs)
	}
}
