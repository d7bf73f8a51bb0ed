package collector

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/fakeyudi/idlesnap/internal/eta"
	"github.com/fakeyudi/idlesnap/internal/host"
	"github.com/fakeyudi/idlesnap/internal/host/hosttest"
	"github.com/fakeyudi/idlesnap/internal/jsonv"
	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestBasicsKeepsFieldOrder(t *testing.T) {
	s := hosttest.State(t, hosttest.Dump())
	v, ok := Basics().Run(context.Background(), s, true, quietLog())
	if !ok {
		t.Fatalf("basics returned placeholder: %v", v)
	}
	obj, isObj := v.(*jsonv.Object)
	if !isObj {
		t.Fatalf("basics is %T", v)
	}
	keys := jsonv.Keys(obj)
	if keys[0] != "character" || keys[1] != "gameMode" {
		t.Errorf("keys = %v", keys)
	}
	if jsonv.Get(obj, "character") != "Hero" || jsonv.Get(obj, "gp") != float64(125000) {
		t.Errorf("basics = %s", jsonv.Format(obj))
	}
}

func TestDisabledSectionIsPlaceholder(t *testing.T) {
	s := hosttest.State(t, hosttest.Dump())
	for _, sec := range Optional() {
		v, ok := sec.Run(context.Background(), s, false, quietLog())
		if ok || !snapshot.IsPlaceholder(v) {
			t.Errorf("%s: disabled section = %v", sec.Name, jsonv.Format(v))
		}
	}
	bank := Optional()[2]
	v, _ := bank.Run(context.Background(), s, false, quietLog())
	if got := jsonv.Format(v); got != `{"info":"Bank data unavailable"}` {
		t.Errorf("placeholder = %s", got)
	}
}

func TestEveryOptionalSectionCollects(t *testing.T) {
	s := hosttest.State(t, hosttest.Dump())
	for _, sec := range Optional() {
		if v, ok := sec.Run(context.Background(), s, true, quietLog()); !ok {
			t.Errorf("%s: got placeholder %s", sec.Name, jsonv.Format(v))
		}
	}
}

func TestMissingSubsystemsYieldEmptyValues(t *testing.T) {
	s, err := host.Parse([]byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	for _, sec := range append([]Section{Basics()}, Optional()...) {
		if v, ok := sec.Run(context.Background(), s, true, quietLog()); !ok {
			t.Errorf("%s: absent data should not fail, got %s", sec.Name, jsonv.Format(v))
		}
	}
}

func TestFailingSectionLogsAndDegrades(t *testing.T) {
	d := hosttest.Dump()
	d["bank"] = "not a list"
	s := hosttest.State(t, d)

	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))
	v, ok := Optional()[2].Run(context.Background(), s, true, log)
	if ok || !snapshot.IsPlaceholder(v) {
		t.Fatalf("bank = %s, want placeholder", jsonv.Format(v))
	}
	if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), "section=bank") {
		t.Errorf("missing warning: %q", logs.String())
	}

	boom := Section{Name: "boom", Collector: Func(func(context.Context, *host.State) (any, error) {
		return nil, errors.New("boom")
	})}
	if _, ok := boom.Run(context.Background(), s, true, log); ok {
		t.Error("collector error should yield placeholder")
	}
}

func TestBankReducesEntities(t *testing.T) {
	s := hosttest.State(t, hosttest.Dump())
	v, _ := Optional()[2].Run(context.Background(), s, true, quietLog())
	got := jsonv.Format(v)
	if !strings.HasPrefix(got, `[{"name":"Oak Logs","id":"melvorD:Oak_Logs","quantity":300}`) {
		t.Errorf("bank = %s", got)
	}
}

func TestActivityCombatFeedsTracker(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	tr := eta.New(nil, eta.WithClock(func() time.Time { return now }))
	features := func() (eta.Features, bool) { return eta.Features{Damage: true}, true }
	sec := ActivitySection(tr, features)

	d := hosttest.Dump()
	hosttest.Combat(d, "melvorD:Chicken", "melvorD:Farmlands", false, 100)
	sec.Run(context.Background(), hosttest.State(t, d), true, quietLog())

	now = now.Add(30 * time.Minute)
	hosttest.Combat(d, "melvorD:Chicken", "melvorD:Farmlands", false, 110)
	a := CollectActivity(hosttest.State(t, d), tr, eta.Features{}, true)
	if a.Type != host.ActivityCombat || a.Combat == nil {
		t.Fatalf("activity = %+v", a)
	}
	if a.Combat.DiffKillCount != 10 || a.Combat.KillsPerHour != 20 {
		t.Errorf("combat = %+v", a.Combat)
	}
	if a.Target == nil || a.Target.ID != "melvorD:Chicken" {
		t.Errorf("target = %+v", a.Target)
	}

	// Leaving combat drops the baseline.
	d["activity"] = hosttest.M{"type": "idle"}
	CollectActivity(hosttest.State(t, d), tr, eta.Features{}, true)
	hosttest.Combat(d, "melvorD:Chicken", "melvorD:Farmlands", false, 120)
	if a := CollectActivity(hosttest.State(t, d), tr, eta.Features{}, true); !a.Combat.Reset {
		t.Error("combat after idle should start a new baseline")
	}
}

func TestActivitySkillWithCosts(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	tr := eta.New(nil, eta.WithClock(func() time.Time { return now }))
	f := eta.Features{Mastery: true, Costs: true}

	d := hosttest.Dump()
	hosttest.Skilling(d, "melvorD:Smithing", hosttest.M{
		"id": "melvorD:Bronze_Bar", "name": "Bronze Bar",
		"itemCosts": []any{
			hosttest.M{"id": "melvorD:Copper_Ore", "quantity": 1},
			hosttest.M{"id": "melvorD:Tin_Ore", "quantity": 1},
		},
	})
	a := CollectActivity(hosttest.State(t, d), tr, f, true)
	if a.Type != host.ActivitySkill || a.Skill == nil {
		t.Fatalf("activity = %+v", a)
	}
	c := a.Skill.Costs
	if c == nil || c.Bottleneck == nil || c.Bottleneck.Item.ID != "melvorD:Tin_Ore" || c.Bottleneck.ItemQteActions != 40 {
		t.Fatalf("costs = %+v", c)
	}
	if c.TimeLeftMs != 120000 {
		t.Errorf("TimeLeftMs = %d, want 120000", c.TimeLeftMs)
	}
	if a.Skill.Mastery == nil || a.Skill.Mastery.Level != 5 {
		t.Errorf("mastery = %+v", a.Skill.Mastery)
	}
}

func TestActivityDisabledTracking(t *testing.T) {
	tr := eta.New(nil)
	d := hosttest.Dump()
	hosttest.Combat(d, "melvorD:Chicken", "melvorD:Farmlands", false, 1)
	a := CollectActivity(hosttest.State(t, d), tr, eta.Features{}, false)
	if a.Combat != nil || a.Target == nil {
		t.Errorf("activity = %+v", a)
	}
}
