// Package hosttest builds host dumps for tests.
package hosttest

import (
	"encoding/json"
	"testing"

	"github.com/fakeyudi/idlesnap/internal/host"
)

// M is a JSON object under construction.
type M = map[string]any

// Dump returns a representative dump that tests mutate before calling State.
func Dump() M {
	return M{
		"version": "v1.3.1",
		"character": M{
			"name":        "Hero",
			"gameMode":    "standard",
			"hitpoints":   990,
			"gp":          125000,
			"slayerCoins": 420,
			"combatLevel": 88,
			"bankSlots":   200,
		},
		"skills": []any{
			M{
				"id": "melvorD:Woodcutting", "localID": "Woodcutting", "name": "Woodcutting",
				"level": 50, "xp": 101333, "unlocked": true,
				"masteryPoolXP": 1000, "masteryPoolCap": 4000,
				"mastery": []any{
					M{"id": "melvorD:Oak", "name": "Oak", "level": 20, "xp": 4470},
					M{"id": "melvorD:Willow", "name": "Willow", "level": 10, "xp": 1154},
				},
			},
			M{
				"id": "melvorD:Smithing", "localID": "Smithing", "name": "Smithing",
				"level": 30, "xp": 13363, "unlocked": true,
				"mastery": []any{M{"id": "melvorD:Bronze_Bar", "name": "Bronze Bar", "level": 5, "xp": 512}},
			},
			M{"id": "melvorD:Attack", "localID": "Attack", "name": "Attack", "level": 70, "xp": 737627, "unlocked": true},
		},
		"bank": []any{
			M{"id": "melvorD:Oak_Logs", "name": "Oak Logs", "quantity": 300},
			M{"id": "melvorD:Copper_Ore", "name": "Copper Ore", "quantity": 100},
			M{"id": "melvorD:Tin_Ore", "name": "Tin Ore", "quantity": 40},
		},
		"equipment": M{
			"selectedSet": 0,
			"sets": []any{
				M{"slots": []any{
					M{"slot": "Helmet", "item": M{"id": "melvorD:Bronze_Helmet", "name": "Bronze Helmet"}, "quantity": 1},
					M{"slot": "Weapon", "item": nil},
				}},
			},
		},
		"stats":      M{"combat": M{"damageDealt": 10000, "damageTaken": 2000, "monstersKilled": 150}},
		"activity":   M{"type": "idle"},
		"pets":       []any{M{"id": "melvorD:Beavis", "name": "Beavis", "unlocked": true}, M{"id": "melvorD:Pudding", "name": "Pudding", "unlocked": false}},
		"completion": M{"items": 12.5, "monsters": 8, "pets": 3, "mastery": 10, "skills": 25, "total": 11.2},
		"township": M{
			"population": 120, "happiness": 55, "education": 40, "health": 80,
			"worship":   M{"id": "melvorF:Bane", "name": "Bane"},
			"buildings": []any{M{"id": "melvorF:Woodcutters", "name": "Woodcutters", "count": 4}},
			"resources": []any{M{"id": "melvorF:Wood", "name": "Wood", "quantity": 900}},
		},
		"shop": M{"purchases": []any{M{"id": "melvorD:Extra_Bank_Slot", "name": "Extra Bank Slot", "count": 12}}},
		"farming": M{"plots": []any{
			M{"id": "melvorD:Allotment_1", "category": "Allotment", "state": "growing", "crop": M{"id": "melvorD:Potato_Seed", "name": "Potato Seed"}, "growthMs": 60000},
			M{"id": "melvorD:Allotment_2", "category": "Allotment", "state": "empty"},
		}},
		"agility": M{
			"obstacles": []any{M{"id": "melvorD:Cargo_Net", "name": "Cargo Net"}},
			"pillar":    M{"id": "melvorD:Pillar_of_Skilling", "name": "Pillar of Skilling"},
		},
		"slayer":      M{"task": M{"monster": M{"id": "melvorD:Golbin", "name": "Golbin"}, "category": "Easy", "killsLeft": 12, "extended": false}},
		"cartography": M{"maps": []any{M{"id": "melvorAoD:Ancient_World", "name": "Ancient World", "surveyed": 40, "total": 1000}}},
		"astrology": M{"constellations": []any{
			M{"id": "melvorF:Deedree", "name": "Deedree", "standardModifiers": []any{1, 2, 0}, "uniqueModifiers": []any{0}},
		}},
	}
}

// Combat sets a combat activity on d.
func Combat(d M, monsterID, areaID string, freeForAll bool, kills float64) {
	d["activity"] = M{
		"type":      "combat",
		"monster":   M{"id": monsterID, "name": monsterID},
		"area":      M{"id": areaID, "name": areaID, "freeForAll": freeForAll},
		"killCount": kills,
	}
}

// Skilling sets a skill activity on d with the given recipe object.
func Skilling(d M, skillID string, recipe M) {
	a := M{"type": "skill", "skill": skillID, "actionIntervalMs": 3000}
	if recipe != nil {
		a["recipe"] = recipe
	}
	d["activity"] = a
}

// SetSkill overrides a skill's level and xp.
func SetSkill(d M, skillID string, level int, xp float64) {
	for _, s := range d["skills"].([]any) {
		sk := s.(M)
		if sk["id"] == skillID {
			sk["level"] = level
			sk["xp"] = xp
		}
	}
}

// JSON encodes d.
func JSON(t testing.TB, d M) []byte {
	t.Helper()
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("encode dump: %v", err)
	}
	return data
}

// State parses d as a host dump.
func State(t testing.TB, d M) *host.State {
	t.Helper()
	s, err := host.Parse(JSON(t, d))
	if err != nil {
		t.Fatalf("parse dump: %v", err)
	}
	return s
}
