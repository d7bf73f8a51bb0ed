package host

import (
	"testing"

	"github.com/tidwall/gjson"
)

func TestRecipeCostShapes(t *testing.T) {
	cases := []struct {
		name   string
		recipe string
		want   map[string]float64
	}{
		{
			name:   "item costs",
			recipe: `{"itemCosts":[{"item":{"id":"a","name":"A"},"quantity":2},{"item":{"id":"b"},"quantity":1}]}`,
			want:   map[string]float64{"a": 2, "b": 1},
		},
		{
			name:   "fixed and rune costs merge",
			recipe: `{"fixedItemCosts":[{"id":"a","quantity":1}],"runeCosts":[{"item":"a","quantity":3},{"item":"r","quantity":1}]}`,
			want:   map[string]float64{"a": 4, "r": 1},
		},
		{
			name:   "alternative by index",
			recipe: `{"selectedAltCost":1,"alternativeCosts":[{"id":"x","itemCosts":[{"item":"a","quantity":1}]},{"id":"y","itemCosts":[{"item":"b","quantity":5}]}]}`,
			want:   map[string]float64{"b": 5},
		},
		{
			name:   "alternative by id wins over index",
			recipe: `{"selectedAltCost":1,"selectedAltCostID":"x","alternativeCosts":[{"id":"x","itemCosts":[{"item":"a","quantity":1}]},{"id":"y","itemCosts":[{"item":"b","quantity":5}]}]}`,
			want:   map[string]float64{"a": 1},
		},
		{
			name:   "non-shard cursor",
			recipe: `{"itemCosts":[{"item":"shard","quantity":6}],"selectedNonShardCost":1,"nonShardItemCosts":[{"item":"n0","quantity":1},{"item":"n1","quantity":2}]}`,
			want:   map[string]float64{"shard": 6, "n1": 2},
		},
		{
			name:   "single resource",
			recipe: `{"resource":{"item":{"id":"logs","name":"Logs"},"quantity":1}}`,
			want:   map[string]float64{"logs": 1},
		},
		{
			name:   "charges",
			recipe: `{"charges":{"item":"charge","perAction":2}}`,
			want:   map[string]float64{"charge": 2},
		},
		{
			name:   "keyed multiset",
			recipe: `{"costMap":{"z":3,"a":1}}`,
			want:   map[string]float64{"a": 1, "z": 3},
		},
		{
			name:   "no costs",
			recipe: `{"id":"r"}`,
			want:   map[string]float64{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := RecipeCosts(gjson.Parse(tc.recipe))
			if len(got) != len(tc.want) {
				t.Fatalf("want %d costs, got %+v", len(tc.want), got)
			}
			for _, c := range got {
				if want, ok := tc.want[c.Item.ID]; !ok || want != c.PerAction {
					t.Errorf("cost %s: want %v, got %v", c.Item.ID, tc.want[c.Item.ID], c.PerAction)
				}
			}
		})
	}
}
