package host

import (
	"sort"

	"github.com/tidwall/gjson"

	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

// Cost is one input a recipe consumes per action.
type Cost struct {
	Item      snapshot.Ref
	PerAction float64
}

// RecipeCosts resolves the per-action inputs of a recipe. Recipes come in
// several shapes and more than one may be present at once:
//
//	itemCosts, fixedItemCosts, runeCosts   lists of {item, quantity}
//	alternativeCosts                       list of {id, itemCosts}; one is
//	                                       selected by selectedAltCost (index)
//	                                       or selectedAltCostID
//	nonShardItemCosts                      list of {item, quantity} selected by
//	                                       selectedNonShardCost, on top of
//	                                       itemCosts
//	resource                               a single {item, quantity} consumed
//	                                       by category gathering actions
//	charges                                {item, perAction} charge consumption
//	costMap                                {"<itemID>": quantity} multiset
//
// Entries with the same item id are merged.
func RecipeCosts(recipe gjson.Result) []Cost {
	var costs []Cost

	if alts := recipe.Get("alternativeCosts"); alts.IsArray() && len(alts.Array()) > 0 {
		costs = append(costs, costList(selectAlternative(recipe, alts).Get("itemCosts"))...)
	} else {
		costs = append(costs, costList(recipe.Get("itemCosts"))...)
	}
	if ns := recipe.Get("nonShardItemCosts"); ns.IsArray() {
		list := ns.Array()
		if i := int(recipe.Get("selectedNonShardCost").Int()); i >= 0 && i < len(list) {
			costs = append(costs, costOf(list[i]))
		}
	}
	costs = append(costs, costList(recipe.Get("fixedItemCosts"))...)
	costs = append(costs, costList(recipe.Get("runeCosts"))...)

	if res := recipe.Get("resource"); res.IsObject() {
		costs = append(costs, costOf(res))
	}
	if ch := recipe.Get("charges"); ch.IsObject() {
		c := costOf(ch)
		if per := ch.Get("perAction"); per.Exists() {
			c.PerAction = per.Float()
		}
		costs = append(costs, c)
	}
	if m := recipe.Get("costMap"); m.IsObject() {
		var ids []string
		qty := map[string]float64{}
		m.ForEach(func(k, v gjson.Result) bool {
			ids = append(ids, k.String())
			qty[k.String()] = v.Float()
			return true
		})
		sort.Strings(ids)
		for _, id := range ids {
			costs = append(costs, Cost{Item: snapshot.Ref{ID: id}, PerAction: qty[id]})
		}
	}
	return merge(costs)
}

func selectAlternative(recipe, alts gjson.Result) gjson.Result {
	list := alts.Array()
	if id := recipe.Get("selectedAltCostID").String(); id != "" {
		for _, alt := range list {
			if alt.Get("id").String() == id {
				return alt
			}
		}
	}
	i := int(recipe.Get("selectedAltCost").Int())
	if i < 0 || i >= len(list) {
		i = 0
	}
	return list[i]
}

func costList(v gjson.Result) []Cost {
	var out []Cost
	v.ForEach(func(_, el gjson.Result) bool {
		if el.Type != gjson.Null {
			out = append(out, costOf(el))
		}
		return true
	})
	return out
}

// costOf reads {item: {...}, quantity} or a flat {id, name, quantity}.
func costOf(v gjson.Result) Cost {
	item := v.Get("item")
	if !item.Exists() {
		item = v
	}
	ref := RefOf(item)
	ref.Quantity = 0
	return Cost{Item: ref, PerAction: v.Get("quantity").Float()}
}

func merge(costs []Cost) []Cost {
	out := make([]Cost, 0, len(costs))
	index := map[string]int{}
	for _, c := range costs {
		if c.Item.ID == "" {
			continue
		}
		if i, ok := index[c.Item.ID]; ok {
			out[i].PerAction += c.PerAction
			continue
		}
		index[c.Item.ID] = len(out)
		out = append(out, c)
	}
	return out
}
