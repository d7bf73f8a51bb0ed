package eta

import (
	"math"

	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

// CostSample is one recipe input with the player's current stock.
type CostSample struct {
	Item      snapshot.Ref
	PerAction float64
	Stock     float64
}

// CostItem is the number of actions one input can sustain.
type CostItem struct {
	Item           snapshot.Ref `json:"item"`
	PerAction      float64      `json:"perAction"`
	Stock          float64      `json:"stock"`
	ItemQteActions int64        `json:"itemQteActions"`
	Unbounded      bool         `json:"unbounded,omitempty"`
}

// CostReading summarises how long the current recipe can keep running.
type CostReading struct {
	Items              []CostItem `json:"items"`
	Bottleneck         *CostItem  `json:"bottleneck,omitempty"`
	PreservationChance float64    `json:"preservationChance"`
	// ItemQteActionsWithPreservation is the bottleneck's action count with
	// preservation applied; -1 when preservation is certain.
	ItemQteActionsWithPreservation int64 `json:"itemQteActionsWithPreservation"`
	TimeLeftMs                     int64 `json:"timeLeftMs,omitempty"`
	TimeLeftWithPreservationMs     int64 `json:"timeLeftWithPreservationMs,omitempty"`
}

// Actions returns floor(stock/perAction). A zero per-action cost never runs
// out.
func Actions(stock, perAction float64) (actions int64, unbounded bool) {
	if perAction <= 0 {
		return 0, true
	}
	if stock <= 0 {
		return 0, false
	}
	return int64(math.Floor(stock / perAction)), false
}

// WithPreservation returns floor(actions * 1/(1 - p/100)) for a preservation
// chance p in percent. ok is false when p >= 100.
func WithPreservation(actions int64, p float64) (int64, bool) {
	if p <= 0 {
		return actions, true
	}
	if p >= 100 {
		return 0, false
	}
	return int64(math.Floor(float64(actions) * (1 / (1 - p/100)))), true
}

// Costs computes per-input action counts, the bottleneck and the time left at
// intervalMs per action (0 when unknown).
func Costs(samples []CostSample, preservation, intervalMs float64) CostReading {
	r := CostReading{
		Items:              make([]CostItem, 0, len(samples)),
		PreservationChance: preservation,
	}
	bottleneck := -1
	for _, s := range samples {
		actions, unbounded := Actions(s.Stock, s.PerAction)
		r.Items = append(r.Items, CostItem{
			Item:           s.Item,
			PerAction:      s.PerAction,
			Stock:          s.Stock,
			ItemQteActions: actions,
			Unbounded:      unbounded,
		})
		if unbounded {
			continue
		}
		if bottleneck < 0 || actions < r.Items[bottleneck].ItemQteActions {
			bottleneck = len(r.Items) - 1
		}
	}
	if bottleneck < 0 {
		return r
	}
	b := r.Items[bottleneck]
	r.Bottleneck = &b

	preserved, ok := WithPreservation(b.ItemQteActions, preservation)
	if !ok {
		r.ItemQteActionsWithPreservation = -1
	} else {
		r.ItemQteActionsWithPreservation = preserved
	}
	if intervalMs > 0 {
		r.TimeLeftMs = int64(float64(b.ItemQteActions) * intervalMs)
		if ok {
			r.TimeLeftWithPreservationMs = int64(float64(preserved) * intervalMs)
		}
	}
	return r
}
