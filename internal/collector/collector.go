// Package collector turns a host dump into export sections. Each section is
// collected independently; a disabled or failing section is replaced by a
// placeholder and never aborts the cycle.
package collector

import (
	"context"
	"log/slog"

	"github.com/fakeyudi/idlesnap/internal/host"
	"github.com/fakeyudi/idlesnap/internal/jsonv"
	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

// Collector gathers one slice of host state.
type Collector interface {
	// Collect returns a JSON-serializable value. Absent host data yields
	// zero values; an error means the data was present but unusable.
	Collect(ctx context.Context, s *host.State) (any, error)
}

// Func adapts a function to Collector.
type Func func(ctx context.Context, s *host.State) (any, error)

func (f Func) Collect(ctx context.Context, s *host.State) (any, error) {
	return f(ctx, s)
}

// Section is a named, optionally toggleable collector.
type Section struct {
	Name      string
	Optional  bool
	Collector Collector
}

// Run collects the section and normalizes it into an order-preserving JSON
// value. ok is false when the placeholder was returned instead.
func (sec Section) Run(ctx context.Context, s *host.State, enabled bool, log *slog.Logger) (v any, ok bool) {
	if sec.Optional && !enabled {
		return snapshot.Placeholder(sec.Name), false
	}
	if err := ctx.Err(); err != nil {
		log.Warn("section skipped", "section", sec.Name, "err", err)
		return snapshot.Placeholder(sec.Name), false
	}
	raw, err := sec.Collector.Collect(ctx, s)
	if err != nil {
		log.Warn("section skipped", "section", sec.Name, "err", err)
		return snapshot.Placeholder(sec.Name), false
	}
	v, err = jsonv.Normalize(raw)
	if err != nil {
		log.Warn("section skipped", "section", sec.Name, "err", err)
		return snapshot.Placeholder(sec.Name), false
	}
	return v, true
}
