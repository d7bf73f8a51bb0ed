package export

import (
	"log/slog"

	"github.com/fakeyudi/idlesnap/internal/history"
	"github.com/fakeyudi/idlesnap/internal/snapshot"
)

// Notifier is told about finished cycles. Implementations must not block.
type Notifier interface {
	SnapshotReady(doc *snapshot.Document)
	DiffReady(key string, c history.Changelog)
}

// Notifiers fans a notification out to several notifiers.
type Notifiers []Notifier

func (ns Notifiers) SnapshotReady(doc *snapshot.Document) {
	for _, n := range ns {
		n.SnapshotReady(doc)
	}
}

func (ns Notifiers) DiffReady(key string, c history.Changelog) {
	for _, n := range ns {
		n.DiffReady(key, c)
	}
}

// LogNotifier logs every notification at debug level.
type LogNotifier struct {
	Log *slog.Logger
}

func (l LogNotifier) SnapshotReady(doc *snapshot.Document) {
	l.Log.Debug("snapshot ready",
		"id", doc.Meta.ID,
		"full", doc.Meta.Full,
		"sections", len(doc.Names()),
		"processMs", doc.Meta.ProcessMs)
}

func (l LogNotifier) DiffReady(key string, c history.Changelog) {
	l.Log.Debug("changes ready", "key", key, "header", c.Header, "changes", len(c.Changes))
}

type nopNotifier struct{}

func (nopNotifier) SnapshotReady(*snapshot.Document)    {}
func (nopNotifier) DiffReady(string, history.Changelog) {}
