package event

import (
	"time"

	"github.com/l1jgo/webstats/internal/webstats"
)

// SnapshotPublished is emitted after the stats cache published new artifacts.
// Metrics is the table published at At.
type SnapshotPublished struct {
	At      time.Time
	Metrics []webstats.Entry
}

// PeaksReset is emitted after an administrator reset the metric peaks.
type PeaksReset struct {
	At time.Time
}

// WorldSynced is emitted after the world census was reloaded.
type WorldSynced struct {
	At      time.Time
	Players int
}
