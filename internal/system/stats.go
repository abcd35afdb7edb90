package system

import (
	"time"

	"github.com/l1jgo/webstats/internal/core/event"
	coresys "github.com/l1jgo/webstats/internal/core/system"
	"github.com/l1jgo/webstats/internal/webstats"
)

// StatsSystem drives the stats cache. Phase 2 (Update).
// Refresh is throttled by the cache itself, so it runs every tick. A new
// publication, whether from this tick or from an HTTP request, is
// announced as SnapshotPublished.
type StatsSystem struct {
	cache *webstats.Cache
	bus   *event.Bus
	last  time.Time
}

func NewStatsSystem(cache *webstats.Cache, bus *event.Bus) *StatsSystem {
	return &StatsSystem{cache: cache, bus: bus}
}

func (s *StatsSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *StatsSystem) Update(_ time.Duration) {
	s.cache.Refresh(false)
	if at, metrics := s.cache.Published(); at.After(s.last) {
		s.last = at
		event.Emit(s.bus, event.SnapshotPublished{At: at, Metrics: metrics})
	}
}
