package system

import (
	"context"
	"time"

	coresys "github.com/l1jgo/webstats/internal/core/system"
	"github.com/l1jgo/webstats/internal/webstats"
	"go.uber.org/zap"
)

// StatsStore persists the metric table and sample history.
type StatsStore interface {
	SaveMetrics(ctx context.Context, entries []webstats.Entry) error
	AppendHistory(ctx context.Context, samples []webstats.Sample) error
}

// PersistenceSystem periodically saves the metric table and appends the
// samples captured since the last save. Phase 3 (Persist).
type PersistenceSystem struct {
	cache    *webstats.Cache
	history  *webstats.History
	store    StatsStore
	log      *zap.Logger
	elapsed  time.Duration
	interval time.Duration
}

func NewPersistenceSystem(cache *webstats.Cache, history *webstats.History, store StatsStore, log *zap.Logger, interval time.Duration) *PersistenceSystem {
	return &PersistenceSystem{
		cache:    cache,
		history:  history,
		store:    store,
		log:      log,
		interval: interval,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	s.Flush()
}

// Flush saves immediately. Called for graceful shutdown and after a peak
// reset. Samples that fail to save are queued again for the next flush.
func (s *PersistenceSystem) Flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if entries := s.cache.Metrics(); len(entries) > 0 {
		if err := s.store.SaveMetrics(ctx, entries); err != nil {
			s.log.Error("儲存統計數值失敗", zap.Error(err))
		}
	}

	if s.history == nil {
		return
	}
	pending := s.history.TakePending()
	if len(pending) == 0 {
		return
	}
	if err := s.store.AppendHistory(ctx, pending); err != nil {
		s.log.Error("儲存統計歷史失敗", zap.Int("samples", len(pending)), zap.Error(err))
		s.history.Requeue(pending)
		return
	}
	s.log.Debug("統計歷史已儲存", zap.Int("samples", len(pending)))
}
