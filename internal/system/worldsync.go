package system

import (
	"context"
	"time"

	"github.com/l1jgo/webstats/internal/core/event"
	coresys "github.com/l1jgo/webstats/internal/core/system"
	"github.com/l1jgo/webstats/internal/world"
	"go.uber.org/zap"
)

// WorldSource reads the current world from the game database.
type WorldSource interface {
	Load(ctx context.Context) (world.WorldSnapshot, error)
}

// WorldSyncSystem reloads the world census every interval. Phase 1 (Sync).
// The first tick always syncs so the cache has data right after boot.
type WorldSyncSystem struct {
	world    *world.State
	source   WorldSource
	bus      *event.Bus
	log      *zap.Logger
	now      func() time.Time
	elapsed  time.Duration
	interval time.Duration
	synced   bool
}

func NewWorldSyncSystem(ws *world.State, src WorldSource, bus *event.Bus, log *zap.Logger, interval time.Duration) *WorldSyncSystem {
	return &WorldSyncSystem{
		world:    ws,
		source:   src,
		bus:      bus,
		log:      log,
		now:      time.Now,
		interval: interval,
	}
}

func (s *WorldSyncSystem) Phase() coresys.Phase { return coresys.PhaseSync }

func (s *WorldSyncSystem) Update(dt time.Duration) {
	s.elapsed += dt
	if s.synced && s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	s.Sync()
}

// Sync reloads the world now. A failed load keeps the previous census.
func (s *WorldSyncSystem) Sync() bool {
	s.synced = true
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ws, err := s.source.Load(ctx)
	if err != nil {
		s.log.Error("世界同步失敗", zap.Error(err))
		return false
	}
	at := s.now()
	s.world.Replace(ws, at)
	s.log.Debug("世界同步完成",
		zap.Int("players", len(ws.Players)),
		zap.Int("spawns", len(ws.Spawns)),
		zap.Int("addons", len(ws.Addons)),
	)
	if s.bus != nil {
		event.Emit(s.bus, event.WorldSynced{At: at, Players: len(ws.Players)})
	}
	return true
}
