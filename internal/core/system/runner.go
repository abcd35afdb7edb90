package system

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Flusher is implemented by systems that hold unsaved state.
type Flusher interface {
	Flush()
}

// Runner executes systems in phase order each tick.
type Runner struct {
	log     *zap.Logger
	systems []System
	sorted  bool
}

func NewRunner(log *zap.Logger) *Runner {
	return &Runner{
		log:     log,
		systems: make([]System, 0, 8),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

// Tick runs every system once. A system that panics is logged and the
// tick continues with the next one.
func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		r.safeUpdate(s, dt)
	}
}

// Shutdown 依 Phase 順序呼叫每個 Flusher，關機前存下未寫入的資料。
func (r *Runner) Shutdown() {
	r.ensureSorted()
	for _, s := range r.systems {
		if f, ok := s.(Flusher); ok {
			f.Flush()
		}
	}
}

func (r *Runner) safeUpdate(s System, dt time.Duration) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("System panic 已恢復",
				zap.String("system", fmt.Sprintf("%T", s)),
				zap.Int("phase", int(s.Phase())),
				zap.Any("panic", rec),
			)
		}
	}()
	s.Update(dt)
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		// Stable: systems of the same phase keep registration order.
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
