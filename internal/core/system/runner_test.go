package system

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(time.Duration) { *r.log = append(*r.log, r.name) }

func TestTickRunsInPhaseOrder(t *testing.T) {
	var log []string
	r := NewRunner(zap.NewNop())
	r.Register(recorder{"persist", PhasePersist, &log})
	r.Register(recorder{"stats", PhaseUpdate, &log})
	r.Register(recorder{"dispatch", PhaseDispatch, &log})
	r.Register(recorder{"sync", PhaseSync, &log})
	r.Register(recorder{"stats2", PhaseUpdate, &log})

	r.Tick(time.Second)

	want := []string{"dispatch", "sync", "stats", "stats2", "persist"}
	if len(log) != len(want) {
		t.Fatalf("got %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("got %v, want %v", log, want)
		}
	}
}

type flushRecorder struct {
	recorder
}

func (f flushRecorder) Flush() { *f.log = append(*f.log, "flush:"+f.name) }

type panicker struct{}

func (panicker) Phase() Phase { return PhaseSync }

func (panicker) Update(time.Duration) { panic("boom") }

func TestShutdownFlushesInPhaseOrder(t *testing.T) {
	var log []string
	r := NewRunner(zap.NewNop())
	r.Register(flushRecorder{recorder{"persist", PhasePersist, &log}})
	r.Register(recorder{"stats", PhaseUpdate, &log})
	r.Register(flushRecorder{recorder{"sync", PhaseSync, &log}})

	r.Shutdown()
	if len(log) != 2 || log[0] != "flush:sync" || log[1] != "flush:persist" {
		t.Fatalf("got %v, want [flush:sync flush:persist]", log)
	}
}

func TestTickSurvivesPanickingSystem(t *testing.T) {
	var log []string
	r := NewRunner(zap.NewNop())
	r.Register(panicker{})
	r.Register(recorder{"stats", PhaseUpdate, &log})

	r.Tick(time.Second)
	if len(log) != 1 || log[0] != "stats" {
		t.Fatalf("expected stats to run after the panic, got %v", log)
	}
}
