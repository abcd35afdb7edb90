package event

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestEventsReadableNextTick(t *testing.T) {
	b := NewBus(zap.NewNop())
	var got []time.Time
	Subscribe(b, func(e SnapshotPublished) { got = append(got, e.At) })

	at := time.Unix(1700000000, 0)
	Emit(b, SnapshotPublished{At: at})
	b.DispatchAll()
	if len(got) != 0 {
		t.Fatalf("event delivered before swap")
	}

	b.SwapBuffers()
	b.DispatchAll()
	if len(got) != 1 || !got[0].Equal(at) {
		t.Fatalf("expected one event at %v, got %v", at, got)
	}

	b.SwapBuffers()
	b.DispatchAll()
	if len(got) != 1 {
		t.Fatalf("event delivered twice: %v", got)
	}
}

func TestDispatchByType(t *testing.T) {
	b := NewBus(zap.NewNop())
	var published, reset int
	Subscribe(b, func(SnapshotPublished) { published++ })
	Subscribe(b, func(SnapshotPublished) { published++ })
	Subscribe(b, func(PeaksReset) { reset++ })

	Emit(b, SnapshotPublished{})
	Emit(b, PeaksReset{})
	Emit(b, WorldSynced{Players: 4}) // no subscriber
	b.SwapBuffers()
	b.DispatchAll()

	if published != 2 || reset != 1 {
		t.Fatalf("expected 2 published / 1 reset deliveries, got %d / %d", published, reset)
	}
}

func TestDispatchInEmissionOrder(t *testing.T) {
	b := NewBus(zap.NewNop())
	var order []string
	Subscribe(b, func(SnapshotPublished) { order = append(order, "published") })
	Subscribe(b, func(PeaksReset) { order = append(order, "reset") })

	Emit(b, PeaksReset{})
	Emit(b, SnapshotPublished{})
	Emit(b, PeaksReset{})
	b.SwapBuffers()
	b.DispatchAll()

	want := []string{"reset", "published", "reset"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestPanickingHandlerDoesNotStopDispatch(t *testing.T) {
	b := NewBus(zap.NewNop())
	delivered := 0
	Subscribe(b, func(WorldSynced) { panic("boom") })
	Subscribe(b, func(WorldSynced) { delivered++ })

	Emit(b, WorldSynced{Players: 1})
	Emit(b, WorldSynced{Players: 2})
	b.SwapBuffers()
	b.DispatchAll()

	if delivered != 2 {
		t.Fatalf("expected both events delivered after a panic, got %d", delivered)
	}
}
