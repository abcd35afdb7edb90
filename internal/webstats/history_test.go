package webstats

import (
	"strings"
	"testing"
	"time"
)

func TestHistoryRingKeepsNewest(t *testing.T) {
	h := NewHistory(3)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		h.Add(Sample{At: base.Add(time.Duration(i) * time.Minute), Online: int64(i)})
	}

	got := h.Samples()
	if len(got) != 3 || h.Len() != 3 {
		t.Fatalf("expected 3 samples, got %d", len(got))
	}
	for i, s := range got {
		if s.Online != int64(i+2) {
			t.Fatalf("sample %d online = %d, want %d", i, s.Online, i+2)
		}
	}
}

func TestHistoryPendingAndRequeue(t *testing.T) {
	h := NewHistory(4)
	h.Seed([]Sample{{Online: 1}})
	h.Add(Sample{Online: 2})
	h.Add(Sample{Online: 3})

	p := h.TakePending()
	if len(p) != 2 {
		t.Fatalf("pending = %d, want 2 (seeded samples are already stored)", len(p))
	}
	if len(h.TakePending()) != 0 {
		t.Fatalf("pending not drained")
	}

	h.Requeue(p)
	h.Add(Sample{Online: 4})
	p = h.TakePending()
	if len(p) != 3 || p[0].Online != 2 || p[2].Online != 4 {
		t.Fatalf("requeued pending = %+v", p)
	}
}

func TestSampleOf(t *testing.T) {
	at := time.Unix(1700000000, 0)
	s := SampleOf(at, []Entry{
		{Key: MetricOnline, Value: IntValue(5)},
		{Key: MetricMemory, Value: IntValue(1 << 20)},
		{Key: MetricUptime, Value: DurationValue(time.Hour)},
	})
	if s.Online != 5 || s.Memory != 1<<20 || !s.At.Equal(at) {
		t.Fatalf("sample = %+v", s)
	}
}

func TestHistoryRender(t *testing.T) {
	h := NewHistory(4)
	h.Add(Sample{At: time.Now(), Online: 3, Memory: 64 << 20})

	var b strings.Builder
	if err := h.Render(&b, "Whale"); err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Whale", "Online", "Memory (MB)"} {
		if !strings.Contains(b.String(), want) {
			t.Fatalf("page missing %q", want)
		}
	}
}
