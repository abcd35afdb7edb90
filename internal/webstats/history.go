package webstats

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Sample is one published snapshot reduced to its counters.
type Sample struct {
	At      time.Time `parquet:"at,timestamp"`
	Online  int64     `parquet:"online"`
	Unique  int64     `parquet:"unique"`
	Items   int64     `parquet:"items"`
	Mobiles int64     `parquet:"mobiles"`
	Guilds  int64     `parquet:"guilds"`
	Memory  int64     `parquet:"memory"`
}

// SampleOf reduces a metric table to a Sample stamped at.
func SampleOf(at time.Time, entries []Entry) Sample {
	s := Sample{At: at.UTC()}
	for _, e := range entries {
		n := e.Value.Int()
		switch e.Key {
		case MetricOnline:
			s.Online = n
		case MetricUnique:
			s.Unique = n
		case MetricItems:
			s.Items = n
		case MetricMobiles:
			s.Mobiles = n
		case MetricGuilds:
			s.Guilds = n
		case MetricMemory:
			s.Memory = n
		}
	}
	return s
}

// History is a bounded ring of recent samples. Oldest samples drop first.
type History struct {
	mu      sync.RWMutex
	buf     []Sample
	next    int
	full    bool
	pending []Sample // not yet persisted
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = 1
	}
	return &History{buf: make([]Sample, size)}
}

// Add appends s and queues it for persistence.
func (h *History) Add(s Sample) {
	h.mu.Lock()
	h.push(s)
	h.pending = append(h.pending, s)
	if len(h.pending) > len(h.buf) {
		h.pending = h.pending[len(h.pending)-len(h.buf):]
	}
	h.mu.Unlock()
}

// Seed loads already persisted samples, oldest first.
func (h *History) Seed(samples []Sample) {
	h.mu.Lock()
	for _, s := range samples {
		h.push(s)
	}
	h.mu.Unlock()
}

func (h *History) push(s Sample) {
	h.buf[h.next] = s
	h.next = (h.next + 1) % len(h.buf)
	if h.next == 0 {
		h.full = true
	}
}

// Samples returns the retained samples, oldest first.
func (h *History) Samples() []Sample {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.full {
		return append([]Sample(nil), h.buf[:h.next]...)
	}
	out := make([]Sample, 0, len(h.buf))
	out = append(out, h.buf[h.next:]...)
	return append(out, h.buf[:h.next]...)
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.full {
		return len(h.buf)
	}
	return h.next
}

// TakePending hands over the samples added since the last call.
func (h *History) TakePending() []Sample {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.pending
	h.pending = nil
	return out
}

// Requeue puts back samples whose persistence failed.
func (h *History) Requeue(samples []Sample) {
	if len(samples) == 0 {
		return
	}
	h.mu.Lock()
	h.pending = append(append([]Sample(nil), samples...), h.pending...)
	if len(h.pending) > len(h.buf) {
		h.pending = h.pending[len(h.pending)-len(h.buf):]
	}
	h.mu.Unlock()
}

// Render writes an HTML page with one line chart per counter.
func (h *History) Render(w io.Writer, title string) error {
	samples := h.Samples()

	labels := make([]string, len(samples))
	for i, s := range samples {
		labels[i] = s.At.Local().Format("01-02 15:04")
	}

	page := components.NewPage()
	page.PageTitle = title

	series := []struct {
		name string
		get  func(Sample) int64
	}{
		{"Online", func(s Sample) int64 { return s.Online }},
		{"Unique", func(s Sample) int64 { return s.Unique }},
		{"Items", func(s Sample) int64 { return s.Items }},
		{"Mobiles", func(s Sample) int64 { return s.Mobiles }},
		{"Guilds", func(s Sample) int64 { return s.Guilds }},
		{"Memory (MB)", func(s Sample) int64 { return s.Memory >> 20 }},
	}
	for _, sr := range series {
		data := make([]opts.LineData, len(samples))
		for i, s := range samples {
			data[i] = opts.LineData{Value: sr.get(s)}
		}
		page.AddCharts(historyLine(sr.name, labels, data))
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("render history: %w", err)
	}
	return nil
}

func historyLine(name string, labels []string, data []opts.LineData) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: name}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Rotate: 45},
		}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:  "slider",
			Start: 0,
			End:   100,
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "100%",
			Height: "320px",
		}),
	)
	line.SetXAxis(labels)
	line.AddSeries(name, data, charts.WithLineChartOpts(opts.LineChart{
		ShowSymbol: opts.Bool(false),
	}))
	return line
}
