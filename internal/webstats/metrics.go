package webstats

import (
	goccy "github.com/goccy/go-json"
)

// Tracked metric keys, in display order.
const (
	MetricUptime  = "uptime"
	MetricOnline  = "online"
	MetricUnique  = "unique"
	MetricItems   = "items"
	MetricMobiles = "mobiles"
	MetricGuilds  = "guilds"
	MetricMemory  = "memory"
)

// MetricKeys lists every tracked metric in display order.
var MetricKeys = []string{
	MetricUptime, MetricOnline, MetricUnique, MetricItems,
	MetricMobiles, MetricGuilds, MetricMemory,
}

// Entry is one metric with its running maximum and peak. Max never goes
// down within a process; Peak goes down only through ResetPeaks.
type Entry struct {
	Key   string
	Value Value
	Max   Value
	Peak  Value
}

func (e *Entry) observe(v Value) {
	e.Value = v
	e.Max = e.Max.Max(v)
	e.Peak = e.Peak.Max(v)
}

// merge folds persisted aggregates into e without lowering anything.
func (e *Entry) merge(o Entry) {
	if o.Max.IsSet() {
		e.Max = e.Max.Max(o.Max)
	}
	if o.Peak.IsSet() {
		e.Peak = e.Peak.Max(o.Peak)
	}
	if !e.Value.IsSet() {
		e.Value = o.Value
	}
}

type entryJSON struct {
	Value      any      `json:"value"`
	ValueStamp *float64 `json:"value_stamp,omitempty"`
	Max        any      `json:"max"`
	MaxStamp   *float64 `json:"max_stamp,omitempty"`
	Peak       any      `json:"peak"`
	PeakStamp  *float64 `json:"peak_stamp,omitempty"`
}

func stampPtr(v Value) *float64 {
	s, ok := v.Stamp()
	if !ok {
		return nil
	}
	return &s
}

func (e Entry) MarshalJSON() ([]byte, error) {
	return goccy.Marshal(entryJSON{
		Value:      e.Value.Text(),
		ValueStamp: stampPtr(e.Value),
		Max:        e.Max.Text(),
		MaxStamp:   stampPtr(e.Max),
		Peak:       e.Peak.Text(),
		PeakStamp:  stampPtr(e.Peak),
	})
}

// table holds the live metric entries. Only the refresh path writes it.
type table struct {
	entries map[string]*Entry
}

func newTable() *table {
	t := &table{entries: make(map[string]*Entry, len(MetricKeys))}
	for _, k := range MetricKeys {
		t.entries[k] = &Entry{Key: k}
	}
	return t
}

func (t *table) observe(key string, v Value) {
	e, ok := t.entries[key]
	if !ok {
		e = &Entry{Key: key}
		t.entries[key] = e
	}
	e.observe(v)
}

func (t *table) resetPeaks() {
	for _, e := range t.entries {
		e.Peak = e.Value
	}
}

// snapshot copies the entries in display order.
func (t *table) snapshot() []Entry {
	out := make([]Entry, 0, len(t.entries))
	for _, k := range MetricKeys {
		if e, ok := t.entries[k]; ok {
			out = append(out, *e)
		}
	}
	return out
}
