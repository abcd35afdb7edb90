package webstats

import (
	"fmt"
	"math"
	"time"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindUnset Kind = iota
	KindInt
	KindDuration
	KindTimestamp
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindDuration:
		return "duration"
	case KindTimestamp:
		return "timestamp"
	default:
		return "unset"
	}
}

// Value is a metric sample: an integer count, a duration or a point in time.
type Value struct {
	kind Kind
	n    int64 // count, or nanoseconds for durations
	t    time.Time
}

func IntValue(n int64) Value              { return Value{kind: KindInt, n: n} }
func DurationValue(d time.Duration) Value { return Value{kind: KindDuration, n: int64(d)} }
func TimestampValue(t time.Time) Value    { return Value{kind: KindTimestamp, t: t.UTC()} }

func (v Value) Kind() Kind              { return v.kind }
func (v Value) IsSet() bool             { return v.kind != KindUnset }
func (v Value) Int() int64              { return v.n }
func (v Value) Duration() time.Duration { return time.Duration(v.n) }
func (v Value) Time() time.Time         { return v.t }

// Less orders two values of the same kind. Values of different kinds never
// compare less; Max treats a kind change as a replacement.
func (v Value) Less(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindTimestamp {
		return v.t.Before(o.t)
	}
	return v.n < o.n
}

// Max returns the larger of v and o. An unset v, or one holding another
// kind, yields o.
func (v Value) Max(o Value) Value {
	if !v.IsSet() || v.kind != o.kind {
		return o
	}
	if v.Less(o) {
		return o
	}
	return v
}

// Text is the JSON representation: a number for counts, text otherwise.
func (v Value) Text() any {
	switch v.kind {
	case KindInt:
		return v.n
	case KindDuration:
		return formatDuration(v.Duration())
	case KindTimestamp:
		return v.t.Format(time.RFC3339)
	default:
		return nil
	}
}

// Stamp returns the numeric companion of non-count values: seconds for
// durations, floored unix seconds for timestamps. ok is false for counts.
func (v Value) Stamp() (stamp float64, ok bool) {
	switch v.kind {
	case KindDuration:
		return v.Duration().Seconds(), true
	case KindTimestamp:
		return math.Floor(float64(v.t.UnixNano()) / 1e9), true
	default:
		return 0, false
	}
}

// formatDuration renders [d.]hh:mm:ss, dropping the day part when zero.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	h := (total % 86400) / 3600
	m := (total % 3600) / 60
	s := total % 60
	if days > 0 {
		return fmt.Sprintf("%d.%02d:%02d:%02d", days, h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Raw is the storage form of v: the count, nanoseconds for durations,
// unix nanoseconds for timestamps.
func (v Value) Raw() int64 {
	if v.kind == KindTimestamp {
		return v.t.UnixNano()
	}
	return v.n
}

// RawValue rebuilds a Value from its storage form.
func RawValue(k Kind, n int64) Value {
	switch k {
	case KindInt:
		return IntValue(n)
	case KindDuration:
		return DurationValue(time.Duration(n))
	case KindTimestamp:
		return TimestampValue(time.Unix(0, n))
	default:
		return Value{}
	}
}
