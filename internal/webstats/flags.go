package webstats

import (
	"net/url"
	"strconv"
	"strings"
)

// Flags selects the top-level sections of a snapshot.
type Flags uint8

const (
	FlagNone    Flags = 0
	FlagServer  Flags = 0x1
	FlagStats   Flags = 0x2
	FlagPlayers Flags = 0x4
	FlagAll           = FlagServer | FlagStats | FlagPlayers
)

func (f Flags) Has(o Flags) bool { return f&o == o }

// Partial reports a non-empty selection that is not every section.
func (f Flags) Partial() bool { return f != FlagNone && f&FlagAll != FlagAll }

func (f Flags) String() string {
	if f == FlagNone {
		return "none"
	}
	var parts []string
	if f.Has(FlagServer) {
		parts = append(parts, "server")
	}
	if f.Has(FlagStats) {
		parts = append(parts, "stats")
	}
	if f.Has(FlagPlayers) {
		parts = append(parts, "players")
	}
	return strings.Join(parts, "|")
}

// ParseFlags reads the section selection from a query string.
//
// A valid "flags" value (decimal or 0x hex) wins. Without one, every section
// is selected and server/stats/players are cleared individually by a
// false-like value.
func ParseFlags(q url.Values) Flags {
	if len(q) == 0 {
		return FlagAll
	}
	if raw, ok := lookup(q, "flags"); ok {
		if f, ok := parseMask(raw); ok {
			return f
		}
	}
	f := FlagAll
	for _, sec := range []struct {
		key  string
		flag Flags
	}{
		{"server", FlagServer},
		{"stats", FlagStats},
		{"players", FlagPlayers},
	} {
		if v, ok := lookup(q, sec.key); ok && falseLike(v) {
			f &^= sec.flag
		}
	}
	return f
}

func parseMask(raw string) (Flags, bool) {
	s := strings.TrimSpace(raw)
	base := 10
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s, base = s[2:], 16
	}
	n, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return FlagNone, false
	}
	return Flags(n) & FlagAll, true
}

// lookup is a case-insensitive url.Values.Get that also reports presence.
func lookup(q url.Values, key string) (string, bool) {
	if vs, ok := q[key]; ok {
		if len(vs) == 0 {
			return "", true
		}
		return vs[0], true
	}
	for k, vs := range q {
		if strings.EqualFold(k, key) {
			if len(vs) == 0 {
				return "", true
			}
			return vs[0], true
		}
	}
	return "", false
}

func falseLike(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "false", "no", "off", "disabled", "0":
		return true
	}
	return false
}
