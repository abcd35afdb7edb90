package webstats

import (
	"net/netip"
	"time"
)

// Provider is the source of live world state. Census is called once per
// refresh, from the refresh path only.
type Provider interface {
	Census() (Census, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() (Census, error)

func (f ProviderFunc) Census() (Census, error) { return f() }

// Census is one consistent reading of the world.
type Census struct {
	StartTime   time.Time
	Connections []Connection
	Items       int
	Mobiles     int
	Guilds      int
	Memory      int64
	Skills      []SkillDef
}

// Connection is a live game session; Player is nil while still at login.
type Connection struct {
	Addr   netip.Addr
	Player *Player
}

type Player struct {
	ID      int32
	Name    string
	Title   string
	Profile string
	Fame    int32
	Karma   int32
	Kills   int32
	Guild   *Guild
	Stats   Attributes
	Skills  map[int32]SkillLevel
	Equip   []EquipItem
}

type Guild struct {
	ID   int32
	Name string
	Abbr string
}

// Attributes holds effective values and their unmodified (raw) bases.
type Attributes struct {
	Str, StrRaw   int
	Dex, DexRaw   int
	Int, IntRaw   int
	Hits, HitsMax int
	Stam, StamMax int
	Mana, ManaMax int
}

type SkillLevel struct {
	Base  float64
	Value float64
	Cap   float64
}

type SkillDef struct {
	ID   int32
	Name string
	Cap  float64
}

type EquipItem struct {
	ID    int32
	Type  string
	Layer int
	Art   int32
	Hue   int32
	Name  string
}

// inWorld drops sessions that have not entered the world yet.
func inWorld(conns []Connection) []Connection {
	out := make([]Connection, 0, len(conns))
	for _, c := range conns {
		if c.Player != nil {
			out = append(out, c)
		}
	}
	return out
}

// uniqueAddrs groups connections by remote address, first seen first.
func uniqueAddrs(conns []Connection) []netip.Addr {
	seen := make(map[netip.Addr]struct{}, len(conns))
	out := make([]netip.Addr, 0, len(conns))
	for _, c := range conns {
		if _, ok := seen[c.Addr]; ok {
			continue
		}
		seen[c.Addr] = struct{}{}
		out = append(out, c.Addr)
	}
	return out
}
