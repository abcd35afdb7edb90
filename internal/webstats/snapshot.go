package webstats

import (
	"fmt"
	"runtime"
	"time"

	goccy "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Version is reported as vnc_version in every snapshot.
var Version = "1.0.0"

type document struct {
	VncVersion      string           `json:"vnc_version"`
	ModVersion      string           `json:"mod_version"`
	SnapshotID      string           `json:"snapshot_id"`
	LastUpdate      string           `json:"last_update"`
	LastUpdateStamp int64            `json:"last_update_stamp"`
	Server          goccy.RawMessage `json:"server,omitempty"`
	Stats           goccy.RawMessage `json:"stats,omitempty"`
	Players         goccy.RawMessage `json:"players,omitempty"`
}

// sections is the subset document served for partial flag sets.
type sections struct {
	Server  goccy.RawMessage `json:"server,omitempty"`
	Stats   goccy.RawMessage `json:"stats,omitempty"`
	Players goccy.RawMessage `json:"players,omitempty"`
}

type serverRecord struct {
	Name            string `json:"name"`
	Host            string `json:"host,omitempty"`
	Port            int    `json:"port,omitempty"`
	OS              string `json:"os"`
	Net             string `json:"net"`
	Core            string `json:"core"`
	Assembly        string `json:"assembly"`
	AssemblyVersion string `json:"assembly_version"`
}

type guildRecord struct {
	ID   int32  `json:"id"`
	Name string `json:"name"`
	Abbr string `json:"abbr"`
}

type statsRecord struct {
	Cap     int `json:"cap"`
	Total   int `json:"total"`
	Str     int `json:"str"`
	StrRaw  int `json:"str_raw"`
	Dex     int `json:"dex"`
	DexRaw  int `json:"dex_raw"`
	Int     int `json:"int"`
	IntRaw  int `json:"int_raw"`
	Hits    int `json:"hits"`
	HitsMax int `json:"hits_max"`
	Stam    int `json:"stam"`
	StamMax int `json:"stam_max"`
	Mana    int `json:"mana"`
	ManaMax int `json:"mana_max"`
}

type skillRecord struct {
	ID    int32   `json:"id"`
	Name  string  `json:"name"`
	Base  float64 `json:"base"`
	Value float64 `json:"value"`
	Cap   float64 `json:"cap"`
}

type equipRecord struct {
	ID    int32  `json:"id"`
	Type  string `json:"type"`
	Layer int    `json:"layer"`
	Art   int32  `json:"art"`
	Hue   int32  `json:"hue"`
	Name  string `json:"name"`
}

type playerRecord struct {
	ID      int32          `json:"id"`
	Name    string         `json:"name"`
	Title   string         `json:"title"`
	Profile string         `json:"profile"`
	Fame    int32          `json:"fame"`
	Karma   int32          `json:"karma"`
	Kills   int32          `json:"kills"`
	Guild   *guildRecord   `json:"guild,omitempty"`
	Stats   *statsRecord   `json:"stats,omitempty"`
	Skills  *[]skillRecord `json:"skills,omitempty"`
	Equip   *[]equipRecord `json:"equip,omitempty"`
}

// jsonArtifact is a published JSON snapshot plus its encoded sections.
type jsonArtifact struct {
	full     []byte
	server   goccy.RawMessage
	stats    goccy.RawMessage
	players  goccy.RawMessage
	filtered map[Flags][]byte
}

// filter returns the document restricted to the sections in f. Partial
// documents are encoded once per flag set and then reused.
func (a *jsonArtifact) filter(f Flags) []byte {
	if !f.Partial() {
		return a.full
	}
	return a.filtered[f&FlagAll]
}

// snapshotBuilder assembles one document from a census and the metric
// table, attaching optional parts according to the options.
type snapshotBuilder struct {
	opts    Options
	census  Census
	metrics []Entry
	at      time.Time
}

func (b *snapshotBuilder) build() (*jsonArtifact, error) {
	a := &jsonArtifact{filtered: make(map[Flags][]byte, 6)}
	var err error

	if b.opts.DisplayServer {
		if a.server, err = goccy.Marshal(b.server()); err != nil {
			return nil, fmt.Errorf("encode server: %w", err)
		}
	}
	if b.opts.DisplayStats {
		stats := make(map[string]Entry, len(b.metrics))
		for _, e := range b.metrics {
			stats[e.Key] = e
		}
		if a.stats, err = goccy.Marshal(stats); err != nil {
			return nil, fmt.Errorf("encode stats: %w", err)
		}
	}
	if b.opts.DisplayPlayers {
		if a.players, err = goccy.Marshal(b.players()); err != nil {
			return nil, fmt.Errorf("encode players: %w", err)
		}
	}

	doc := document{
		VncVersion:      Version,
		ModVersion:      b.opts.ModuleVersion,
		SnapshotID:      uuid.NewString(),
		LastUpdate:      b.at.UTC().Format(time.RFC3339),
		LastUpdateStamp: b.at.Unix(),
		Server:          a.server,
		Stats:           a.stats,
		Players:         a.players,
	}
	if a.full, err = goccy.Marshal(doc); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	for f := FlagServer; f < FlagAll; f++ {
		var s sections
		if f.Has(FlagServer) {
			s.Server = a.server
		}
		if f.Has(FlagStats) {
			s.Stats = a.stats
		}
		if f.Has(FlagPlayers) {
			s.Players = a.players
		}
		raw, err := goccy.Marshal(s)
		if err != nil {
			return nil, fmt.Errorf("encode sections %s: %w", f, err)
		}
		a.filtered[f] = raw
	}
	return a, nil
}

func (b *snapshotBuilder) server() serverRecord {
	rec := serverRecord{
		Name:            b.opts.ServerName,
		OS:              runtime.GOOS + "/" + runtime.GOARCH,
		Net:             runtime.Version(),
		Core:            b.opts.Core,
		Assembly:        "webstats",
		AssemblyVersion: Version,
	}
	if b.opts.Host != "" {
		rec.Host = b.opts.Host
		rec.Port = b.opts.Port
	}
	return rec
}

// players lists online players grouped by remote address, in the order
// each address was first seen.
func (b *snapshotBuilder) players() []playerRecord {
	byAddr := make(map[string][]*Player)
	var order []string
	for _, c := range b.census.Connections {
		if c.Player == nil {
			continue
		}
		k := c.Addr.String()
		if _, ok := byAddr[k]; !ok {
			order = append(order, k)
		}
		byAddr[k] = append(byAddr[k], c.Player)
	}

	out := make([]playerRecord, 0, len(b.census.Connections))
	for _, k := range order {
		for _, p := range byAddr[k] {
			out = append(out, b.player(p))
		}
	}
	return out
}

func (b *snapshotBuilder) player(p *Player) playerRecord {
	rec := playerRecord{
		ID:      p.ID,
		Name:    p.Name,
		Title:   p.Title,
		Profile: p.Profile,
		Fame:    p.Fame,
		Karma:   p.Karma,
		Kills:   p.Kills,
	}
	if b.opts.DisplayPlayerGuilds && p.Guild != nil {
		rec.Guild = &guildRecord{ID: p.Guild.ID, Name: p.Guild.Name, Abbr: p.Guild.Abbr}
	}
	if b.opts.DisplayPlayerStats {
		a := p.Stats
		rec.Stats = &statsRecord{
			Cap:     b.opts.StatCap,
			Total:   a.StrRaw + a.DexRaw + a.IntRaw,
			Str:     a.Str,
			StrRaw:  a.StrRaw,
			Dex:     a.Dex,
			DexRaw:  a.DexRaw,
			Int:     a.Int,
			IntRaw:  a.IntRaw,
			Hits:    a.Hits,
			HitsMax: a.HitsMax,
			Stam:    a.Stam,
			StamMax: a.StamMax,
			Mana:    a.Mana,
			ManaMax: a.ManaMax,
		}
	}
	if b.opts.DisplayPlayerSkills {
		skills := make([]skillRecord, 0, len(b.census.Skills))
		for _, def := range b.census.Skills {
			lvl, ok := p.Skills[def.ID]
			if !ok {
				lvl.Cap = def.Cap
			}
			skills = append(skills, skillRecord{
				ID:    def.ID,
				Name:  def.Name,
				Base:  lvl.Base,
				Value: lvl.Value,
				Cap:   lvl.Cap,
			})
		}
		rec.Skills = &skills
	}
	if b.opts.DisplayPlayerEquip {
		equip := make([]equipRecord, 0, len(p.Equip))
		for _, it := range p.Equip {
			equip = append(equip, equipRecord{
				ID:    it.ID,
				Type:  it.Type,
				Layer: it.Layer,
				Art:   it.Art,
				Hue:   it.Hue,
				Name:  it.Name,
			})
		}
		rec.Equip = &equip
	}
	return rec
}
