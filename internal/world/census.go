package world

import (
	"fmt"
	"runtime"

	"github.com/l1jgo/webstats/internal/data"
	"github.com/l1jgo/webstats/internal/webstats"
)

// Census implements webstats.Provider over the last synced world. Uptime
// and memory come from the game's ServerStatus; without one they fall
// back to the configured start time and the heap of this process.
func (s *State) Census() (webstats.Census, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.syncedAt.IsZero() {
		return webstats.Census{}, fmt.Errorf("world not synced yet")
	}

	start, memory := s.startTime, int64(0)
	if st := s.status; st != nil {
		if !st.StartedAt.IsZero() {
			start = st.StartedAt
		}
		memory = st.HeapBytes
	}
	if memory <= 0 {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		memory = int64(ms.HeapAlloc)
	}

	c := webstats.Census{
		StartTime:   start,
		Connections: make([]webstats.Connection, 0, len(s.players)),
		Items:       s.itemCountLocked(),
		Mobiles:     len(s.players),
		Guilds:      s.clans.ClanCount(),
		Memory:      memory,
		Skills:      s.skillDefs(),
	}
	for _, sp := range s.spawns {
		c.Mobiles += int(sp.Count)
	}
	for _, p := range s.players {
		c.Connections = append(c.Connections, webstats.Connection{
			Addr:   p.Addr,
			Player: s.censusPlayer(p),
		})
	}
	return c, nil
}

func (s *State) skillDefs() []webstats.SkillDef {
	if s.skills == nil {
		return nil
	}
	all := s.skills.All()
	defs := make([]webstats.SkillDef, len(all))
	for i, sk := range all {
		defs[i] = webstats.SkillDef{ID: sk.SkillID, Name: sk.Name, Cap: skillCap(sk)}
	}
	return defs
}

func skillCap(sk *data.SkillInfo) float64 {
	if sk.Cap > 0 {
		return float64(sk.Cap)
	}
	return data.DefaultSkillCap
}

func (s *State) censusPlayer(p *PlayerInfo) *webstats.Player {
	bonus := s.EquipBonuses(p)
	out := &webstats.Player{
		ID:      p.CharID,
		Name:    p.Name,
		Title:   p.Title,
		Profile: p.Profile,
		Fame:    p.Fame,
		Karma:   p.Lawful,
		Kills:   p.PKCount,
		Stats: webstats.Attributes{
			Str:     int(p.Str) + bonus.AddStr,
			StrRaw:  int(p.Str),
			Dex:     int(p.Dex) + bonus.AddDex,
			DexRaw:  int(p.Dex),
			Int:     int(p.Intel) + bonus.AddInt,
			IntRaw:  int(p.Intel),
			Hits:    int(p.HP),
			HitsMax: int(p.MaxHP),
			Stam:    int(p.Food),
			StamMax: MaxFood,
			Mana:    int(p.MP),
			ManaMax: int(p.MaxMP),
		},
		Skills: make(map[int32]webstats.SkillLevel, len(p.Skills)),
	}

	if clan := s.clans.GetClan(p.ClanID); clan != nil {
		out.Guild = &webstats.Guild{ID: clan.ClanID, Name: clan.ClanName, Abbr: clan.Abbr()}
	}

	for id, sp := range p.Skills {
		lvl := webstats.SkillLevel{Base: sp.Base, Value: sp.Value, Cap: data.DefaultSkillCap}
		if s.skills != nil {
			if sk := s.skills.Get(id); sk != nil {
				lvl.Cap = skillCap(sk)
			}
		}
		out.Skills[id] = lvl
	}

	p.Equip.Each(func(slot EquipSlot, it *InvItem) {
		out.Equip = append(out.Equip, s.censusEquip(slot, it))
	})
	return out
}

func (s *State) censusEquip(slot EquipSlot, it *InvItem) webstats.EquipItem {
	e := webstats.EquipItem{
		ID:    it.ObjectID,
		Type:  "item",
		Layer: int(slot),
		Hue:   int32(it.Bless),
		Name:  it.Name,
	}
	if s.items != nil {
		if info := s.items.Get(it.ItemID); info != nil {
			e.Type = info.Category.String()
			if info.Type != "" {
				e.Type = info.Type
			}
			e.Art = info.InvGfx
			if e.Name == "" {
				e.Name = info.Name
			}
		}
	}
	if it.EnchantLvl > 0 {
		e.Name = fmt.Sprintf("+%d %s", it.EnchantLvl, e.Name)
	}
	return e
}
