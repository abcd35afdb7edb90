package world

import (
	"net/netip"
	"sync"
	"time"

	"github.com/l1jgo/webstats/internal/data"
)

// MaxFood is a full satiety bar.
const MaxFood = 225

// SkillProgress is a character's standing in one skill.
type SkillProgress struct {
	Base  float64
	Value float64 // base plus item and buff bonuses
}

// PlayerInfo holds data for a character currently in-world, as last read
// from the game database.
type PlayerInfo struct {
	CharID      int32 // DB ID
	AccountName string
	Addr        netip.Addr // remote address of the owning session
	Name        string
	Title       string
	Profile     string
	ClassID     int32 // GFX
	Level       int16
	Lawful      int32 // reported as karma
	Fame        int32
	PKCount     int32 // reported as kills
	ClanID      int32
	ClanRank    int16
	HP          int16
	MaxHP       int16
	MP          int16
	MaxMP       int16
	Food        int16 // satiety 0-225, reported as stamina
	Str         int16 // base, before equipment
	Dex         int16
	Intel       int16

	Skills map[int32]SkillProgress
	Inv    *Inventory
	Equip  Equipment
}

// ServerStatus is what the game server reports about its own process.
type ServerStatus struct {
	StartedAt time.Time
	HeapBytes int64
	UpdatedAt time.Time
}

// WorldSnapshot is everything one sync reads from the database.
type WorldSnapshot struct {
	Players     []*PlayerInfo // login order
	Clans       []*ClanInfo
	Spawns      []NpcSpawn
	GroundItems []*GroundItem
	Addons      []*Addon
	Status      *ServerStatus // nil when the game publishes none
}

// State is the in-memory census of the game world. The sync system
// replaces it wholesale; HTTP handlers and the tick loop read it.
type State struct {
	mu sync.RWMutex

	startTime time.Time
	skills    *data.SkillTable
	items     *data.ItemTable

	players  []*PlayerInfo
	clans    *ClanManager
	spawns   []NpcSpawn
	ground   []*GroundItem
	addons   []*Addon
	status   *ServerStatus
	syncedAt time.Time
}

// NewState creates an empty world. startTime is used as the game server's
// boot time until a sync brings a ServerStatus.
func NewState(startTime time.Time, skills *data.SkillTable, items *data.ItemTable) *State {
	return &State{
		startTime: startTime,
		skills:    skills,
		items:     items,
		clans:     NewClanManager(),
	}
}

// Replace swaps in a freshly read world. Equipment is rebuilt from the
// equipped inventory items.
func (s *State) Replace(ws WorldSnapshot, at time.Time) {
	clans := NewClanManager()
	for _, c := range ws.Clans {
		clans.AddClan(c)
	}
	for _, p := range ws.Players {
		s.equip(p)
		if p.ClanID != 0 {
			clans.AddMember(p.ClanID, &ClanMember{CharID: p.CharID, CharName: p.Name, Rank: p.ClanRank})
		}
	}

	s.mu.Lock()
	s.players = ws.Players
	s.clans = clans
	s.spawns = ws.Spawns
	s.ground = ws.GroundItems
	s.addons = ws.Addons
	s.status = ws.Status
	s.syncedAt = at
	s.mu.Unlock()
}

func (s *State) equip(p *PlayerInfo) {
	p.Equip = Equipment{}
	if p.Inv == nil {
		p.Inv = NewInventory()
		return
	}
	for _, it := range p.Inv.Items {
		if !it.Equipped {
			continue
		}
		slot := s.slotFor(it)
		if slot == SlotRing1 && p.Equip.Get(SlotRing1) != nil {
			slot = SlotRing2
		}
		p.Equip.Set(slot, it)
	}
}

func (s *State) slotFor(it *InvItem) EquipSlot {
	if s.items == nil {
		return SlotNone
	}
	info := s.items.Get(it.ItemID)
	if info == nil {
		return SlotNone
	}
	switch info.Category {
	case data.CategoryWeapon:
		return SlotWeapon
	case data.CategoryArmor:
		return ArmorSlotFromType(info.Type)
	}
	return SlotNone
}

// EquipBonuses sums the stat bonuses of p's equipment.
func (s *State) EquipBonuses(p *PlayerInfo) EquipStats {
	var st EquipStats
	if s.items == nil {
		return st
	}
	p.Equip.Each(func(_ EquipSlot, it *InvItem) {
		if info := s.items.Get(it.ItemID); info != nil {
			st.AddStr += int(info.AddStr)
			st.AddDex += int(info.AddDex)
			st.AddInt += int(info.AddInt)
		}
	})
	return st
}

// PlayerCount returns the number of characters in-world.
func (s *State) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// Clans returns the clan index of the last sync.
func (s *State) Clans() *ClanManager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clans
}

// NpcCount returns the number of spawned NPCs.
func (s *State) NpcCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, sp := range s.spawns {
		n += int(sp.Count)
	}
	return n
}

// ItemCount counts item instances in the world: inventories, the ground
// and each placed addon component.
func (s *State) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemCountLocked()
}

func (s *State) itemCountLocked() int {
	n := len(s.ground)
	for _, p := range s.players {
		if p.Inv != nil {
			n += p.Inv.Size()
		}
	}
	for _, a := range s.addons {
		n += len(a.Components)
	}
	return n
}

// Addons returns the placed addons of the last sync.
func (s *State) Addons() []*Addon {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addons
}

// SyncedAt is the time of the last Replace.
func (s *State) SyncedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncedAt
}
