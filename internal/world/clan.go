package world

import "sort"

// ClanMember holds data for a single clan member.
type ClanMember struct {
	CharID   int32
	CharName string
	Rank     int16
}

// ClanInfo holds in-memory data for a clan.
type ClanInfo struct {
	ClanID       int32
	ClanName     string
	Abbreviation string // short tag shown on the stats page
	LeaderID     int32
	LeaderName   string
	FoundDate    int32                 // Unix timestamp in seconds
	Members      map[int32]*ClanMember // charID → member
}

// MemberCount returns the number of members in the clan.
func (c *ClanInfo) MemberCount() int {
	return len(c.Members)
}

// Abbr returns the abbreviation, falling back to the first four letters of
// the name.
func (c *ClanInfo) Abbr() string {
	if c.Abbreviation != "" {
		return c.Abbreviation
	}
	r := []rune(c.ClanName)
	if len(r) > 4 {
		r = r[:4]
	}
	return string(r)
}

// ClanManager indexes clans by ID.
// Built once per sync and read-only afterwards.
type ClanManager struct {
	clans map[int32]*ClanInfo // clanID → clan
}

// NewClanManager creates an empty ClanManager.
func NewClanManager() *ClanManager {
	return &ClanManager{
		clans: make(map[int32]*ClanInfo),
	}
}

// GetClan returns a clan by its ID, or nil.
func (m *ClanManager) GetClan(clanID int32) *ClanInfo {
	return m.clans[clanID]
}

// ClanCount returns the total number of clans.
func (m *ClanManager) ClanCount() int {
	return len(m.clans)
}

// AddClan registers a clan.
func (m *ClanManager) AddClan(clan *ClanInfo) {
	if clan.Members == nil {
		clan.Members = make(map[int32]*ClanMember)
	}
	m.clans[clan.ClanID] = clan
}

// AddMember adds a member to a registered clan.
func (m *ClanManager) AddMember(clanID int32, member *ClanMember) {
	clan := m.clans[clanID]
	if clan == nil {
		return
	}
	clan.Members[member.CharID] = member
}

// All returns every clan ordered by ID.
func (m *ClanManager) All() []*ClanInfo {
	out := make([]*ClanInfo, 0, len(m.clans))
	for _, c := range m.clans {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClanID < out[j].ClanID })
	return out
}
