package persist

import (
	"context"
	"fmt"
	"net/netip"

	"github.com/l1jgo/webstats/internal/world"
)

// CharacterRepo reads in-world characters.
type CharacterRepo struct {
	db *DB
}

func NewCharacterRepo(db *DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

// LoadOnline returns every online character in login order, with the
// remote address of its account.
func (r *CharacterRepo) LoadOnline(ctx context.Context) ([]*world.PlayerInfo, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT c.id, c.account_name, c.name, c.title, c.profile,
		        c.class_id, c.level, c.lawful, c.fame, c.pk_count,
		        c.clan_id, c.clan_rank, c.hp, c.max_hp, c.mp, c.max_mp, c.food,
		        c.str, c.dex, c.intel, COALESCE(a.ip,'')
		 FROM characters c
		 JOIN accounts a ON a.name = c.account_name
		 WHERE c.online AND c.deleted_at IS NULL
		 ORDER BY c.login_at NULLS LAST, c.id`)
	if err != nil {
		return nil, fmt.Errorf("query online characters: %w", err)
	}
	defer rows.Close()

	var result []*world.PlayerInfo
	for rows.Next() {
		p := &world.PlayerInfo{}
		var ip string
		if err := rows.Scan(
			&p.CharID, &p.AccountName, &p.Name, &p.Title, &p.Profile,
			&p.ClassID, &p.Level, &p.Lawful, &p.Fame, &p.PKCount,
			&p.ClanID, &p.ClanRank, &p.HP, &p.MaxHP, &p.MP, &p.MaxMP, &p.Food,
			&p.Str, &p.Dex, &p.Intel, &ip,
		); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		p.Addr = parseAddr(ip)
		result = append(result, p)
	}
	return result, rows.Err()
}

// LoadSkills returns skill standings keyed by character ID.
func (r *CharacterRepo) LoadSkills(ctx context.Context, charIDs []int32) (map[int32]map[int32]world.SkillProgress, error) {
	out := make(map[int32]map[int32]world.SkillProgress, len(charIDs))
	if len(charIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Pool.Query(ctx,
		`SELECT char_id, skill_id, base, value
		 FROM character_skills WHERE char_id = ANY($1)`, charIDs)
	if err != nil {
		return nil, fmt.Errorf("query skills: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var charID, skillID int32
		var sp world.SkillProgress
		if err := rows.Scan(&charID, &skillID, &sp.Base, &sp.Value); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		m := out[charID]
		if m == nil {
			m = make(map[int32]world.SkillProgress)
			out[charID] = m
		}
		m[skillID] = sp
	}
	return out, rows.Err()
}

// parseAddr accepts a bare IP or "ip:port"; anything else maps to the
// invalid address so unknown peers still group together.
func parseAddr(s string) netip.Addr {
	if a, err := netip.ParseAddr(s); err == nil {
		return a.Unmap()
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap()
	}
	return netip.Addr{}
}
