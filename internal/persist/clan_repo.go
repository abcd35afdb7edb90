package persist

import (
	"context"
	"fmt"

	"github.com/l1jgo/webstats/internal/world"
)

// ClanRepo reads clans.
type ClanRepo struct {
	db *DB
}

func NewClanRepo(db *DB) *ClanRepo {
	return &ClanRepo{db: db}
}

// LoadAll loads every clan. Members are attached from the online
// characters during the world sync.
func (r *ClanRepo) LoadAll(ctx context.Context) ([]*world.ClanInfo, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT clan_id, clan_name, abbreviation, leader_id, leader_name, found_date
		 FROM clans ORDER BY clan_id`)
	if err != nil {
		return nil, fmt.Errorf("query clans: %w", err)
	}
	defer rows.Close()

	var clans []*world.ClanInfo
	for rows.Next() {
		c := &world.ClanInfo{Members: make(map[int32]*world.ClanMember)}
		if err := rows.Scan(&c.ClanID, &c.ClanName, &c.Abbreviation, &c.LeaderID, &c.LeaderName, &c.FoundDate); err != nil {
			return nil, fmt.Errorf("scan clan: %w", err)
		}
		clans = append(clans, c)
	}
	return clans, rows.Err()
}
