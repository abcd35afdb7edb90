package persist

import (
	"context"
	"fmt"

	"github.com/l1jgo/webstats/internal/world"
)

type SpawnRepo struct {
	db *DB
}

func NewSpawnRepo(db *DB) *SpawnRepo {
	return &SpawnRepo{db: db}
}

// LoadAll returns the NPC spawn list.
func (r *SpawnRepo) LoadAll(ctx context.Context) ([]world.NpcSpawn, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, npc_id, name, map_id, count FROM npc_spawns ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query spawns: %w", err)
	}
	defer rows.Close()

	var result []world.NpcSpawn
	for rows.Next() {
		var s world.NpcSpawn
		if err := rows.Scan(&s.SpawnID, &s.NpcID, &s.Name, &s.MapID, &s.Count); err != nil {
			return nil, fmt.Errorf("scan spawn: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
