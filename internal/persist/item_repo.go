package persist

import (
	"context"
	"fmt"

	"github.com/l1jgo/webstats/internal/world"
)

type ItemRepo struct {
	db *DB
}

func NewItemRepo(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// LoadInventories returns the inventories of the given characters.
func (r *ItemRepo) LoadInventories(ctx context.Context, charIDs []int32) (map[int32]*world.Inventory, error) {
	out := make(map[int32]*world.Inventory, len(charIDs))
	if len(charIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, char_id, item_id, name, count, enchant_lvl, bless, equipped
		 FROM character_items WHERE char_id = ANY($1) ORDER BY id`, charIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			charID         int32
			enchant, bless int16
			it             world.InvItem
		)
		if err := rows.Scan(
			&it.ObjectID, &charID, &it.ItemID, &it.Name, &it.Count,
			&enchant, &bless, &it.Equipped,
		); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.EnchantLvl = byte(enchant)
		it.Bless = byte(bless)
		inv := out[charID]
		if inv == nil {
			inv = world.NewInventory()
			out[charID] = inv
		}
		inv.Add(&it)
	}
	return out, rows.Err()
}

// LoadGround returns every item lying on the ground.
func (r *ItemRepo) LoadGround(ctx context.Context) ([]*world.GroundItem, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, item_id, count, enchant_lvl, x, y, map_id, owner_id FROM ground_items`)
	if err != nil {
		return nil, fmt.Errorf("query ground items: %w", err)
	}
	defer rows.Close()

	var result []*world.GroundItem
	for rows.Next() {
		g := &world.GroundItem{}
		var enchant int16
		if err := rows.Scan(&g.ID, &g.ItemID, &g.Count, &enchant, &g.X, &g.Y, &g.MapID, &g.OwnerID); err != nil {
			return nil, fmt.Errorf("scan ground item: %w", err)
		}
		g.EnchantLvl = byte(enchant)
		result = append(result, g)
	}
	return result, rows.Err()
}
