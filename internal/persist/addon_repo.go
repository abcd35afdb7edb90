package persist

import (
	"context"
	"fmt"

	"github.com/l1jgo/webstats/internal/world"
	"go.uber.org/zap"
)

// AddonRepo stores placed addons as serialized records.
type AddonRepo struct {
	db *DB
}

func NewAddonRepo(db *DB) *AddonRepo {
	return &AddonRepo{db: db}
}

// Insert stores a placed addon and sets its ID.
func (r *AddonRepo) Insert(ctx context.Context, a *world.Addon) error {
	raw, err := a.Serialize()
	if err != nil {
		return err
	}
	err = r.db.Pool.QueryRow(ctx,
		`INSERT INTO house_addons (house_id, addon_id, data) VALUES ($1, $2, $3) RETURNING id`,
		a.HouseID, a.AddonID, raw,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert addon: %w", err)
	}
	return nil
}

// Delete removes a placed addon.
func (r *AddonRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM house_addons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete addon %d: %w", id, err)
	}
	return nil
}

// LoadAll decodes every placed addon. Records that fail to decode are
// logged and skipped.
func (r *AddonRepo) LoadAll(ctx context.Context) ([]*world.Addon, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, data FROM house_addons ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query addons: %w", err)
	}
	defer rows.Close()

	var result []*world.Addon
	for rows.Next() {
		var id int64
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan addon: %w", err)
		}
		a, err := world.DeserializeAddon(raw)
		if err != nil {
			r.db.log.Warn("家具資料損毀，略過", zap.Int64("id", id), zap.Error(err))
			continue
		}
		a.ID = id
		result = append(result, a)
	}
	return result, rows.Err()
}
