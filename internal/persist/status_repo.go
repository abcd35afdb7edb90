package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/l1jgo/webstats/internal/world"
)

// StatusRepo reads the row the game server keeps in server_status.
type StatusRepo struct {
	db *DB
}

func NewStatusRepo(db *DB) *StatusRepo {
	return &StatusRepo{db: db}
}

// Load returns the status of serverID, or nil when the game has not
// written one.
func (r *StatusRepo) Load(ctx context.Context, serverID int) (*world.ServerStatus, error) {
	st := &world.ServerStatus{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT started_at, heap_bytes, updated_at FROM server_status WHERE server_id = $1`, serverID,
	).Scan(&st.StartedAt, &st.HeapBytes, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query server status: %w", err)
	}
	return st, nil
}
