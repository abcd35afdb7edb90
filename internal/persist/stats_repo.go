package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/l1jgo/webstats/internal/webstats"
)

// StatsRepo persists the metric table and the sample history.
type StatsRepo struct {
	db *DB
}

func NewStatsRepo(db *DB) *StatsRepo {
	return &StatsRepo{db: db}
}

// LoadMetrics returns the stored metric entries.
func (r *StatsRepo) LoadMetrics(ctx context.Context) ([]webstats.Entry, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT key, kind, value, max_value, peak_value FROM webstats_metrics`)
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var result []webstats.Entry
	for rows.Next() {
		var (
			key            string
			kind           int16
			val, maxV, peak int64
		)
		if err := rows.Scan(&key, &kind, &val, &maxV, &peak); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		k := webstats.Kind(kind)
		result = append(result, webstats.Entry{
			Key:   key,
			Value: webstats.RawValue(k, val),
			Max:   webstats.RawValue(k, maxV),
			Peak:  webstats.RawValue(k, peak),
		})
	}
	return result, rows.Err()
}

// SaveMetrics upserts the metric table in one batch.
func (r *StatsRepo) SaveMetrics(ctx context.Context, entries []webstats.Entry) error {
	batch := &pgx.Batch{}
	now := time.Now()
	for _, e := range entries {
		if !e.Value.IsSet() {
			continue
		}
		batch.Queue(
			`INSERT INTO webstats_metrics (key, kind, value, max_value, peak_value, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (key) DO UPDATE SET
			   kind = EXCLUDED.kind, value = EXCLUDED.value,
			   max_value = EXCLUDED.max_value, peak_value = EXCLUDED.peak_value,
			   updated_at = EXCLUDED.updated_at`,
			e.Key, int16(e.Value.Kind()), e.Value.Raw(), e.Max.Raw(), e.Peak.Raw(), now,
		)
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := r.db.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save metrics: %w", err)
	}
	return nil
}

// AppendHistory stores samples with a single COPY.
func (r *StatsRepo) AppendHistory(ctx context.Context, samples []webstats.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	_, err := r.db.Pool.CopyFrom(ctx,
		pgx.Identifier{"webstats_history"},
		[]string{"at", "online", "uniq", "items", "mobiles", "guilds", "memory"},
		pgx.CopyFromSlice(len(samples), func(i int) ([]any, error) {
			s := samples[i]
			return []any{s.At, int32(s.Online), int32(s.Unique), int32(s.Items), int32(s.Mobiles), int32(s.Guilds), s.Memory}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// LoadHistory returns samples taken at or after since, oldest first, at
// most limit rows (0 = no limit).
func (r *StatsRepo) LoadHistory(ctx context.Context, since time.Time, limit int) ([]webstats.Sample, error) {
	query := `SELECT at, online, uniq, items, mobiles, guilds, memory FROM (
	            SELECT * FROM webstats_history WHERE at >= $1 ORDER BY at DESC`
	args := []any{since}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	query += `) h ORDER BY at`

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var result []webstats.Sample
	for rows.Next() {
		var s webstats.Sample
		var online, uniq, items, mobiles, guilds int32
		if err := rows.Scan(&s.At, &online, &uniq, &items, &mobiles, &guilds, &s.Memory); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		s.Online, s.Unique, s.Items = int64(online), int64(uniq), int64(items)
		s.Mobiles, s.Guilds = int64(mobiles), int64(guilds)
		result = append(result, s)
	}
	return result, rows.Err()
}
