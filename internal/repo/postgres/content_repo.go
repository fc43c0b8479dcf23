package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ContentRepo struct {
	pool *pgxpool.Pool
}

type ContentRecord struct {
	ID          string
	Title       string
	Description string
	Tier        string
	EventDate   time.Time
	ImageURL    *string
	Category    *string
}

func NewContentRepo(pool *pgxpool.Pool) *ContentRepo {
	return &ContentRepo{pool: pool}
}

// ListByTiers returns events whose required tier is in the given set,
// ordered by event date ascending. The tier set is the access filter; the
// repo applies it verbatim and does not re-derive visibility.
func (r *ContentRepo) ListByTiers(ctx context.Context, tierIDs []string) ([]ContentRecord, error) {
	if len(tierIDs) == 0 {
		return []ContentRecord{}, nil
	}
	if r.pool == nil {
		return []ContentRecord{}, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, title, description, tier, event_date, image_url, category
FROM events
WHERE tier = ANY($1)
ORDER BY event_date ASC, id ASC
`, tierIDs)
	if err != nil {
		return nil, fmt.Errorf("list events by tiers: %w", err)
	}
	defer rows.Close()

	out := make([]ContentRecord, 0, 32)
	for rows.Next() {
		var record ContentRecord
		if err := rows.Scan(
			&record.ID,
			&record.Title,
			&record.Description,
			&record.Tier,
			&record.EventDate,
			&record.ImageURL,
			&record.Category,
		); err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	return out, nil
}
