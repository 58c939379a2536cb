package order

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// StatsRepository serves read-only reporting queries.
type StatsRepository interface {
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}

type sqlxStatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) StatsRepository {
	return &sqlxStatsRepository{db: db}
}

type statusCount struct {
	Status Status `db:"status"`
	Count  int64  `db:"count"`
}

func (r *sqlxStatsRepository) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	var rows []statusCount
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM orders GROUP BY status`); err != nil {
		return nil, fmt.Errorf("repository: failed to count orders by status: %w", err)
	}

	counts := make(map[Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
