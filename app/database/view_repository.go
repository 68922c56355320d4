package database

import (
	"fmt"
	"time"
)

var _ ViewRepository = (*SQLiteViewRepository)(nil)

type SQLiteViewRepository struct {
	db *DB
}

func NewViewRepository(db *DB) *SQLiteViewRepository {
	return &SQLiteViewRepository{db: db}
}

func (r *SQLiteViewRepository) RecordView(slug string, succeeded bool) error {
	_, err := r.db.Exec(`
		INSERT INTO post_views (slug, succeeded, viewed_at)
		VALUES (?, ?, ?)
	`, slug, succeeded, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("failed to record view: %w", err)
	}

	return nil
}

// GetViewStats returns per-post counters, most viewed first.
func (r *SQLiteViewRepository) GetViewStats() ([]PostViewStats, error) {
	rows, err := r.db.Query(`
		SELECT slug,
		       SUM(CASE WHEN succeeded = 1 THEN 1 ELSE 0 END) AS views,
		       SUM(CASE WHEN succeeded = 0 THEN 1 ELSE 0 END) AS failures,
		       MAX(viewed_at) AS last_viewed
		FROM post_views
		GROUP BY slug
		ORDER BY views DESC, slug ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get view stats: %w", err)
	}
	defer rows.Close()

	var stats []PostViewStats
	for rows.Next() {
		var s PostViewStats
		var lastViewed string
		if err := rows.Scan(&s.Slug, &s.Views, &s.Failures, &lastViewed); err != nil {
			return nil, fmt.Errorf("failed to scan view stats row: %w", err)
		}
		s.LastViewed = parseTimestamp(lastViewed)
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating view stats rows: %w", err)
	}

	return stats, nil
}

func (r *SQLiteViewRepository) GetTotalViews() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM post_views WHERE succeeded = 1").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get total views: %w", err)
	}
	return count, nil
}

// MAX() over a DATETIME column comes back as text from the sqlite driver.
func parseTimestamp(s string) time.Time {
	formats := []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
