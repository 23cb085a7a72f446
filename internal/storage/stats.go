package storage

import (
	"context"
	"fmt"
	"time"
)

func (s *Storage) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("storage.CountUsers: %w", err)
	}
	return n, nil
}

// CountActiveUsers counts users seen after since.
func (s *Storage) CountActiveUsers(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	query := s.db.Rebind(`SELECT COUNT(*) FROM users WHERE last_active >= ?`)
	if err := s.db.GetContext(ctx, &n, query, formatTime(since)); err != nil {
		return 0, fmt.Errorf("storage.CountActiveUsers: %w", err)
	}
	return n, nil
}

// TopPurchasers ranks users by the number of closed orders.
func (s *Storage) TopPurchasers(ctx context.Context, limit int) ([]UserStat, error) {
	query := s.db.Rebind(`
		SELECT
			COALESCE(u.first_name, '') AS first_name,
			COALESCE(u.last_name, '') AS last_name,
			COALESCE(u.phone, '') AS phone,
			COUNT(o.id) AS total
		FROM orders o
		JOIN users u ON o.user_id = u.id
		WHERE o.status = 'closed'
		GROUP BY u.id, u.first_name, u.last_name, u.phone
		ORDER BY total DESC, u.id DESC
		LIMIT ?`)

	var rows []UserStat
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("storage.TopPurchasers: %w", err)
	}
	return rows, nil
}

// TopActiveUsers ranks users by activity counter, most recent first on ties.
func (s *Storage) TopActiveUsers(ctx context.Context, limit int) ([]UserStat, error) {
	query := s.db.Rebind(`
		SELECT
			COALESCE(first_name, '') AS first_name,
			COALESCE(last_name, '') AS last_name,
			COALESCE(phone, '') AS phone,
			activity_count AS total
		FROM users
		ORDER BY activity_count DESC, last_active DESC
		LIMIT ?`)

	var rows []UserStat
	if err := s.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("storage.TopActiveUsers: %w", err)
	}
	return rows, nil
}
