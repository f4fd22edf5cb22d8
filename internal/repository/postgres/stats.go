package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/barysai/barysai/internal/models"
)

type QueryStatStore struct {
	db DBTX
}

func NewQueryStatStore(db DBTX) *QueryStatStore {
	return &QueryStatStore{db: db}
}

func (s *QueryStatStore) Record(ctx context.Context, userID int64, chatID, queryText string) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO query_stats (user_id, query_text, chat_id) VALUES ($1, $2, $3)`,
		userID, queryText, chatID,
	)
	if err != nil {
		return fmt.Errorf("insert query stat: %w", err)
	}
	return nil
}

// StatsStore answers the admin dashboard queries. Every user count
// filters on role = 'user'.
type StatsStore struct {
	db DBTX
}

func NewStatsStore(db DBTX) *StatsStore {
	return &StatsStore{db: db}
}

const topQueriesLimit = 10

func (s *StatsStore) Usage(ctx context.Context, since time.Time) (*models.UsageStats, error) {
	stats := models.UsageStats{TopQueries: make([]models.TopQuery, 0)}

	err := s.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE role = 'user'),
			(SELECT COUNT(*) FROM query_stats),
			(SELECT COUNT(*) FROM query_stats WHERE created_at >= $1)`,
		since,
	).Scan(&stats.UserCount, &stats.QueryCount, &stats.RecentQueries)
	if err != nil {
		return nil, fmt.Errorf("count usage: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT query_text, COUNT(*) AS query_count
		FROM query_stats
		GROUP BY query_text
		ORDER BY query_count DESC, query_text ASC
		LIMIT $1`,
		topQueriesLimit,
	)
	if err != nil {
		return nil, fmt.Errorf("top queries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q models.TopQuery
		if err := rows.Scan(&q.QueryText, &q.Count); err != nil {
			return nil, fmt.Errorf("scan top query: %w", err)
		}
		stats.TopQueries = append(stats.TopQueries, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top queries: %w", err)
	}
	return &stats, nil
}

// UserActivity counts distinct chats and the user's own messages in them.
// Users without chats still appear with zero counts.
func (s *StatsStore) UserActivity(ctx context.Context) ([]models.UserActivity, error) {
	rows, err := s.db.Query(ctx, `
		SELECT
			u.id, u.first_name, u.last_name, u.email, u.created_at,
			COUNT(DISTINCT c.chat_id) AS chat_count,
			COUNT(m.id) AS message_count
		FROM users u
		LEFT JOIN chats c ON u.id = c.user_id
		LEFT JOIN messages m ON c.chat_id = m.chat_id AND u.id = m.user_id
		WHERE u.role = 'user'
		GROUP BY u.id, u.first_name, u.last_name, u.email, u.created_at
		ORDER BY u.created_at DESC, u.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list user activity: %w", err)
	}
	defer rows.Close()

	users := make([]models.UserActivity, 0)
	for rows.Next() {
		var u models.UserActivity
		if err := rows.Scan(
			&u.ID,
			&u.FirstName,
			&u.LastName,
			&u.Email,
			&u.CreatedAt,
			&u.ChatCount,
			&u.MessageCount,
		); err != nil {
			return nil, fmt.Errorf("scan user activity: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user activity: %w", err)
	}
	return users, nil
}

func (s *StatsStore) Registrations(ctx context.Context, since time.Time) ([]models.DailyRegistrations, error) {
	rows, err := s.db.Query(ctx, `
		SELECT to_char(DATE(created_at), 'YYYY-MM-DD') AS date, COUNT(*) AS count
		FROM users
		WHERE created_at >= $1 AND role = 'user'
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at)`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	days := make([]models.DailyRegistrations, 0)
	for rows.Next() {
		var d models.DailyRegistrations
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, fmt.Errorf("scan registrations: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return days, nil
}
