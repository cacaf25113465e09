package sqlite

import (
	"context"
	"time"

	"github.com/fairytaleapp/fairytale-server/internal/domain"
	"github.com/fairytaleapp/fairytale-server/internal/store"
)

// ListRecommendations returns a user's recommendation rows joined with tag
// names, highest count first.
func (s *Store) ListRecommendations(ctx context.Context, userID string) ([]*domain.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.user_id, r.tag_id, t.name, r.tag_count, r.updated_at
		FROM recommendations r
		JOIN tags t ON t.id = r.tag_id
		WHERE r.user_id = ?
		ORDER BY r.tag_count DESC, t.name`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*domain.Recommendation
	for rows.Next() {
		var r domain.Recommendation
		var updatedAt string
		if err := rows.Scan(&r.UserID, &r.TagID, &r.TagName, &r.TagCount, &updatedAt); err != nil {
			return nil, err
		}
		r.UpdatedAt, err = parseTime(updatedAt)
		if err != nil {
			return nil, err
		}
		recs = append(recs, &r)
	}
	return recs, rows.Err()
}

// AggregateTagHistory counts how many times the user selected each tag
// across the full history log.
func (s *Store) AggregateTagHistory(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tag_id, COUNT(*) FROM user_tag_history
		WHERE user_id = ?
		GROUP BY tag_id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var tagID string
		var n int
		if err := rows.Scan(&tagID, &n); err != nil {
			return nil, err
		}
		counts[tagID] = n
	}
	return counts, rows.Err()
}

// ListHistoryUserIDs returns the distinct users that have tag history.
func (s *Store) ListHistoryUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM user_tag_history ORDER BY user_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertRecommendationCounts writes a batch of recomputed counts in one
// transaction, so a reader never sees a half-applied recompute.
func (s *Store) UpsertRecommendationCounts(ctx context.Context, counts []store.RecommendationCount) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := formatTime(time.Now().UTC())
	for _, rc := range counts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recommendations (user_id, tag_id, tag_count, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(user_id, tag_id) DO UPDATE SET
				tag_count = excluded.tag_count,
				updated_at = excluded.updated_at`,
			rc.UserID, rc.TagID, rc.Count, now)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
