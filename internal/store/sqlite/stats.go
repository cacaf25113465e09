package sqlite

import (
	"context"

	"github.com/fairytaleapp/fairytale-server/internal/domain"
	"github.com/fairytaleapp/fairytale-server/internal/store"
)

// Stats computes aggregate counts for the admin dashboard.
func (s *Store) Stats(ctx context.Context) (*store.Stats, error) {
	stats := &store.Stats{
		ContentKinds: make(map[string]int),
	}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stories`).Scan(&stats.TotalStories)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT story_id) FROM story_contents WHERE kind = ?`,
		string(domain.ContentAudio)).Scan(&stats.AudioStories)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT story_id) FROM story_contents WHERE kind = ?`,
		string(domain.ContentTranslatedText)).Scan(&stats.TranslatedStories)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM story_contents GROUP BY kind`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ContentKinds[kind] = n
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `
		SELECT t.name, COUNT(*) AS n
		FROM user_tag_history h
		JOIN tags t ON t.id = h.tag_id
		GROUP BY t.name
		ORDER BY n DESC, t.name
		LIMIT 10`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var tc store.TagCount
		if err := rows.Scan(&tc.TagName, &tc.Count); err != nil {
			return nil, err
		}
		stats.PopularTags = append(stats.PopularTags, tc)
	}
	return stats, rows.Err()
}
