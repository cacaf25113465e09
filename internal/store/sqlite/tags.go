package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/fairytaleapp/fairytale-server/internal/domain"
	"github.com/fairytaleapp/fairytale-server/internal/store"
)

// ListTags returns the full tag catalog ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}

// GetTag retrieves a tag by id.
func (s *Store) GetTag(ctx context.Context, id string) (*domain.Tag, error) {
	var t domain.Tag
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM tags WHERE id = ?`, id).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListUserTags returns a user's current tag set.
func (s *Store) ListUserTags(ctx context.Context, userID string) ([]*domain.UserTag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, tag_id, created_at FROM user_tags WHERE user_id = ? ORDER BY tag_id`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.UserTag
	for rows.Next() {
		var ut domain.UserTag
		var createdAt string
		if err := rows.Scan(&ut.UserID, &ut.TagID, &createdAt); err != nil {
			return nil, err
		}
		ut.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, err
		}
		tags = append(tags, &ut)
	}
	return tags, rows.Err()
}

// ReplaceUserTags swaps the user's tag set for tagIDs in one transaction:
// the previous set is removed, the new set inserted, each selected tag is
// appended to the history log, and its recommendation count incremented.
// An unknown tag id fails the foreign key and rolls back the whole update.
func (s *Store) ReplaceUserTags(ctx context.Context, userID string, tagIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM user_tags WHERE user_id = ?`, userID); err != nil {
		return err
	}

	now := formatTime(time.Now().UTC())
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO user_tags (user_id, tag_id, created_at)
			VALUES (?, ?, ?)`,
			userID, tagID, now)
		if err != nil {
			return replaceTagsErr(err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO user_tag_history (user_id, tag_id, created_at)
			VALUES (?, ?, ?)`,
			userID, tagID, now)
		if err != nil {
			return replaceTagsErr(err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO recommendations (user_id, tag_id, tag_count, updated_at)
			VALUES (?, ?, 1, ?)
			ON CONFLICT(user_id, tag_id) DO UPDATE SET
				tag_count = tag_count + 1,
				updated_at = excluded.updated_at`,
			userID, tagID, now)
		if err != nil {
			return replaceTagsErr(err)
		}
	}

	return tx.Commit()
}

func replaceTagsErr(err error) error {
	if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return store.ErrNotFound
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}
