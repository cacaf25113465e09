package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/fairytaleapp/fairytale-server/internal/domain"
	"github.com/fairytaleapp/fairytale-server/internal/store"
)

const storyColumns = `id, user_id, title, wants_audio, wants_translation, created_at`

const contentColumns = `id, story_id, kind, file_id, text, created_at`

func scanStory(scanner interface{ Scan(dest ...any) error }) (*domain.Story, error) {
	var st domain.Story

	var (
		wantsAudio       int
		wantsTranslation int
		createdAt        string
	)

	err := scanner.Scan(
		&st.ID,
		&st.UserID,
		&st.Title,
		&wantsAudio,
		&wantsTranslation,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	st.WantsAudio = wantsAudio != 0
	st.WantsTranslation = wantsTranslation != 0

	st.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &st, nil
}

func scanContent(scanner interface{ Scan(dest ...any) error }) (*domain.StoryContent, error) {
	var c domain.StoryContent

	var (
		fileID    sql.NullString
		text      sql.NullString
		createdAt string
	)

	err := scanner.Scan(&c.ID, &c.StoryID, &c.Kind, &fileID, &text, &createdAt)
	if err != nil {
		return nil, err
	}

	c.FileID = fileID.String
	c.Text = text.String

	c.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// CreateStory inserts a story and any initial contents in one transaction.
func (s *Store) CreateStory(ctx context.Context, st *domain.Story) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO stories (id, user_id, title, wants_audio, wants_translation, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		st.ID,
		st.UserID,
		st.Title,
		boolToInt(st.WantsAudio),
		boolToInt(st.WantsTranslation),
		formatTime(st.CreatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	for _, c := range st.Contents {
		if err := insertContent(ctx, tx, c); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetStory retrieves a story with all of its contents.
func (s *Store) GetStory(ctx context.Context, id string) (*domain.Story, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE id = ?`, id)

	st, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	st.Contents, err = s.storyContents(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) storyContents(ctx context.Context, storyID string) ([]*domain.StoryContent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contentColumns+` FROM story_contents WHERE story_id = ? ORDER BY created_at, id`,
		storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contents []*domain.StoryContent
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, err
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}

// ListUserStories returns a user's stories, newest first, each with contents.
func (s *Store) ListUserStories(ctx context.Context, userID string) ([]*domain.Story, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+storyColumns+` FROM stories WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stories []*domain.Story
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, st := range stories {
		st.Contents, err = s.storyContents(ctx, st.ID)
		if err != nil {
			return nil, err
		}
	}

	if stories == nil {
		stories = []*domain.Story{}
	}
	return stories, nil
}

// DeleteStory removes a story and returns the file ids of its stored
// contents so the caller can clean up object storage. Contents are removed
// by the foreign key cascade.
func (s *Store) DeleteStory(ctx context.Context, id string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT file_id FROM story_contents WHERE story_id = ? AND file_id IS NOT NULL`, id)
	if err != nil {
		return nil, err
	}

	var fileIDs []string
	for rows.Next() {
		var fid string
		if err := rows.Scan(&fid); err != nil {
			rows.Close()
			return nil, err
		}
		fileIDs = append(fileIDs, fid)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	res, err := tx.ExecContext(ctx, `DELETE FROM stories WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return fileIDs, nil
}

// AddContent appends a content row to an existing story.
func (s *Store) AddContent(ctx context.Context, c *domain.StoryContent) error {
	err := insertContent(ctx, s.db, c)
	if err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return store.ErrNotFound
	}
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertContent(ctx context.Context, db execer, c *domain.StoryContent) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO story_contents (id, story_id, kind, file_id, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.StoryID,
		string(c.Kind),
		nullString(c.FileID),
		nullString(c.Text),
		formatTime(c.CreatedAt),
	)
	return err
}

// ListAudioPending returns stories that requested audio and do not yet
// have an audio content. The query is the source of idempotence for the
// audio stage: once an audio row exists the story drops out of the result
// set. Stories without a text content stay pending; the worker skips them.
func (s *Store) ListAudioPending(ctx context.Context) ([]*domain.Story, error) {
	return s.listPending(ctx, `
		SELECT `+storyColumns+` FROM stories s
		WHERE s.wants_audio = 1
		  AND NOT EXISTS (
			SELECT 1 FROM story_contents c
			WHERE c.story_id = s.id AND c.kind = ?
		  )
		ORDER BY s.created_at`,
		string(domain.ContentAudio))
}

// ListTranslationPending returns stories that requested translation and do
// not yet have a translated text content.
func (s *Store) ListTranslationPending(ctx context.Context) ([]*domain.Story, error) {
	return s.listPending(ctx, `
		SELECT `+storyColumns+` FROM stories s
		WHERE s.wants_translation = 1
		  AND NOT EXISTS (
			SELECT 1 FROM story_contents c
			WHERE c.story_id = s.id AND c.kind = ?
		  )
		ORDER BY s.created_at`,
		string(domain.ContentTranslatedText))
}

func (s *Store) listPending(ctx context.Context, query string, args ...any) ([]*domain.Story, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stories []*domain.Story
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, st := range stories {
		st.Contents, err = s.storyContents(ctx, st.ID)
		if err != nil {
			return nil, err
		}
	}
	return stories, nil
}
