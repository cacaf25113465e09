package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminListUsers(t *testing.T) {
	stories, s, files, _ := newStoryService(t)
	admin := NewAdminService(s, files, stories, testLogger())
	ctx := context.Background()

	createUser(t, s, "user-1")
	createUser(t, s, "user-2")

	_, err := stories.Generate(ctx, "user-1", GenerateStoryInput{Title: "A", Prompt: "p"})
	require.NoError(t, err)
	_, err = stories.Generate(ctx, "user-1", GenerateStoryInput{Title: "B", Prompt: "p"})
	require.NoError(t, err)

	users, err := admin.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	counts := make(map[string]int)
	for _, u := range users {
		counts[u.ID] = u.StoryCount
	}
	assert.Equal(t, 2, counts["user-1"])
	assert.Zero(t, counts["user-2"])
}

func TestAdminStats(t *testing.T) {
	stories, s, files, _ := newStoryService(t)
	admin := NewAdminService(s, files, stories, testLogger())
	ctx := context.Background()

	createUser(t, s, "user-1")
	_, err := stories.Generate(ctx, "user-1", GenerateStoryInput{Title: "A", Prompt: "p"})
	require.NoError(t, err)

	stats, err := admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalUsers)
	assert.Equal(t, 1, stats.TotalStories)
	assert.Equal(t, 1, stats.ContentKinds["text"])
}

func TestAdminDeleteStory(t *testing.T) {
	stories, s, files, _ := newStoryService(t)
	admin := NewAdminService(s, files, stories, testLogger())
	ctx := context.Background()

	createUser(t, s, "user-1")
	story, err := stories.Generate(ctx, "user-1", GenerateStoryInput{Title: "A", Prompt: "p"})
	require.NoError(t, err)

	// Admin deletes another user's story through the same cascade path.
	require.NoError(t, admin.DeleteStory(ctx, story.ID))

	list, err := stories.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAdminListStorageFiles(t *testing.T) {
	stories, s, files, _ := newStoryService(t)
	admin := NewAdminService(s, files, stories, testLogger())
	ctx := context.Background()

	_, err := files.Upload(ctx, []byte("data"), "audio_story-1.wav")
	require.NoError(t, err)

	infos, err := admin.ListStorageFiles(ctx, "")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, int64(4), infos[0].Size)
}
