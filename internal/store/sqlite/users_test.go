package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fairytaleapp/fairytale-server/internal/domain"
	"github.com/fairytaleapp/fairytale-server/internal/store"
)

// makeTestUser creates a domain.User with sensible defaults for testing.
func makeTestUser(id, deviceID string) *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:          id,
		DeviceID:    deviceID,
		Name:        "Test User",
		CreatedAt:   now,
		LastLoginAt: now,
	}
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := makeTestUser("user-1", "device-abc")
	user.Email = "alice@example.com"
	user.IsAdmin = true

	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}

	if got.ID != user.ID {
		t.Errorf("ID: got %q, want %q", got.ID, user.ID)
	}
	if got.DeviceID != "device-abc" {
		t.Errorf("DeviceID: got %q, want %q", got.DeviceID, "device-abc")
	}
	if got.Email != "alice@example.com" {
		t.Errorf("Email: got %q, want %q", got.Email, "alice@example.com")
	}
	if !got.IsAdmin {
		t.Error("IsAdmin: expected true")
	}
	if got.ReferenceVoiceFileID != "" {
		t.Errorf("ReferenceVoiceFileID: expected empty, got %q", got.ReferenceVoiceFileID)
	}

	// Timestamps should round-trip through RFC3339Nano.
	if got.CreatedAt.Unix() != user.CreatedAt.Unix() {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, user.CreatedAt)
	}
	if got.LastLoginAt.Unix() != user.LastLoginAt.Unix() {
		t.Errorf("LastLoginAt: got %v, want %v", got.LastLoginAt, user.LastLoginAt)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetUser(context.Background(), "nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateUserDuplicateDevice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, makeTestUser("user-1", "device-1")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	err := s.CreateUser(ctx, makeTestUser("user-2", "device-1"))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetUserByDevice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, makeTestUser("user-1", "device-1")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUserByDevice(ctx, "device-1")
	if err != nil {
		t.Fatalf("GetUserByDevice: %v", err)
	}
	if got.ID != "user-1" {
		t.Errorf("ID: got %q, want %q", got.ID, "user-1")
	}

	_, err = s.GetUserByDevice(ctx, "device-unknown")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := makeTestUser("user-1", "device-1")
	user.Email = "bob@example.com"
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != "user-1" {
		t.Errorf("ID: got %q, want %q", got.ID, "user-1")
	}
}

func TestNullEmailsDoNotCollide(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Device-only users have no email; two of them must not trip the
	// unique index.
	if err := s.CreateUser(ctx, makeTestUser("user-1", "device-1")); err != nil {
		t.Fatalf("CreateUser user-1: %v", err)
	}
	if err := s.CreateUser(ctx, makeTestUser("user-2", "device-2")); err != nil {
		t.Fatalf("CreateUser user-2: %v", err)
	}
}

func TestUpdateUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user := makeTestUser("user-1", "device-1")
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	user.Name = "Renamed"
	user.ReferenceVoiceFileID = "file-voice-1"
	user.LastLoginAt = time.Now().UTC().Add(time.Hour)
	if err := s.UpdateUser(ctx, user); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	got, err := s.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Name != "Renamed" {
		t.Errorf("Name: got %q, want %q", got.Name, "Renamed")
	}
	if got.ReferenceVoiceFileID != "file-voice-1" {
		t.Errorf("ReferenceVoiceFileID: got %q, want %q", got.ReferenceVoiceFileID, "file-voice-1")
	}
}

func TestUpdateUserNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateUser(context.Background(), makeTestUser("ghost", "device-x"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := makeTestUser("user-old", "device-old")
	old.LastLoginAt = time.Now().UTC().Add(-time.Hour)
	recent := makeTestUser("user-new", "device-new")

	if err := s.CreateUser(ctx, old); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := s.CreateUser(ctx, recent); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].ID != "user-new" {
		t.Errorf("expected most recent login first, got %q", users[0].ID)
	}
}

func TestStoryCountsByUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUser(ctx, makeTestUser("user-1", "device-1")); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	for _, id := range []string{"story-a", "story-b"} {
		if err := s.CreateStory(ctx, makeTestStory(id, "user-1")); err != nil {
			t.Fatalf("CreateStory %s: %v", id, err)
		}
	}

	counts, err := s.StoryCountsByUser(ctx)
	if err != nil {
		t.Fatalf("StoryCountsByUser: %v", err)
	}
	if counts["user-1"] != 2 {
		t.Errorf("user-1: got %d stories, want 2", counts["user-1"])
	}
}
