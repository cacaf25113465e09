package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fairytaleapp/fairytale-server/internal/domain"
	"github.com/fairytaleapp/fairytale-server/internal/sse"
	"github.com/fairytaleapp/fairytale-server/internal/storage"
	"github.com/fairytaleapp/fairytale-server/internal/store"
	"github.com/fairytaleapp/fairytale-server/internal/store/sqlite"
)

// fakeAI returns canned provider results.
type fakeAI struct {
	text      string
	enriched  string
	translate string
	err       error
}

func (f *fakeAI) GenerateText(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeAI) Enrich(_ context.Context, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.enriched, nil
}

func (f *fakeAI) Translate(_ context.Context, _ string, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.translate, nil
}

func (f *fakeAI) GenerateTextStream(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	chunks := make(chan string, 1)
	errc := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errc)
		if f.err != nil {
			errc <- f.err
			return
		}
		chunks <- f.text
	}()
	return chunks, errc
}

// fakeStorage is an in-memory storage.Client that can fail deletes for
// selected file ids.
type fakeStorage struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failDelete map[string]bool
	deletes    []string
	seq        int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		objects:    make(map[string][]byte),
		failDelete: make(map[string]bool),
	}
}

func (f *fakeStorage) Upload(_ context.Context, data []byte, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Mirror the real client's behavior of never reusing a key.
	f.seq++
	fileID := fmt.Sprintf("%s-%d", name, f.seq)
	f.objects[fileID] = data
	return fileID, nil
}

func (f *fakeStorage) Download(_ context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[fileID]
	if !ok {
		return nil, fmt.Errorf("object %s not found", fileID)
	}
	return data, nil
}

func (f *fakeStorage) Delete(_ context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, fileID)
	if f.failDelete[fileID] {
		return fmt.Errorf("delete %s: storage unavailable", fileID)
	}
	delete(f.objects, fileID)
	return nil
}

func (f *fakeStorage) List(_ context.Context, _ string) ([]storage.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	files := make([]storage.FileInfo, 0, len(f.objects))
	for k, v := range f.objects {
		files = append(files, storage.FileInfo{ID: k, Size: int64(len(v))})
	}
	return files, nil
}

// fakeEmitter records events per target user.
type fakeEmitter struct {
	mu     sync.Mutex
	events []sse.Event
}

func (f *fakeEmitter) EmitToUser(userID string, event sse.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	event.UserID = userID
	f.events = append(f.events, event)
}

func (f *fakeEmitter) all() []sse.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sse.Event(nil), f.events...)
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := sqlite.Open(dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createUser(t *testing.T, s store.Store, userID string) *domain.User {
	t.Helper()
	user := &domain.User{
		ID:          userID,
		DeviceID:    "device-" + userID,
		Name:        "Test User",
		CreatedAt:   time.Now().UTC(),
		LastLoginAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
