package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	sets map[string]map[string]struct{}
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string]string{}, sets: map[string]map[string]struct{}{}}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
		delete(m.sets, key)
	}
	return nil
}

func (m *mockStore) AddToSet(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sets[key] == nil {
		m.sets[key] = map[string]struct{}{}
	}
	for _, member := range members {
		m.sets[key][member] = struct{}{}
	}
	return nil
}

func (m *mockStore) SetMembers(ctx context.Context, key string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		out = append(out, member)
	}
	return out, nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func (m *mockStore) UserSessionsKey(userID string) string {
	return "sess:user:" + userID
}

func newTestManager() (*Manager, *mockStore) {
	store := newMockStore()
	return &Manager{store: store, keyer: store, ttl: time.Hour}, store
}

func TestManagerGenerateAndRotate(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()
	userID := uuid.New()

	token, err := manager.Generate(ctx, userID, "access-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if stored := store.data[store.AccessSessionKey("access-123")]; stored != token {
		t.Fatalf("expected stored token %q, got %q", token, stored)
	}

	if _, _, err := manager.Rotate(ctx, userID, "access-123", "wrong"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token error, got %v", err)
	}

	newAccessID, newToken, err := manager.Rotate(ctx, userID, "access-123", token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, exists := store.data[store.AccessSessionKey("access-123")]; exists {
		t.Fatalf("old access key left behind")
	}
	if stored := store.data[store.AccessSessionKey(newAccessID)]; stored != newToken {
		t.Fatalf("expected new token stored, got %q", stored)
	}
	if _, indexed := store.sets[store.UserSessionsKey(userID.String())][newAccessID]; !indexed {
		t.Fatalf("rotated session missing from user index")
	}
}

func TestManagerGenerateRequiresUser(t *testing.T) {
	manager, _ := newTestManager()
	if _, err := manager.Generate(context.Background(), uuid.Nil, "access-1"); err == nil {
		t.Fatal("expected error for missing user id")
	}
}

func TestManagerRevokeAndHasSession(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	userID := uuid.New()

	if _, err := manager.Generate(ctx, userID, "access-1"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	ok, err := manager.HasSession(ctx, "access-1")
	if err != nil || !ok {
		t.Fatalf("expected active session, got %v %v", ok, err)
	}
	if err := manager.Revoke(ctx, "access-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.HasSession(ctx, "access-1")
	if err != nil || ok {
		t.Fatalf("expected revoked session, got %v %v", ok, err)
	}
	if _, _, err := manager.Rotate(ctx, userID, "access-1", "anything"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected invalid refresh token after revoke, got %v", err)
	}
}

func TestManagerRevokeUserEndsEverySession(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()
	demoted, other := uuid.New(), uuid.New()

	for _, id := range []string{"laptop", "phone"} {
		if _, err := manager.Generate(ctx, demoted, id); err != nil {
			t.Fatalf("generate %s: %v", id, err)
		}
	}
	if _, err := manager.Generate(ctx, other, "desk"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	// A session revoked earlier leaves a stale index entry behind.
	if err := manager.Revoke(ctx, "phone"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if err := manager.RevokeUser(ctx, demoted); err != nil {
		t.Fatalf("revoke user: %v", err)
	}
	for _, id := range []string{"laptop", "phone"} {
		if ok, _ := manager.HasSession(ctx, id); ok {
			t.Fatalf("session %s survived", id)
		}
	}
	if ok, _ := manager.HasSession(ctx, "desk"); !ok {
		t.Fatal("other user's session must stay")
	}
	if _, ok := store.sets[store.UserSessionsKey(demoted.String())]; ok {
		t.Fatal("user index left behind")
	}
}
