package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	data    map[string]string
	getErr  error
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.data[key] = value.(string)
	return nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	n := 0
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			delete(f.data, k)
			f.deleted = append(f.deleted, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CacheKey(parts ...string) string {
	return "lw:cache:" + strings.Join(parts, ":")
}

type row struct {
	Name string `json:"name"`
}

func TestRememberLoadsOnceThenServesCache(t *testing.T) {
	store := newFakeStore()
	c := New(store, nil)
	ctx := context.Background()
	calls := 0
	load := func(context.Context) ([]row, error) {
		calls++
		return []row{{Name: "Acme Tannery"}}, nil
	}

	key := c.Key("crm", "customers", "list", "q=")
	first, err := Remember(ctx, c, key, time.Minute, load)
	require.NoError(t, err)
	second, err := Remember(ctx, c, key, time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
}

func TestRememberFallsBackWhenCacheBroken(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection refused")
	c := New(store, nil)

	got, err := Remember(context.Background(), c, "k", time.Minute, func(context.Context) (row, error) {
		return row{Name: "fresh"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Name)
}

func TestRememberPropagatesLoaderError(t *testing.T) {
	c := New(newFakeStore(), nil)
	_, err := Remember(context.Background(), c, "k", time.Minute, func(context.Context) (row, error) {
		return row{}, errors.New("db down")
	})
	require.Error(t, err)
}

func TestInvalidateDropsNamespace(t *testing.T) {
	store := newFakeStore()
	c := New(store, nil)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, c.Key("crm", "customers", "list", "a"), row{Name: "a"}, time.Minute))
	require.NoError(t, c.SetJSON(ctx, c.Key("crm", "customers", "id", "b"), row{Name: "b"}, time.Minute))
	require.NoError(t, c.SetJSON(ctx, c.Key("dashboard", "stats"), row{Name: "c"}, time.Minute))

	c.Invalidate(ctx, "crm", "customers")

	assert.Len(t, store.deleted, 2)
	var out row
	assert.ErrorIs(t, c.GetJSON(ctx, c.Key("crm", "customers", "id", "b"), &out), ErrMiss)
	assert.NoError(t, c.GetJSON(ctx, c.Key("dashboard", "stats"), &out))
}

func TestNilCacheIsANoop(t *testing.T) {
	var c *Cache
	got, err := Remember(context.Background(), c, "k", time.Minute, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	c.Invalidate(context.Background(), "crm")
}
