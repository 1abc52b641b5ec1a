package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/oes-platform/enrolment-api/pkg/errors"
)

type mockCacheRepo struct {
	store map[string][]byte
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{store: map[string][]byte{}}
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.store[key] = raw
	return nil
}

func (m *mockCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.store = map[string][]byte{}
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	svc := NewCacheService(newMockCacheRepo(), nil, time.Minute, nil, true)

	require.NoError(t, svc.Set(context.Background(), "k", []string{"a", "b"}, 0))

	var got []string
	hit, err := svc.Get(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestCacheServiceMiss(t *testing.T) {
	svc := NewCacheService(newMockCacheRepo(), nil, time.Minute, nil, true)

	var got []string
	hit, err := svc.Get(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMockCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	assert.Empty(t, repo.store)

	var got string
	hit, err := svc.Get(context.Background(), "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceNilSafe(t *testing.T) {
	var svc *CacheService
	assert.False(t, svc.Enabled())

	hit, err := svc.Get(context.Background(), "k", nil)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	require.NoError(t, svc.Invalidate(context.Background(), "*"))
}

func TestCacheServiceInvalidate(t *testing.T) {
	repo := newMockCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	require.NoError(t, svc.Set(context.Background(), "catalog:available:s1", "v", 0))
	require.NoError(t, svc.Invalidate(context.Background(), "catalog:available:*"))
	assert.Empty(t, repo.store)
}
