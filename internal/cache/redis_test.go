package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/quiz-access-service/internal/config"
	"github.com/magabrotheeeer/quiz-access-service/internal/models"
)

func setupTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := setupTestCache(t)

	expected := []models.Plan{
		{ID: "1", Name: "All Subjects - 1 Year", Price: 50, DurationDays: 365},
		{ID: "2", Name: "All Subjects - 6 Months", Price: 30, DurationDays: 180},
	}
	err := cache.Set("plans", expected, time.Minute)
	require.NoError(t, err)

	var actual []models.Plan
	found, err := cache.Get("plans", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache := setupTestCache(t)

	var out []models.Plan
	found, err := cache.Get("no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	err := cache.Set("plans", []models.Plan{{ID: "1", Name: "x", Price: 1, DurationDays: 1}}, time.Minute)
	require.NoError(t, err)

	err = cache.Invalidate("plans")
	require.NoError(t, err)

	var out []models.Plan
	found, err := cache.Get("plans", &out)
	require.NoError(t, err)
	assert.False(t, found)
}
