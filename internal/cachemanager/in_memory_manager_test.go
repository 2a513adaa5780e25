package cachemanager

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewInMemoryCacheManager(t *testing.T) {
	require.NotPanics(t, func() {
		NewInMemoryCacheManager[string, string]("test", DefaultExpiration, DefaultCleanupInterval)
	})
}

type exampleListing struct {
	Subject  string
	Versions int
}

func TestNewInMemoryCacheManager_GetExistingValue_StructType(t *testing.T) {
	cache := NewInMemoryCacheManager[string, exampleListing]("subjects", DefaultExpiration, DefaultCleanupInterval)
	example := exampleListing{
		Subject: "orders-value",
	}
	cache.Set(context.Background(), "dev|", example, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "dev|")
	require.True(t, ok)
	require.Equal(t, example, got)
}

func TestNewInMemoryCacheManager_GetExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("subjects", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "env", "dev", DefaultExpiration)

	got, ok := cache.Get(context.Background(), "env")
	require.True(t, ok)
	require.Equal(t, "dev", got)
}

func TestNewInMemoryCacheManager_GetWithNoExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("subjects", DefaultExpiration, DefaultCleanupInterval)

	got, ok := cache.Get(context.Background(), "env")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestNewInMemoryCacheManager_GetWithExistingInvalidValueType(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("subjects", DefaultExpiration, DefaultCleanupInterval)

	cache.cache.Set("env", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "env")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestNewInMemoryCacheManager_GetSliceValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string, []string]("topics", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "dev", []string{"orders", "payments"}, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "dev")
	require.True(t, ok)
	require.Equal(t, []string{"orders", "payments"}, got)
}

func TestNewInMemoryCacheManager_DeleteWithNoKeysDoesNothing(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("subjects", DefaultExpiration, DefaultCleanupInterval)

	err := cache.Delete(context.Background())
	require.NoError(t, err)
}

func TestNewInMemoryCacheManager_DeleteExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("subjects", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "env", "dev", DefaultExpiration)

	got, ok := cache.Get(context.Background(), "env")
	require.True(t, ok)
	require.Equal(t, "dev", got)

	err := cache.Delete(context.Background(), "env")
	require.NoError(t, err)

	got, ok = cache.Get(context.Background(), "env")
	require.False(t, ok)
	require.Equal(t, "", got)
}

func TestNewInMemoryCacheManager_DeleteMultipleKeys(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("subjects", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "a", "1", DefaultExpiration)
	cache.Set(context.Background(), "b", "2", DefaultExpiration)

	err := cache.Delete(context.Background(), "a", "b")
	require.NoError(t, err)

	_, ok := cache.Get(context.Background(), "a")
	require.False(t, ok)
	_, ok = cache.Get(context.Background(), "b")
	require.False(t, ok)
}

func TestNewInMemoryCacheManager_Flush(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("subjects", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "env", "dev", DefaultExpiration)

	got, ok := cache.Get(context.Background(), "env")
	require.True(t, ok)
	require.Equal(t, "dev", got)

	err := cache.Flush(context.Background())
	require.NoError(t, err)

	got, ok = cache.Get(context.Background(), "env")
	require.False(t, ok)
	require.Equal(t, "", got)
}
