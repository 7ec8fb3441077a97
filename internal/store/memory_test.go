package store_test

import (
	"testing"
	"time"

	"github.com/covergrid/pulse/internal/core"
	"github.com/covergrid/pulse/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_EmptyCache(t *testing.T) {
	m := store.NewMemory()

	_, ok := m.Content()
	assert.False(t, ok, "empty cache should report no content")
	assert.Zero(t, m.Age(time.Now()), "empty cache age should be zero")
}

func TestMemory_SetAndGetContent(t *testing.T) {
	m := store.NewMemory()
	fetched := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	m.SetContent(store.Snapshot{
		Bundle:    core.ContentBundle{Articles: []core.Article{{Title: "one"}}},
		FetchedAt: fetched,
	})

	snap, ok := m.Content()
	require.True(t, ok, "expected cached content")
	require.Len(t, snap.Bundle.Articles, 1)
	assert.Equal(t, "one", snap.Bundle.Articles[0].Title)

	assert.Equal(t, 45*time.Second, m.Age(fetched.Add(45*time.Second)))
}

func TestMemory_ContentOverwrite(t *testing.T) {
	m := store.NewMemory()

	m.SetContent(store.Snapshot{Metrics: core.DashboardMetrics{TotalArticles: 1}})
	m.SetContent(store.Snapshot{Metrics: core.DashboardMetrics{TotalArticles: 7}})

	snap, ok := m.Content()
	require.True(t, ok)
	assert.Equal(t, 7, snap.Metrics.TotalArticles, "latest snapshot should win")
}

func TestMemory_Users(t *testing.T) {
	m := store.NewMemory()
	m.SetUsers([]core.User{{Email: "dana@covergrid.com", Password: "pw"}}, time.Now())

	users := m.Users()
	require.Len(t, users, 1)

	// Mutating the returned slice must not affect the cache.
	users[0].Email = "changed"
	assert.Equal(t, "dana@covergrid.com", m.Users()[0].Email, "Users should return a copy")
}
