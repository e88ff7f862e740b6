package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestKeyForFile_ChangesWithMtime(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "a.go", "package a\n")

	k1, err := KeyForFile(p)
	require.NoError(t, err)

	// Force a distinguishable mtime.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(p, future, future))

	k2, err := KeyForFile(p)
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
}

func TestCache_PutGet(t *testing.T) {
	c := New(1024)
	key := FileKey{Path: "/a.go", Size: 10, MtimeNanos: 1}

	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Put(key, "rendered hover text", 20)
	v, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, "rendered hover text", v)

	stats := c.Stats()
	assert.Equal(t, 20, stats.CurrentBytes)
	assert.Equal(t, 1, stats.Entries)
}

func TestCache_EvictsUntilUnderBudget(t *testing.T) {
	c := New(25)

	c.Put(FileKey{Path: "/a.go", Size: 1, MtimeNanos: 1}, "a", 10)
	c.Put(FileKey{Path: "/b.go", Size: 1, MtimeNanos: 1}, "b", 10)
	c.Put(FileKey{Path: "/c.go", Size: 1, MtimeNanos: 1}, "c", 10)

	stats := c.Stats()
	assert.LessOrEqual(t, stats.CurrentBytes, 25)

	// The first-inserted entry should have been evicted to make room.
	_, ok := c.Get(FileKey{Path: "/a.go", Size: 1, MtimeNanos: 1})
	assert.False(t, ok)

	_, ok = c.Get(FileKey{Path: "/c.go", Size: 1, MtimeNanos: 1})
	assert.True(t, ok)
}

func TestCache_GetDoesNotAffectEvictionOrder(t *testing.T) {
	c := New(25)

	c.Put(FileKey{Path: "/a.go", Size: 1, MtimeNanos: 1}, "a", 10)
	c.Put(FileKey{Path: "/b.go", Size: 1, MtimeNanos: 1}, "b", 10)

	// Repeatedly reading "a" must not promote it past "b" in eviction
	// order; eviction is insertion order, not access recency.
	for i := 0; i < 3; i++ {
		_, ok := c.Get(FileKey{Path: "/a.go", Size: 1, MtimeNanos: 1})
		require.True(t, ok)
	}

	c.Put(FileKey{Path: "/c.go", Size: 1, MtimeNanos: 1}, "c", 10)

	_, ok := c.Get(FileKey{Path: "/a.go", Size: 1, MtimeNanos: 1})
	assert.False(t, ok, "first-inserted entry should be evicted despite being read most recently")

	_, ok = c.Get(FileKey{Path: "/b.go", Size: 1, MtimeNanos: 1})
	assert.True(t, ok)

	_, ok = c.Get(FileKey{Path: "/c.go", Size: 1, MtimeNanos: 1})
	assert.True(t, ok)
}

func TestCache_ZeroBudgetDisablesCaching(t *testing.T) {
	c := New(0)
	key := FileKey{Path: "/a.go", Size: 1, MtimeNanos: 1}
	c.Put(key, "value", 1)
	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestCache_OversizedValueNotCached(t *testing.T) {
	c := New(10)
	key := FileKey{Path: "/a.go", Size: 1, MtimeNanos: 1}
	c.Put(key, "value", 50)
	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestCache_Invalidate(t *testing.T) {
	c := New(1024)
	key := FileKey{Path: "/a.go", Size: 1, MtimeNanos: 1}
	c.Put(key, "value", 5)
	c.Invalidate(key)
	_, ok := c.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().CurrentBytes)
}
