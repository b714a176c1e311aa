package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_SetGet(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.Set("book:dracula", entry{Title: "Dracula", Year: 1897}, time.Hour))

	var got entry
	found, err := c.Get("book:dracula", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, entry{Title: "Dracula", Year: 1897}, got)
}

func TestCache_Missing(t *testing.T) {
	c := newTestCache(t)

	var got entry
	found, err := c.Get("nope", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Expires(t *testing.T) {
	c := newTestCache(t)

	// Badger TTLs have one second resolution.
	require.NoError(t, c.Set("short", entry{Title: "x"}, time.Second))
	time.Sleep(2100 * time.Millisecond)

	var got entry
	found, err := c.Get("short", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Delete(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.Set("k", entry{Title: "x"}, 0))
	require.NoError(t, c.Delete("k"))
	require.NoError(t, c.Delete("k"))

	var got entry
	found, err := c.Get("k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Persistent(t *testing.T) {
	dir := t.TempDir()

	c, err := Open(dir, nil)
	require.NoError(t, err)
	require.NoError(t, c.Set("k", entry{Title: "kept"}, time.Hour))
	require.NoError(t, c.Close())

	c, err = Open(dir, nil)
	require.NoError(t, err)
	defer c.Close()

	var got entry
	found, err := c.Get("k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "kept", got.Title)
}

func TestCache_Closed(t *testing.T) {
	c, err := OpenInMemory(nil)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	assert.ErrorIs(t, c.Set("k", 1, 0), ErrClosed)
	_, err = c.Get("k", new(int))
	assert.ErrorIs(t, err, ErrClosed)
	c.GC()
}

func TestOpen_EmptyDir(t *testing.T) {
	_, err := Open("", nil)
	assert.Error(t, err)
}
