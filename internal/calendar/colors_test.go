package calendar

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testPalette() Palette {
	p := Palette{}
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"} {
		p[id] = Color{ID: id, Background: "#bg" + id, Foreground: "#fg" + id}
	}
	return p
}

func TestPalette_IDsNumericOrder(t *testing.T) {
	assert.Equal(t,
		[]string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11"},
		testPalette().IDs())

	colors := testPalette().Colors()
	assert.Len(t, colors, 11)
	assert.Equal(t, "11", colors[10].ID)
	assert.True(t, testPalette().Has("9"))
	assert.False(t, testPalette().Has("99"))
}

func TestColorCache_TTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewColorCache(time.Hour)
	c.now = func() time.Time { return now }

	_, ok := c.Get("session-a")
	assert.False(t, ok)

	c.Put("session-a", testPalette())
	got, ok := c.Get("session-a")
	assert.True(t, ok)
	assert.Len(t, got, 11)

	_, ok = c.Get("session-b")
	assert.False(t, ok, "palettes are scoped per session key")

	now = now.Add(59 * time.Minute)
	_, ok = c.Get("session-a")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get("session-a")
	assert.False(t, ok, "entry should expire after the TTL")
	assert.Equal(t, 0, c.Len())
}

func TestColorCache_PutDropsExpiredKeys(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewColorCache(time.Hour)
	c.now = func() time.Time { return now }

	for i := 0; i < 1000; i++ {
		c.Put("rotated-"+strconv.Itoa(i), testPalette())
	}
	assert.Equal(t, 1000, c.Len())

	now = now.Add(30 * time.Minute)
	c.Put("fresh-a", testPalette())
	assert.Equal(t, 1001, c.Len(), "nothing has expired yet")

	now = now.Add(31 * time.Minute)
	c.Put("fresh-b", testPalette())
	assert.Equal(t, 2, c.Len(), "only the unexpired palettes remain")

	_, ok := c.Get("fresh-a")
	assert.True(t, ok)
}

func TestColorCache_InvalidateAndEmpty(t *testing.T) {
	c := NewColorCache(0)
	assert.Equal(t, DefaultColorTTL, c.ttl)

	c.Put("k", Palette{})
	assert.Equal(t, 0, c.Len(), "empty palettes are not cached")

	c.Put("k", testPalette())
	c.Invalidate("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestColorCache_Concurrent(t *testing.T) {
	c := NewColorCache(time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Put("k", testPalette())
			c.Get("k")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
}
