package calendar

import (
	"sort"
	"strconv"
	"sync"
	"time"
)

// DefaultColorTTL is how long a fetched palette is reused.
const DefaultColorTTL = 24 * time.Hour

// Palette maps a color id to its display colors.
type Palette map[string]Color

// Has reports whether id is a valid color id.
func (p Palette) Has(id string) bool {
	_, ok := p[id]
	return ok
}

// IDs returns the color ids in numeric order.
func (p Palette) IDs() []string {
	ids := make([]string, 0, len(p))
	for id := range p {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Colors returns the palette entries in id order.
func (p Palette) Colors() []Color {
	ids := p.IDs()
	out := make([]Color, 0, len(ids))
	for _, id := range ids {
		out = append(out, p[id])
	}
	return out
}

type paletteEntry struct {
	palette Palette
	fetched time.Time
}

// ColorCache holds palettes per session key with a TTL. Two concurrent
// misses for the same key may both fetch; the last Put wins.
//
// Keys of rotated tokens are never looked up again, so Put also drops
// every expired entry, at most once per TTL.
type ColorCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	entries   map[string]paletteEntry
	lastSweep time.Time
	now       func() time.Time
}

// NewColorCache creates a cache. A non-positive ttl selects DefaultColorTTL.
func NewColorCache(ttl time.Duration) *ColorCache {
	if ttl <= 0 {
		ttl = DefaultColorTTL
	}
	return &ColorCache{
		ttl:     ttl,
		entries: make(map[string]paletteEntry),
		now:     time.Now,
	}
}

// Get returns the cached palette for key if it has not expired.
func (c *ColorCache) Get(key string) (Palette, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.fetched) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.palette, true
}

// Put stores a palette for key. Empty palettes are not cached.
func (c *ColorCache) Put(key string, p Palette) {
	if len(p) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastSweep) >= c.ttl {
		for k, e := range c.entries {
			if now.Sub(e.fetched) >= c.ttl {
				delete(c.entries, k)
			}
		}
		c.lastSweep = now
	}
	c.entries[key] = paletteEntry{palette: p, fetched: now}
}

// Invalidate drops the palette for key.
func (c *ColorCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of cached palettes, expired or not.
func (c *ColorCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
