package selector

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"sync"
	"time"
)

// Cache memoizes Pick results for a bounded time, keyed by the scope key and
// a content-derived version token. Any change to a candidate's stock state,
// flags or price changes the token, so a cached choice can never survive a
// stock-to-zero or admin-override transition. The TTL only bounds memory.
type Cache struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry

	now func() time.Time // overridable in tests
}

// cacheEntry remembers the chosen index, not the candidate itself, so a hit
// always resolves against the caller's current scope values.
type cacheEntry struct {
	token     uint64
	index     int
	expiresAt time.Time
}

// NewCache creates a selector cache with the given entry lifetime.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Pick returns the cascade result for the scope, serving a cached choice only
// when the scope's content token still matches.
func (c *Cache) Pick(key string, scope []Candidate) Candidate {
	token := ContentToken(scope)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && e.token == token && c.now().Before(e.expiresAt) && e.index < len(scope) {
		c.mu.Unlock()
		return scope[e.index]
	}
	c.mu.Unlock()

	choice := Pick(scope)

	index := -1
	for i := range scope {
		if scope[i] == choice {
			index = i
			break
		}
	}
	if index < 0 {
		return choice
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{
		token:     token,
		index:     index,
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()

	return choice
}

// ContentToken derives a version token from every selection-relevant field of
// the scope. Order matters: a reordering of the scope is a different token.
func ContentToken(scope []Candidate) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, c := range scope {
		var flags byte
		if c.InStock() {
			flags |= 1
		}
		if c.AdminDefault() {
			flags |= 2
		}
		if c.Canonical() {
			flags |= 4
		}
		if c.Colored() {
			flags |= 8
		}
		if size, ok := c.Size(); ok {
			flags |= 16
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(size))
			h.Write(buf[:])
		}
		h.Write([]byte{flags})

		binary.LittleEndian.PutUint32(buf[:4], uint32(c.Price()))
		h.Write(buf[:4])

		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(c.SalesScore()))
		h.Write(buf[:])
	}
	return h.Sum64()
}
