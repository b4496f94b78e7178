package session

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"ratchetd/internal/domain"
)

// DefaultCacheSize bounds unconsumed message keys per session. Messages whose
// keys fall off the cache become undecryptable; that is documented data loss,
// not a crash.
const DefaultCacheSize = 1000

type keyID struct {
	gen uint32
	ctr uint32
}

type cacheEntry struct {
	mk       domain.MessageKey
	storedAt time.Time
}

// KeyCache is a bounded store of skipped message keys for one session,
// indexed by receive generation and message counter. Eviction is LRU with a
// hard cap plus a TTL; every removed key is zeroed first.
type KeyCache struct {
	entries *lru.Cache[keyID, *cacheEntry]
	ttl     time.Duration
}

// NewKeyCache returns a cache holding at most capacity keys, each expiring
// ttl after storage (no expiry when ttl is zero).
func NewKeyCache(capacity int, ttl time.Duration) *KeyCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	entries, err := lru.NewWithEvict(capacity, func(_ keyID, e *cacheEntry) {
		e.mk.Zero()
	})
	if err != nil {
		// Only reachable with a non-positive capacity, which is normalised
		// above.
		panic(err)
	}
	return &KeyCache{entries: entries, ttl: ttl}
}

// Put stores a derived-but-unused message key. The oldest entry is evicted
// (and zeroed) when the cache is full.
func (c *KeyCache) Put(generation, counter uint32, mk domain.MessageKey) {
	c.entries.Add(keyID{gen: generation, ctr: counter}, &cacheEntry{mk: mk, storedAt: time.Now()})
}

// Take removes and returns the key for (generation, counter). Single-use: a
// second Take for the same slot misses.
func (c *KeyCache) Take(generation, counter uint32) (domain.MessageKey, bool) {
	id := keyID{gen: generation, ctr: counter}
	e, ok := c.entries.Get(id)
	if !ok {
		return domain.MessageKey{}, false
	}
	if c.expired(e) {
		c.entries.Remove(id)
		return domain.MessageKey{}, false
	}
	// Detach the key before Remove so the eviction hook zeroes an empty
	// entry, not the key we are handing out.
	mk := e.mk
	e.mk = domain.MessageKey{}
	c.entries.Remove(id)
	return mk, true
}

// PurgeExpired drops entries past their TTL, returning how many were zeroed.
func (c *KeyCache) PurgeExpired() int {
	if c.ttl <= 0 {
		return 0
	}
	n := 0
	for _, id := range c.entries.Keys() {
		if e, ok := c.entries.Peek(id); ok && c.expired(e) {
			c.entries.Remove(id)
			n++
		}
	}
	return n
}

// Purge zeroes and drops every entry.
func (c *KeyCache) Purge() { c.entries.Purge() }

// Len reports the number of cached keys.
func (c *KeyCache) Len() int { return c.entries.Len() }

func (c *KeyCache) expired(e *cacheEntry) bool {
	return c.ttl > 0 && time.Since(e.storedAt) > c.ttl
}

// Compile-time assertion that KeyCache implements domain.SkippedKeyStore.
var _ domain.SkippedKeyStore = (*KeyCache)(nil)
