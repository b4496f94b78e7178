package session_test

import (
	"testing"
	"time"

	"ratchetd/internal/domain"
	"ratchetd/internal/session"
)

func testKey(b byte) domain.MessageKey {
	mk := domain.MessageKey{Key: make([]byte, 32), NonceSeed: make([]byte, 12)}
	for i := range mk.Key {
		mk.Key[i] = b
	}
	return mk
}

func TestKeyCacheTakeIsSingleUse(t *testing.T) {
	c := session.NewKeyCache(8, 0)
	c.Put(0, 5, testKey(0xAA))

	mk, ok := c.Take(0, 5)
	if !ok {
		t.Fatal("first Take missed")
	}
	if mk.Key[0] != 0xAA {
		t.Fatalf("got key byte %#x", mk.Key[0])
	}
	if _, ok := c.Take(0, 5); ok {
		t.Fatal("second Take hit; keys must be single-use")
	}
}

func TestKeyCacheKeysAreGenerationScoped(t *testing.T) {
	c := session.NewKeyCache(8, 0)
	c.Put(1, 3, testKey(0x01))
	c.Put(2, 3, testKey(0x02))

	if mk, ok := c.Take(2, 3); !ok || mk.Key[0] != 0x02 {
		t.Fatalf("wrong key for generation 2: ok=%v", ok)
	}
	if mk, ok := c.Take(1, 3); !ok || mk.Key[0] != 0x01 {
		t.Fatalf("wrong key for generation 1: ok=%v", ok)
	}
}

func TestKeyCacheEvictsOldest(t *testing.T) {
	c := session.NewKeyCache(2, 0)
	c.Put(0, 0, testKey(1))
	c.Put(0, 1, testKey(2))
	c.Put(0, 2, testKey(3))

	if _, ok := c.Take(0, 0); ok {
		t.Fatal("oldest entry survived past capacity")
	}
	if _, ok := c.Take(0, 2); !ok {
		t.Fatal("newest entry missing")
	}
}

func TestKeyCacheTTL(t *testing.T) {
	c := session.NewKeyCache(8, 5*time.Millisecond)
	c.Put(0, 0, testKey(1))
	c.Put(0, 1, testKey(2))

	time.Sleep(10 * time.Millisecond)
	c.Put(0, 2, testKey(3))

	if n := c.PurgeExpired(); n != 2 {
		t.Fatalf("purged %d entries, want 2", n)
	}
	if _, ok := c.Take(0, 0); ok {
		t.Fatal("expired entry still takeable")
	}
	if _, ok := c.Take(0, 2); !ok {
		t.Fatal("fresh entry purged")
	}
}

func TestKeyCacheTakeRefusesExpired(t *testing.T) {
	c := session.NewKeyCache(8, time.Millisecond)
	c.Put(0, 0, testKey(1))
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Take(0, 0); ok {
		t.Fatal("Take returned an expired key")
	}
}

func TestKeyCachePurge(t *testing.T) {
	c := session.NewKeyCache(8, 0)
	c.Put(0, 0, testKey(1))
	c.Put(0, 1, testKey(2))
	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("len %d after purge", c.Len())
	}
}
