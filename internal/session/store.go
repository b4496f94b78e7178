package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ratchetd/internal/domain"
)

// Store is the arena of per-agent sessions. The registry mutex guards only
// map bookkeeping; all session work happens under the entry's own exclusion,
// so distinct agents never block on each other.
type Store struct {
	mu      sync.Mutex
	entries map[domain.AgentID]*entry

	cacheSize int
	cacheTTL  time.Duration
}

type entry struct {
	// sem is the per-session exclusion: buffer of one, full while held.
	sem   chan struct{}
	state *domain.SessionState
	cache *KeyCache

	// destroyed is only touched while holding sem.
	destroyed bool
}

func (e *entry) acquire(ctx context.Context) error {
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", domain.ErrSessionBusy, ctx.Err())
	}
}

func (e *entry) release() { <-e.sem }

// NewStore returns an empty session store whose per-session key caches hold
// at most cacheSize keys for at most cacheTTL.
func NewStore(cacheSize int, cacheTTL time.Duration) *Store {
	return &Store{
		entries:   make(map[domain.AgentID]*entry),
		cacheSize: cacheSize,
		cacheTTL:  cacheTTL,
	}
}

// GetOrCreate ensures a session exists for agent. init runs outside the
// registry lock but under the new entry's exclusion, so concurrent callers
// for the same agent wait rather than double-create.
func (s *Store) GetOrCreate(ctx context.Context, agent domain.AgentID, init func() (*domain.SessionState, error)) (bool, error) {
	s.mu.Lock()
	if _, ok := s.entries[agent]; ok {
		s.mu.Unlock()
		return false, nil
	}
	e := &entry{
		sem:   make(chan struct{}, 1),
		cache: NewKeyCache(s.cacheSize, s.cacheTTL),
	}
	e.sem <- struct{}{} // held until init completes
	s.entries[agent] = e
	s.mu.Unlock()

	st, err := init()
	if err != nil {
		s.mu.Lock()
		delete(s.entries, agent)
		s.mu.Unlock()
		e.destroyed = true
		e.release()
		return false, err
	}
	e.state = st
	e.release()
	return true, nil
}

// With runs fn holding the agent's session exclusively.
func (s *Store) With(ctx context.Context, agent domain.AgentID, fn func(st *domain.SessionState, skipped domain.SkippedKeyStore) error) error {
	s.mu.Lock()
	e, ok := s.entries[agent]
	s.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotEstablished
	}
	if err := e.acquire(ctx); err != nil {
		return err
	}
	defer e.release()
	if e.destroyed || e.state == nil {
		return domain.ErrSessionNotEstablished
	}
	if err := fn(e.state, e.cache); err != nil {
		return err
	}
	e.state.LastActive = time.Now()
	return nil
}

// Exists reports whether a session is currently held for agent.
func (s *Store) Exists(agent domain.AgentID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[agent]
	return ok
}

// Destroy zeroes and removes the agent's session. It takes the per-session
// exclusion first, so an in-flight encrypt or decrypt never observes a
// half-destroyed session.
func (s *Store) Destroy(ctx context.Context, agent domain.AgentID) (bool, error) {
	s.mu.Lock()
	e, ok := s.entries[agent]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := e.acquire(ctx); err != nil {
		return false, err
	}
	defer e.release()
	if e.destroyed {
		return false, nil
	}
	s.mu.Lock()
	delete(s.entries, agent)
	s.mu.Unlock()
	e.state.Zero()
	e.cache.Purge()
	e.destroyed = true
	return true, nil
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Agents snapshots the current agent identifiers.
func (s *Store) Agents() []domain.AgentID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AgentID, 0, len(s.entries))
	for agent := range s.entries {
		out = append(out, agent)
	}
	return out
}

// Sweep purges expired cached keys everywhere and destroys sessions idle
// longer than idleAfter (never, when idleAfter is zero). Busy sessions are
// skipped; they are by definition not idle.
func (s *Store) Sweep(ctx context.Context, idleAfter time.Duration) (destroyed int) {
	for _, agent := range s.Agents() {
		s.mu.Lock()
		e, ok := s.entries[agent]
		s.mu.Unlock()
		if !ok {
			continue
		}
		if err := e.acquire(ctx); err != nil {
			continue
		}
		if !e.destroyed && e.state != nil {
			e.cache.PurgeExpired()
			if idleAfter > 0 && time.Since(e.state.LastActive) > idleAfter {
				s.mu.Lock()
				delete(s.entries, agent)
				s.mu.Unlock()
				e.state.Zero()
				e.cache.Purge()
				e.destroyed = true
				destroyed++
			}
		}
		e.release()
	}
	return destroyed
}

// Compile-time assertion that Store implements domain.SessionStore.
var _ domain.SessionStore = (*Store)(nil)
