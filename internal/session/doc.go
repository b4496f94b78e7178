// Package session owns all per-agent ratchet state.
//
// The store is an arena keyed by agent identifier: each entry carries its own
// exclusion, so work on distinct agents never contends and all ratchet steps
// for one agent are serialized. Waiting for an entry honours the caller's
// context and fails with a busy error rather than corrupting state.
//
// Each session carries a bounded LRU cache of derived-but-unused message
// keys for out-of-order delivery. Evicted, expired and consumed keys are
// zeroed before release. A sweeper destroys idle sessions and purges expired
// keys on a period, taking the per-session exclusion first.
package session
