// Package ratchet implements the Double Ratchet algorithm following Signal's
// design.
//
// The algorithm maintains a root key and two message chains (send and
// receive). Each message advances a KDF chain so that keys are forward
// secure. When a peer changes its DH ratchet public key, both sides derive
// new chain keys from a new root mixed via DH; the step runs once per key
// change, so replayed headers cannot re-trigger it. Message keys skipped over
// by out-of-order delivery are handed to a SkippedKeyStore, indexed by
// receive generation and counter.
//
// Decryption stages all mutations on a clone of the session state and
// commits only after the AEAD tag verifies, so a forged or corrupted message
// leaves counters and chains untouched.
//
// Concurrency: SessionState is NOT safe for concurrent use. Callers must
// serialise access per session.
package ratchet
