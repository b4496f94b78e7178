// Package store persists the service's long-term identity key pair.
//
// The pair is sealed with a passphrase-derived key (scrypt) under
// ChaCha20-Poly1305 and written as a versioned CBOR blob via an atomic
// temp-file rename. Per-session ratchet state is deliberately absent: chain
// and message keys are ephemeral secrets that must never touch disk.
package store
