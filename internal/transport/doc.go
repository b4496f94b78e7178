// Package transport binds the ratchet service to NATS.
//
// Agents publish wire payloads on `<prefix>.in.<agent>`; the bridge resolves
// the envelope/legacy split, decrypts, and republishes the plaintext on
// `<prefix>.plain.<agent>` for the application. Application plaintext on
// `<prefix>.send.<agent>` is encrypted and published to `<prefix>.out.<agent>`.
// NATS preserves per-subject order, which is exactly the per-agent ordering
// the protocol needs; nothing here assumes cross-agent ordering.
package transport
