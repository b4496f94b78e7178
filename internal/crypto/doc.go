// Package crypto exposes the minimal primitives the ratchet is built from.
//
// Contents
//
//   - X25519 key generation, clamping and Diffie–Hellman (GenerateKeyPair,
//     SharedSecret)
//   - Labelled HKDF-SHA256 key derivation (KDF)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// # Notes
//
// Key material moves through the fixed-size array types defined in
// internal/domain. Callers should treat returned secrets as sensitive and
// wipe them with memzero when practical.
package crypto
