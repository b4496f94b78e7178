// Package handshake derives the shared root key that bootstraps a Double
// Ratchet session between an agent and the service.
//
// # Flows
//
// Initiator:
//  1. Generate an ephemeral X25519 key pair.
//  2. Compute DH(ephemeral, peer static) and KDF it into the 32-byte root.
//  3. Carry the ephemeral public key in the first ratchet header; it doubles
//     as the initiator's first ratchet key.
//
// Responder:
//  1. Read the initiator's ephemeral public key from the first header.
//  2. Compute the symmetric DH with the static private key.
//  3. KDF the same transcript to the identical root.
//
// Only public material crosses the wire: the peer's static key is learned
// out of band, and the header already carries the ephemeral. An invalid peer
// key surfaces as domain.ErrInvalidKey before any state is created.
package handshake
