// Package ratchet is the façade over the session store and the Double
// Ratchet protocol.
//
// It establishes sessions (initiator role on demand, responder role
// automatically on first contact), encrypts outbound plaintext, decrypts
// inbound envelopes, passes legacy plaintext through when backward
// compatibility allows, enforces per-agent rate limits, and destroys
// sessions on termination. Authentication failures are counted for anomaly
// monitoring and never mutate session state.
package ratchet
