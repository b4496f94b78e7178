// Package commands implements the ratchetd CLI.
//
// Subcommands: keygen creates the sealed service identity, fingerprint
// prints its public-key fingerprint, serve runs the NATS bridge with the
// session sweeper, and ping drives an in-process agent through a full
// establish/encrypt/decrypt round trip as a self-test.
package commands
