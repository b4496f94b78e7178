// Package codec translates between transport payload bytes and the in-memory
// message forms. It resolves the encrypted/legacy split at the boundary and
// contains no cryptographic logic.
package codec
