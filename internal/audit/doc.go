// Package audit provides the append-only, hash-linked log that records every
// store mutation and derivation query.
//
// Each entry digest is SHA-256 over RFC 8785 canonical JSON of
// {index, timestamp, action, args, prev_hash} with domain separation:
//
//	SHA256("axiom/audit/v1" + 0x00 + canonical)
//
// Key constraints:
//   - Args are sealed Values: string, int64, bool, lists. No floats.
//   - Timestamps are hashed as integer Unix nanoseconds.
//   - The first entry links to GenesisHash (64 zeros).
//   - Verification recomputes every digest, so tampering with any stored
//     field, including the stored hash, is detected.
//
// This package imports nothing internal.
package audit
