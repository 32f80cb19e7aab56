// Package session implements the session protocol engine: the table of
// peer sessions, the public operations over it, and the encrypted state
// snapshot.
//
// A Manager owns all mutable session state and the loaded identity behind
// a single lock; every operation that advances a ratchet is serialized, so
// concurrent calls cannot fork chain state. The manager performs no I/O:
// callers broadcast announcements, poll the board with ReadKeys, feed
// results back in, and persist Export output after mutations.
package session
