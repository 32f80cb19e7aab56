// Package board provides the HTTP client for the passive message board
// and announcement relay, plus the in-memory board handler used by
// cmd/board and tests.
//
// The board is a dumb byte store: announcements are an append-only public
// feed, and message entries are opaque ciphertexts filed under equally
// opaque seeker tokens. All interpretation happens in the session engine.
package board
