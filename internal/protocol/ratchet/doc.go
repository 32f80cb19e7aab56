// Package ratchet implements the per-direction forward-secret chain that
// produces seeker tokens and message keys.
//
// Each direction of a conversation runs its own chain, seeded from an
// announcement bootstrap secret. Stepping the chain derives the next seeker
// (the public lookup token under which the message sits on the board), the
// message key for that index, and the next chain key; the prior chain key
// is not retained, so compromising current state does not expose earlier
// messages.
//
// The receive side wraps the chain in a Window: a bounded set of
// precomputed upcoming seekers that tolerates forward gaps when the peer
// skipped indices under transient send failures. State only moves forward;
// accepting index j permanently discards everything at or below j.
package ratchet
