// Package announce builds and opens the self-authenticating announcement
// blobs that bootstrap a session between two users.
//
// An announcement is a one-shot sealed envelope: an ephemeral X25519 key
// agreement with the recipient's identity key derives the seal key, and the
// payload carries the sender's public keys plus a fresh bootstrap secret,
// signed by the sender. Anyone can fetch announcements from the relay; only
// the intended recipient can open one, and everybody else gets ErrNotForUs.
package announce
