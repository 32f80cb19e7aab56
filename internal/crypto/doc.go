// Package crypto exposes the primitives the session engine is built on.
//
// Contents
//
//   - Deterministic identity derivation from seed bytes plus a
//     domain-separation tag (IdentityFromSeed)
//   - One-way user identifier derivation (DeriveUserID)
//   - Authenticated encryption over ChaCha20-Poly1305 (Seal, Open)
//   - Checksummed Base58 boundary encodings for user ids and contact
//     cards (EncodeUserID, DecodeUserID, EncodeCard, DecodeCard)
//   - Short public-key fingerprints for display and logging (Fingerprint)
//
// All functions are pure over their inputs; nothing here performs I/O or
// holds state. Callers should treat returned secrets as sensitive and wipe
// them with memzero when practical.
package crypto
