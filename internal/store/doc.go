// Package store implements the persistence boundary for the engine's
// opaque state blobs. The engine encrypts everything before it reaches a
// store, so backends only ever see ciphertext plus small non-secret
// metadata such as KDF salts and poll cursors.
//
// Two backends are provided: a directory of files and a Badger database.
package store
