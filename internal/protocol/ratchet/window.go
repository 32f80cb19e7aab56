package ratchet

import (
	"parley/internal/crypto"
	"parley/internal/util/memzero"
)

// DefaultWindow is the number of upcoming seekers a receive side keeps
// outstanding per peer.
const DefaultWindow = 16

// Entry is one precomputed upcoming position of a receive chain.
type Entry struct {
	Index  uint64 `json:"index"`
	Seeker []byte `json:"seeker"`
	Key    []byte `json:"key"`
}

// Window is the receive side of a chain: a bounded run of precomputed
// (seeker, message key) entries ahead of the tail state. The tail has
// already been advanced past every entry, so the window never moves
// backward.
type Window struct {
	Tail    State   `json:"tail"`
	Width   int     `json:"width"`
	Entries []Entry `json:"entries"`
}

// NewWindow precomputes width entries from st.
func NewWindow(st State, width int) (Window, error) {
	if width <= 0 {
		width = DefaultWindow
	}
	w := Window{Tail: st, Width: width}
	if err := w.fill(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Seekers lists the outstanding lookup tokens in index order.
func (w *Window) Seekers() [][]byte {
	out := make([][]byte, 0, len(w.Entries))
	for _, e := range w.Entries {
		out = append(out, e.Seeker)
	}
	return out
}

// NextIndex is the lowest index the window still accepts.
func (w *Window) NextIndex() uint64 {
	if len(w.Entries) == 0 {
		return w.Tail.Index
	}
	return w.Entries[0].Index
}

// TryDecrypt matches seeker against the outstanding entries and opens the
// ciphertext on a hit.
//
// On success it returns the plaintext plus every seeker the acceptance
// consumed (the matched one and any skipped below it), drops those entries,
// and tops the window back up. A miss, a replayed seeker, or a ciphertext
// that fails authentication all return ok=false with no state change.
// The only error path is index exhaustion while refilling.
func (w *Window) TryDecrypt(seeker, cipher []byte) (plain []byte, consumed [][]byte, ok bool, err error) {
	hit := -1
	for i, e := range w.Entries {
		if equalToken(e.Seeker, seeker) {
			hit = i
			break
		}
	}
	if hit < 0 {
		return nil, nil, false, nil
	}
	e := w.Entries[hit]
	plain, aerr := crypto.Open(e.Key, crypto.NonceFromIndex(e.Index), cipher, e.Seeker)
	if aerr != nil {
		// Corrupted or foreign ciphertext under a known token. Keep the
		// entry; a valid copy may still arrive.
		return nil, nil, false, nil
	}

	// Forward-only: accepting index j releases everything at or below it,
	// including positions the peer skipped.
	consumed = make([][]byte, 0, hit+1)
	for i := 0; i <= hit; i++ {
		consumed = append(consumed, w.Entries[i].Seeker)
		memzero.Zero(w.Entries[i].Key)
	}
	w.Entries = append(w.Entries[:0], w.Entries[hit+1:]...)
	if err := w.fill(); err != nil {
		return nil, nil, false, err
	}
	return plain, consumed, true, nil
}

func (w *Window) fill() error {
	for len(w.Entries) < w.Width {
		seeker, mk, next, err := w.Tail.step()
		if err != nil {
			return err
		}
		w.Entries = append(w.Entries, Entry{Index: w.Tail.Index, Seeker: seeker, Key: mk})
		w.Tail = next
	}
	return nil
}

func equalToken(a, b []byte) bool {
	if len(a) != SeekerSize || len(b) != SeekerSize {
		return false
	}
	var v byte
	for i := 0; i < SeekerSize; i++ {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
