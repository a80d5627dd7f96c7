package planner

import (
	"crypto/sha1"
	"fmt"
)

// Fingerprint is a stable content hash of a state. Action leaves record
// the fingerprints of their pre- and post-states so that execution-time
// failure detection is deterministic.
type Fingerprint [20]byte

// String returns the fingerprint as hex.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%x", f[:])
}

// Fingerprint hashes the state's sorted triples. Two states with the same
// triples produce the same fingerprint regardless of insertion order.
func (s *State) Fingerprint() Fingerprint {
	h := sha1.New()
	for _, f := range s.Triples() {
		h.Write([]byte(f.Predicate))
		h.Write([]byte{0})
		h.Write([]byte(f.Subject))
		h.Write([]byte{0})
		fmt.Fprintf(h, "%T:%v", f.Value, f.Value)
		h.Write([]byte{0})
	}
	var out Fingerprint
	copy(out[:], h.Sum(nil))
	return out
}
