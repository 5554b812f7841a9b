package sim

// Source is a splitmix64 random source with exportable state, so a saved
// simulation restores mid-stream instead of restarting its random
// sequence. Implements math/rand.Source64.
type Source struct {
	state uint64
}

// NewSource creates a source from a seed.
func NewSource(seed uint64) *Source {
	return &Source{state: seed}
}

// Uint64 advances the stream.
func (s *Source) Uint64() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Int63 implements math/rand.Source.
func (s *Source) Int63() int64 {
	return int64(s.Uint64() >> 1)
}

// Seed implements math/rand.Source.
func (s *Source) Seed(seed int64) {
	s.state = uint64(seed)
}

// State returns the current stream state for persistence.
func (s *Source) State() uint64 {
	return s.state
}

// SetState restores a persisted stream state.
func (s *Source) SetState(v uint64) {
	s.state = v
}
