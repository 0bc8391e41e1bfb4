// Package markov implements a first-order color adjacency model. Each
// quantized color maps to every color observed next to it in the training
// data, duplicates included, so that sampling from the list reproduces the
// observed transition frequencies.
//
// A Model is not safe for concurrent use.
package markov

import (
	"fmt"
	"math/rand/v2"
)

// Rand is the source of randomness used for sampling. *rand.Rand from
// math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

// DefaultRand returns the unseeded process-wide source.
func DefaultRand() Rand {
	return globalRand{}
}

type Model struct {
	compression int
	transitions map[Key][]Key
	// keys in first-seen order, so SampleAny does not depend on map order
	keys  []Key
	count int
}

// New returns an empty model quantizing every color by compression.
func New(compression int) (*Model, error) {
	if compression < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCompression, compression)
	}
	return &Model{
		compression: compression,
		transitions: make(map[Key][]Key),
	}, nil
}

// Compression returns the model's quantization factor.
func (m *Model) Compression() int {
	return m.compression
}

// Quantize applies the model's compression factor to c.
func (m *Model) Quantize(c Color) Color {
	return Quantize(c, m.compression)
}

// Reset forgets every recorded transition.
func (m *Model) Reset() {
	clear(m.transitions)
	m.keys = m.keys[:0]
	m.count = 0
}

// Train records that neighbor was observed next to src.
func (m *Model) Train(src, neighbor Color) {
	from := Encode(m.Quantize(src))
	to := Encode(m.Quantize(neighbor))

	next, ok := m.transitions[from]
	if !ok {
		m.keys = append(m.keys, from)
	}
	m.transitions[from] = append(next, to)
	m.count++
}

// Len returns the number of distinct source colors.
func (m *Model) Len() int {
	return len(m.keys)
}

// Transitions returns the total number of recorded transitions.
func (m *Model) Transitions() int {
	return m.count
}

// Keys returns the source keys in first-seen order.
func (m *Model) Keys() []Key {
	return append([]Key(nil), m.keys...)
}

// Neighbors returns a copy of the transitions recorded for the already
// quantized color c.
func (m *Model) Neighbors(c Color) []Key {
	return append([]Key(nil), m.transitions[Encode(c)]...)
}

// SampleNext picks one of the colors recorded next to c, weighted by how
// often each was seen. c must already be quantized. It returns
// ErrNoTransition when c was never trained.
func (m *Model) SampleNext(rng Rand, c Color) (Color, error) {
	next := m.transitions[Encode(c)]
	if len(next) == 0 {
		return Color{}, ErrNoTransition
	}
	if rng == nil {
		rng = globalRand{}
	}
	return next[rng.IntN(len(next))].Color(), nil
}

// SampleAny picks a uniformly random source color.
func (m *Model) SampleAny(rng Rand) (Color, error) {
	if len(m.keys) == 0 {
		return Color{}, ErrEmptyModel
	}
	if rng == nil {
		rng = globalRand{}
	}
	return m.keys[rng.IntN(len(m.keys))].Color(), nil
}
