package synth

import "markovpaint/markov"

// Frontier is an unordered bag whose removals pick a uniformly random
// element. Removal swaps the chosen element with the last one, so neither
// insertion nor removal order is preserved.
type Frontier[T any] struct {
	data []T
}

// NewFrontier returns an empty frontier with room for capacity elements.
func NewFrontier[T any](capacity int) *Frontier[T] {
	return &Frontier[T]{data: make([]T, 0, capacity)}
}

func (f *Frontier[T]) Push(e T) {
	f.data = append(f.data, e)
}

// PopRandom removes and returns a uniformly random element. The second
// result is false when the frontier is empty.
func (f *Frontier[T]) PopRandom(rng markov.Rand) (T, bool) {
	var zero T
	n := len(f.data)
	if n == 0 {
		return zero, false
	}

	idx := rng.IntN(n)
	e := f.data[idx]
	f.data[idx] = f.data[n-1]
	f.data[n-1] = zero
	f.data = f.data[:n-1]
	return e, true
}

func (f *Frontier[T]) Len() int {
	return len(f.data)
}
