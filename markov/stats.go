package markov

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Stats summarizes the shape of a trained model.
type Stats struct {
	Colors      int
	Transitions int
	// Entropy of each color's outgoing distribution, in nats. MeanEntropy
	// weights every color by its number of transitions.
	MeanEntropy float64
	MaxEntropy  float64
	// DeadEnds counts colors whose only recorded neighbor is themselves.
	DeadEnds int
}

// Stats computes summary statistics over the recorded transitions.
func (m *Model) Stats() Stats {
	s := Stats{
		Colors:      len(m.keys),
		Transitions: m.count,
	}
	if len(m.keys) == 0 {
		return s
	}

	entropies := make([]float64, 0, len(m.keys))
	weights := make([]float64, 0, len(m.keys))
	for _, k := range m.keys {
		next := m.transitions[k]
		counts := make(map[Key]int, len(next))
		for _, n := range next {
			counts[n]++
		}
		if len(counts) == 1 && counts[k] > 0 {
			s.DeadEnds++
		}

		p := make([]float64, 0, len(counts))
		for _, c := range counts {
			p = append(p, float64(c)/float64(len(next)))
		}
		h := stat.Entropy(p)
		entropies = append(entropies, h)
		weights = append(weights, float64(len(next)))
		s.MaxEntropy = max(s.MaxEntropy, h)
	}
	s.MeanEntropy = stat.Mean(entropies, weights)

	return s
}

// ColorCount is a color with the number of transitions recorded from it.
type ColorCount struct {
	Color Color
	Count int
}

// Top returns up to n colors ordered by how many transitions start at them.
// Ties keep first-seen order.
func (m *Model) Top(n int) []ColorCount {
	res := make([]ColorCount, 0, len(m.keys))
	for _, k := range m.keys {
		res = append(res, ColorCount{Color: k.Color(), Count: len(m.transitions[k])})
	}
	slices.SortStableFunc(res, func(a, b ColorCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if n >= 0 && n < len(res) {
		res = res[:n]
	}
	return res
}
