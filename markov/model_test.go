package markov_test

import (
	"image"
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markovpaint/markov"
)

func newModel(t *testing.T, compression int) *markov.Model {
	t.Helper()
	m, err := markov.New(compression)
	require.NoError(t, err)
	return m
}

//----------------------------------------------------------------------------//
// Color helpers
//----------------------------------------------------------------------------//

func TestQuantize(t *testing.T) {
	cases := []struct {
		name        string
		in          markov.Color
		compression int
		want        markov.Color
	}{
		{"Identity", markov.Color{R: 15, G: 22, B: 5}, 1, markov.Color{R: 15, G: 22, B: 5}},
		{"Ten", markov.Color{R: 15, G: 22, B: 5}, 10, markov.Color{R: 10, G: 20, B: 0}},
		{"Top", markov.Color{R: 255, G: 255, B: 255}, 16, markov.Color{R: 240, G: 240, B: 240}},
		{"Huge", markov.Color{R: 255, G: 1, B: 128}, 1000, markov.Color{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, markov.Quantize(tc.in, tc.compression))
		})
	}
}

func TestQuantize_Idempotent(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for range 2000 {
		c := markov.Color{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256))}
		f := 1 + rng.IntN(300)
		once := markov.Quantize(c, f)
		require.Equal(t, once, markov.Quantize(once, f), "color %v factor %d", c, f)
	}
}

func TestEncodeDecode(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	for range 2000 {
		c := markov.Quantize(markov.Color{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256))}, 1+rng.IntN(32))
		require.Equal(t, c, markov.Encode(c).Color())
	}
	assert.Equal(t, markov.Key(0x0A1400), markov.Encode(markov.Color{R: 10, G: 20, B: 0}))
}

func TestColorModel(t *testing.T) {
	got := markov.ColorModel.Convert(color.NRGBA{R: 1, G: 2, B: 3, A: 0x80})
	assert.Equal(t, markov.Color{R: 1, G: 2, B: 3}, got)

	r, g, b, a := markov.Color{R: 0xFF, G: 0x80, B: 0}.RGBA()
	assert.Equal(t, []uint32{0xFFFF, 0x8080, 0, 0xFFFF}, []uint32{r, g, b, a})
}

//----------------------------------------------------------------------------//
// Model
//----------------------------------------------------------------------------//

func TestNew_InvalidCompression(t *testing.T) {
	_, err := markov.New(0)
	require.ErrorIs(t, err, markov.ErrInvalidCompression)
}

func TestTrain_KeepsDuplicates(t *testing.T) {
	m := newModel(t, 1)
	a := markov.Color{R: 1}
	b := markov.Color{G: 1}
	m.Train(a, b)
	m.Train(a, b)
	m.Train(a, a)

	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 3, m.Transitions())
	assert.Equal(t, []markov.Key{markov.Encode(b), markov.Encode(b), markov.Encode(a)}, m.Neighbors(a))
}

func TestTrain_Quantizes(t *testing.T) {
	m := newModel(t, 10)
	m.Train(markov.Color{R: 15, G: 22, B: 5}, markov.Color{R: 19, G: 29, B: 9})

	next := m.Neighbors(markov.Color{R: 10, G: 20, B: 0})
	require.Len(t, next, 1)
	assert.Equal(t, markov.Color{R: 10, G: 20, B: 0}, next[0].Color())
}

func TestReset(t *testing.T) {
	m := newModel(t, 1)
	m.Train(markov.Color{R: 1}, markov.Color{R: 2})
	m.Reset()
	m.Reset()

	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 0, m.Transitions())
	_, err := m.SampleAny(nil)
	require.ErrorIs(t, err, markov.ErrEmptyModel)

	m.Train(markov.Color{R: 3}, markov.Color{R: 4})
	assert.Equal(t, []markov.Key{markov.Encode(markov.Color{R: 3})}, m.Keys())
}

func TestSampleNext_Support(t *testing.T) {
	m := newModel(t, 1)
	src := markov.Color{R: 10}
	allowed := map[markov.Color]bool{{R: 20}: true, {G: 10}: true}
	for c := range allowed {
		m.Train(src, c)
	}

	rng := rand.New(rand.NewPCG(5, 6))
	seen := make(map[markov.Color]int)
	for range 500 {
		c, err := m.SampleNext(rng, src)
		require.NoError(t, err)
		require.True(t, allowed[c], "unexpected color %v", c)
		seen[c]++
	}
	assert.Len(t, seen, 2)
}

func TestSampleNext_NoTransition(t *testing.T) {
	m := newModel(t, 1)
	m.Train(markov.Color{R: 1}, markov.Color{R: 2})

	rng := rand.New(rand.NewPCG(7, 8))
	for range 20 {
		_, err := m.SampleNext(rng, markov.Color{B: 99})
		require.ErrorIs(t, err, markov.ErrNoTransition)
	}
}

func TestSampleNext_FrequencyBias(t *testing.T) {
	m := newModel(t, 1)
	src := markov.Color{R: 1}
	frequent, rare := markov.Color{G: 1}, markov.Color{B: 1}
	for range 9 {
		m.Train(src, frequent)
	}
	m.Train(src, rare)

	rng := rand.New(rand.NewPCG(9, 10))
	var hits int
	const n = 10000
	for range n {
		c, err := m.SampleNext(rng, src)
		require.NoError(t, err)
		if c == frequent {
			hits++
		}
	}
	assert.InDelta(t, 0.9, float64(hits)/n, 0.03)
}

func TestSampleAny(t *testing.T) {
	m := newModel(t, 1)
	_, err := m.SampleAny(nil)
	require.ErrorIs(t, err, markov.ErrEmptyModel)

	m.Train(markov.Color{R: 1}, markov.Color{R: 2})
	m.Train(markov.Color{R: 3}, markov.Color{R: 2})

	rng := rand.New(rand.NewPCG(11, 12))
	for range 100 {
		c, err := m.SampleAny(rng)
		require.NoError(t, err)
		require.Contains(t, []markov.Color{{R: 1}, {R: 3}}, c)
	}
}

//----------------------------------------------------------------------------//
// Training sweep
//----------------------------------------------------------------------------//

// TestFeedMatrix_Scenario trains on a 2×2 grid and checks both directions of
// every adjacency are present.
func TestFeedMatrix_Scenario(t *testing.T) {
	m := newModel(t, 1)
	rows := [][]markov.Color{
		{{R: 10}, {R: 20}},
		{{G: 10}, {G: 20}},
	}
	require.NoError(t, m.FeedMatrix(rows))

	// four unordered pairs, each recorded twice
	assert.Equal(t, 8, m.Transitions())
	assert.ElementsMatch(t,
		[]markov.Key{markov.Encode(markov.Color{R: 20}), markov.Encode(markov.Color{G: 10})},
		m.Neighbors(markov.Color{R: 10}))
	assert.Contains(t, m.Neighbors(markov.Color{R: 20}), markov.Encode(markov.Color{R: 10}))
	assert.Contains(t, m.Neighbors(markov.Color{G: 10}), markov.Encode(markov.Color{R: 10}))

	rng := rand.New(rand.NewPCG(13, 14))
	for range 100 {
		c, err := m.SampleNext(rng, markov.Color{R: 10})
		require.NoError(t, err)
		require.Contains(t, []markov.Color{{R: 20}, {G: 10}}, c)
	}
}

func TestFeed_Symmetry(t *testing.T) {
	const w, h, f = 7, 5, 8
	rng := rand.New(rand.NewPCG(15, 16))
	g, err := markov.NewGrid(w, h)
	require.NoError(t, err)
	for i := range g.Pix {
		g.Pix[i] = markov.Color{R: uint8(rng.IntN(256)), G: uint8(rng.IntN(256)), B: uint8(rng.IntN(256))}
	}

	m := newModel(t, f)
	require.NoError(t, m.Feed(g))
	assert.Equal(t, 2*((w-1)*h+w*(h-1)), m.Transitions())

	q := func(x, y int) markov.Color { return markov.Quantize(g.At(x, y), f) }
	for y := range h {
		for x := range w {
			for _, d := range [][2]int{{1, 0}, {0, 1}} {
				nx, ny := x+d[0], y+d[1]
				if !g.InBounds(nx, ny) {
					continue
				}
				p, n := q(x, y), q(nx, ny)
				require.Contains(t, m.Neighbors(p), markov.Encode(n))
				require.Contains(t, m.Neighbors(n), markov.Encode(p))
			}
		}
	}
}

func TestFeed_InvalidDimensions(t *testing.T) {
	m := newModel(t, 1)
	cases := []struct {
		name string
		feed func() error
	}{
		{"EmptyMatrix", func() error { return m.FeedMatrix(nil) }},
		{"EmptyRow", func() error { return m.FeedMatrix([][]markov.Color{{}}) }},
		{"Ragged", func() error { return m.FeedMatrix([][]markov.Color{{{}, {}}, {{}}}) }},
		{"ZeroGrid", func() error { return m.Feed(markov.Grid{}) }},
		{"ShortGrid", func() error { return m.Feed(markov.Grid{Width: 2, Height: 2, Pix: make([]markov.Color, 3)}) }},
		{"ShortPixels", func() error { return m.FeedPixels(make([]byte, 7), 2, 1, 8) }},
		{"BadStride", func() error { return m.FeedPixels(make([]byte, 16), 2, 2, 4) }},
		{"EmptyImage", func() error { return m.FeedImage(image.NewRGBA(image.Rect(0, 0, 0, 3))) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, tc.feed(), markov.ErrInvalidDimensions)
		})
	}
	assert.Equal(t, 0, m.Transitions())
}

func TestFeedPixels_MatchesFeedImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}

	fromPix := newModel(t, 1)
	require.NoError(t, fromPix.FeedPixels(img.Pix, 3, 2, img.Stride))
	fromImg := newModel(t, 1)
	require.NoError(t, fromImg.FeedImage(img))

	assert.Equal(t, fromImg.Keys(), fromPix.Keys())
	for _, k := range fromImg.Keys() {
		assert.Equal(t, fromImg.Neighbors(k.Color()), fromPix.Neighbors(k.Color()))
	}
}

func TestGridFromImage_SubImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(2, 3, color.NRGBA{R: 9, G: 8, B: 7, A: 255})
	sub := img.SubImage(image.Rect(1, 2, 4, 4))

	g, err := markov.GridFromImage(sub)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Width)
	assert.Equal(t, 2, g.Height)
	assert.Equal(t, markov.Color{R: 9, G: 8, B: 7}, g.At(1, 1))
}

//----------------------------------------------------------------------------//
// Stats
//----------------------------------------------------------------------------//

func TestStats(t *testing.T) {
	m := newModel(t, 1)
	assert.Equal(t, markov.Stats{}, m.Stats())

	a, b, c := markov.Color{R: 1}, markov.Color{R: 2}, markov.Color{R: 3}
	m.Train(a, b)
	m.Train(a, c)
	m.Train(b, b)

	s := m.Stats()
	assert.Equal(t, 2, s.Colors)
	assert.Equal(t, 3, s.Transitions)
	assert.Equal(t, 1, s.DeadEnds)
	assert.InDelta(t, 0.6931, s.MaxEntropy, 1e-3)
	assert.InDelta(t, 2*0.6931/3, s.MeanEntropy, 1e-3)

	top := m.Top(1)
	require.Len(t, top, 1)
	assert.Equal(t, markov.ColorCount{Color: a, Count: 2}, top[0])
	assert.Len(t, m.Top(-1), 2)
}
