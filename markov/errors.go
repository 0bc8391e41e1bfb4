package markov

import "errors"

var (
	// ErrEmptyModel is returned when a model with no recorded transitions is
	// asked for a color.
	ErrEmptyModel = errors.New("markov: empty model")
	// ErrNoTransition reports that a color was never observed next to
	// anything. It is an expected outcome, not a failure.
	ErrNoTransition = errors.New("markov: no transition")
	// ErrInvalidDimensions is returned for non-positive or inconsistent grid
	// sizes.
	ErrInvalidDimensions = errors.New("markov: invalid dimensions")
	// ErrInvalidCompression is returned for compression factors below 1.
	ErrInvalidCompression = errors.New("markov: invalid compression factor")
)
