package quiz

import (
	"math/rand/v2"
	"slices"
)

// Shuffler permutes n elements through swap, with the same contract as
// rand.Shuffle.
type Shuffler func(n int, swap func(i, j int))

// DefaultShuffler is backed by math/rand/v2's global source.
var DefaultShuffler Shuffler = rand.Shuffle

// ShuffleOptions returns a shuffled copy of options and the new index of the
// answer that was at correct.
//
// The answer is located again by its text after shuffling; the returned index
// always satisfies out[idx] == options[correct].
func ShuffleOptions(options []string, correct int, shuffle Shuffler) ([]string, int, error) {
	if correct < 0 || correct >= len(options) {
		return nil, 0, &CorrectOptionOutOfRangeError{Index: correct, Options: len(options)}
	}
	if shuffle == nil {
		shuffle = DefaultShuffler
	}
	answer := options[correct]

	out := slices.Clone(options)
	shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	idx := slices.Index(out, answer)
	if idx < 0 {
		// A Shuffler that loses elements is a programming error.
		return nil, 0, ErrNoCorrectAnswer
	}
	return out, idx, nil
}

// Shuffle applies ShuffleOptions to a raw record.
func (r RawQuiz) Shuffle(shuffle Shuffler) (RawQuiz, error) {
	opts, idx, err := ShuffleOptions(r.Options, r.CorrectOptionID, shuffle)
	if err != nil {
		return RawQuiz{}, err
	}
	r.Options = opts
	r.CorrectOptionID = idx
	return r, nil
}
