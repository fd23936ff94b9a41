package search

import (
	"math"

	"github.com/hbollon/go-edlib"
)

// Scorer rates how well query matches somewhere inside candidate, 0-100.
type Scorer interface {
	PartialRatio(query, candidate string) int
}

// EdlibScorer computes a partial ratio with go-edlib: the shorter string is
// compared against every equally long window of the longer one and the
// best similarity wins.
type EdlibScorer struct {
	Algorithm edlib.Algorithm
}

// NewEdlibScorer returns a Levenshtein-based partial ratio scorer.
func NewEdlibScorer() EdlibScorer {
	return EdlibScorer{Algorithm: edlib.Levenshtein}
}

func (s EdlibScorer) PartialRatio(query, candidate string) int {
	if query == "" || candidate == "" {
		return 0
	}
	short, long := []rune(query), []rune(candidate)
	if len(short) > len(long) {
		short, long = long, short
	}
	needle := string(short)
	best := float32(0)
	for i := 0; i+len(short) <= len(long); i++ {
		window := string(long[i : i+len(short)])
		if window == needle {
			return 100
		}
		sim, err := edlib.StringsSimilarity(needle, window, s.Algorithm)
		if err != nil {
			continue
		}
		best = max(best, sim)
	}
	return int(math.Round(float64(best) * 100))
}
