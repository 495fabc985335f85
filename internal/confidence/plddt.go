// Package confidence generates the demo confidence data shown on the
// Confidence tab and classifies scores into the usual AlphaFold-style bands.
package confidence

import (
	"math"
	"math/rand"
)

// DemoResidues is the length of the demo pLDDT trace
const DemoResidues = 150

// Band is a pLDDT confidence class
type Band int

const (
	BandVeryLow Band = iota
	BandLow
	BandConfident
	BandVeryHigh
)

func (b Band) String() string {
	switch b {
	case BandVeryHigh:
		return "very high"
	case BandConfident:
		return "confident"
	case BandLow:
		return "low"
	default:
		return "very low"
	}
}

// BandOf classifies a pLDDT score (0-100)
func BandOf(score float64) Band {
	switch {
	case score > 90:
		return BandVeryHigh
	case score > 70:
		return BandConfident
	case score > 50:
		return BandLow
	default:
		return BandVeryLow
	}
}

// DemoPLDDT returns n synthetic per-residue scores: a well-folded core between
// residues 31 and 119 and disordered tails elsewhere.
func DemoPLDDT(rng *rand.Rand, n int) []float64 {
	scores := make([]float64, n)
	for i := range scores {
		if i > 30 && i < 120 {
			scores[i] = 85 + math.Sin(float64(i)/10)*8 + rng.Float64()*5
		} else {
			scores[i] = 40 + rng.Float64()*20
		}
	}
	return scores
}

// Summary holds the headline numbers for a pLDDT trace
type Summary struct {
	Residues     int
	Mean         float64
	PctConfident float64 // share of residues above 70
	PctVeryHigh  float64 // share of residues above 90
	Bands        map[Band]int
}

// Summarize computes the mean and band shares of scores
func Summarize(scores []float64) Summary {
	s := Summary{Residues: len(scores), Bands: make(map[Band]int, 4)}
	if len(scores) == 0 {
		return s
	}

	var total float64
	var confident, veryHigh int
	for _, v := range scores {
		total += v
		if v > 70 {
			confident++
		}
		if v > 90 {
			veryHigh++
		}
		s.Bands[BandOf(v)]++
	}

	n := float64(len(scores))
	s.Mean = total / n
	s.PctConfident = float64(confident) / n * 100
	s.PctVeryHigh = float64(veryHigh) / n * 100
	return s
}
