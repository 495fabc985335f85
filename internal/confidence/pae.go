package confidence

import (
	"math"
	"math/rand"
)

// DemoPAESize is the side of the demo PAE matrix
const DemoPAESize = 20

// PAEPoint is the expected position error (Å) between residues X and Y
type PAEPoint struct {
	X, Y int
	V    float64
}

// DemoPAE returns a size x size synthetic PAE matrix in row-major order.
// Errors are small near the diagonal and grow with distance from the centre.
func DemoPAE(rng *rand.Rand, size int) []PAEPoint {
	points := make([]PAEPoint, 0, size*size)
	centre := float64(size) / 2
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			var v float64
			if abs(i-j) < 3 {
				v = rng.Float64() * 2
			} else {
				dist := math.Hypot(float64(i)-centre, float64(j)-centre)
				v = 2 + dist/float64(size)*20 + rng.Float64()*5
			}
			points = append(points, PAEPoint{X: i, Y: j, V: v})
		}
	}
	return points
}

// Alpha maps an error to an opacity in [0.1, 1]; low error is opaque
func Alpha(v float64) float64 {
	return math.Max(0.1, 1-v/25)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
