package popstruct

import (
	"fmt"
	"math"

	"github.com/hhcho/frand"
	"gonum.org/v1/gonum/mat"
)

const kmeansMaxIters = 100

// KMeans clusters embedded samples into k groups by Lloyd's algorithm with
// random initial centers drawn from rng. A fixed seed reproduces the
// assignment exactly. Returns one cluster index per sample.
func KMeans(points *mat.Dense, k int, rng *frand.RNG) ([]int, error) {
	n, dim := points.Dims()
	if k < 1 || k > n {
		return nil, fmt.Errorf("k must be in [1, %d], got %d", n, k)
	}

	centers := mat.NewDense(k, dim, nil)
	for c, i := range samplePoints(n, k, rng) {
		for d := 0; d < dim; d++ {
			centers.Set(c, d, points.At(i, d))
		}
	}

	assign := make([]int, n)
	for iter := 0; iter < kmeansMaxIters; iter++ {
		changed := false
		for i := 0; i < n; i++ {
			best, bestDist := 0, math.Inf(1)
			for c := 0; c < k; c++ {
				dist := 0.0
				for d := 0; d < dim; d++ {
					diff := points.At(i, d) - centers.At(c, d)
					dist += diff * diff
				}
				if dist < bestDist {
					best, bestDist = c, dist
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		counts := make([]int, k)
		centers.Zero()
		for i := 0; i < n; i++ {
			c := assign[i]
			counts[c]++
			for d := 0; d < dim; d++ {
				centers.Set(c, d, centers.At(c, d)+points.At(i, d))
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Re-seed an empty cluster on a random sample.
				i := rng.Intn(n)
				for d := 0; d < dim; d++ {
					centers.Set(c, d, points.At(i, d))
				}
				continue
			}
			for d := 0; d < dim; d++ {
				centers.Set(c, d, centers.At(c, d)/float64(counts[c]))
			}
		}
	}

	return assign, nil
}

// samplePoints picks k distinct indices in [0, n).
func samplePoints(n, k int, rng *frand.RNG) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm[:k]
}
