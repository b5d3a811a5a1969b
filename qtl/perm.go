package qtl

import (
	"math"

	"github.com/hhcho/frand"
	"github.com/montanaflynn/stats"

	"github.com/cropgen/qtlgwas/geno"
)

// PermutationScan estimates the genome-wide null distribution of the scan
// statistic: it reruns ScanTrait numPerms times with phenotype labels
// shuffled across samples and records the maximum LOD of each rerun. The
// returned slice always has length numPerms.
func PermutationScan(ds *geno.Dataset, y []float64, numPerms int, rng *frand.RNG) []float64 {
	shuffled := make([]float64, len(y))
	copy(shuffled, y)

	out := make([]float64, numPerms)
	for p := 0; p < numPerms; p++ {
		shuffle(shuffled, rng)
		out[p] = MaxLod(ScanTrait(ds, shuffled))
	}
	return out
}

func shuffle(x []float64, rng *frand.RNG) {
	for i := len(x) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		x[i], x[j] = x[j], x[i]
	}
}

// PermThreshold returns the 100*q empirical percentile of a permutation
// distribution, e.g. q=0.95 for the 5% genome-wide threshold.
func PermThreshold(perms []float64, q float64) float64 {
	if len(perms) == 0 {
		return math.NaN()
	}
	t, err := stats.Percentile(perms, 100*q)
	if err != nil {
		return math.NaN()
	}
	return t
}
