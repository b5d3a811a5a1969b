package qtl

import (
	"fmt"

	"github.com/hhcho/frand"
	"gonum.org/v1/gonum/mat"

	"github.com/cropgen/qtlgwas/geno"
)

// simCross simulates an F2 panel: numChrom chromosomes of markersPerChrom
// equally spaced markers (10 cM apart), genotypes built from two gametes
// recombining per the Haldane map function. The trait column "planted" gets
// an additive effect at the middle marker of chromosome 1 plus noise; the
// trait column "flat" is pure noise.
func simCross(n, numChrom, markersPerChrom int, effect float64, seed uint64) *geno.Dataset {
	rng := NewRNG(seed)

	m := numChrom * markersPerChrom
	markers := make([]geno.Marker, 0, m)
	for c := 1; c <= numChrom; c++ {
		for j := 0; j < markersPerChrom; j++ {
			markers = append(markers, geno.Marker{
				Name:  fmt.Sprintf("m%d_%d", c, j),
				Chrom: fmt.Sprintf("%d", c),
				Pos:   float64(j) * 10,
			})
		}
	}

	g := mat.NewDense(n, m, nil)
	for i := 0; i < n; i++ {
		col := 0
		for c := 0; c < numChrom; c++ {
			h1 := bernoulli(rng)
			h2 := bernoulli(rng)
			for j := 0; j < markersPerChrom; j++ {
				if j > 0 {
					rf := HaldaneRF(10)
					if rng.Float64() < rf {
						h1 = 1 - h1
					}
					if rng.Float64() < rf {
						h2 = 1 - h2
					}
				}
				g.Set(i, col, float64(h1+h2))
				col++
			}
		}
	}

	qtlCol := markersPerChrom / 2
	samples := make([]string, n)
	pheno := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		samples[i] = fmt.Sprintf("s%03d", i)
		noise := gauss(rng)
		pheno.Set(i, 0, effect*(g.At(i, qtlCol)-1)+noise)
		pheno.Set(i, 1, gauss(rng))
	}

	return geno.NewDataset(g, samples, markers, pheno, []string{"planted", "flat"})
}

func bernoulli(rng *frand.RNG) int {
	if rng.Float64() < 0.5 {
		return 0
	}
	return 1
}

// gauss approximates a standard normal draw as a sum of uniforms.
func gauss(rng *frand.RNG) float64 {
	s := 0.0
	for k := 0; k < 12; k++ {
		s += rng.Float64()
	}
	return s - 6
}
