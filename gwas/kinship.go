package gwas

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cropgen/qtlgwas/geno"
)

// EstimateKinship builds the VanRaden genomic relationship matrix
// K = ZZᵀ/m from the kept markers, where Z holds dosages centered by 2p and
// scaled by sqrt(2p(1-p)). Missing calls are replaced by the marker mean
// before standardization. Monomorphic markers contribute nothing; if none
// remain, an error is returned.
func EstimateKinship(ds *geno.Dataset, keep []bool) (*mat.SymDense, error) {
	n := ds.NumSamples()
	var cols [][]float64

	for j := 0; j < ds.NumMarkers(); j++ {
		if keep != nil && !keep[j] {
			continue
		}
		g := ds.Dosages(j)

		sum, called := 0.0, 0.0
		for _, v := range g {
			if v != geno.Missing {
				sum += v
				called++
			}
		}
		if called == 0 {
			continue
		}
		meanDosage := sum / called
		p := meanDosage / 2
		sd := math.Sqrt(2 * p * (1 - p))
		if sd == 0 {
			continue
		}

		z := make([]float64, n)
		for i, v := range g {
			if v == geno.Missing {
				v = meanDosage
			}
			z[i] = (v - 2*p) / sd
		}
		cols = append(cols, z)
	}

	m := len(cols)
	if m == 0 {
		return nil, fmt.Errorf("no polymorphic markers left for kinship estimation")
	}
	z := mat.NewDense(n, m, nil)
	for j, col := range cols {
		z.SetCol(j, col)
	}

	var k mat.SymDense
	k.SymOuterK(1/float64(m), z)
	return &k, nil
}
