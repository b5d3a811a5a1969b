// Package popstruct estimates population structure from genotype panels:
// identity-by-state distances, principal coordinates, and k-means grouping.
package popstruct

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/cropgen/qtlgwas/geno"
)

// IBSDistance builds the sample-by-sample distance matrix 1 - IBS, where IBS
// is the mean shared-allele fraction over markers called in both samples.
func IBSDistance(ds *geno.Dataset) *mat.SymDense {
	n := ds.NumSamples()
	m := ds.NumMarkers()

	d := mat.NewSymDense(n, nil)
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			sum, called := 0.0, 0.0
			for j := 0; j < m; j++ {
				ga, gb := ds.Geno.At(a, j), ds.Geno.At(b, j)
				if ga == geno.Missing || gb == geno.Missing {
					continue
				}
				sum += 1 - math.Abs(ga-gb)/2
				called++
			}
			if called > 0 {
				d.SetSym(a, b, 1-sum/called)
			}
		}
	}
	return d
}

// Coordinates is a PCoA embedding: one row of Points per sample, plus the
// fraction of total positive eigenvalue mass captured by each axis.
type Coordinates struct {
	Points   *mat.Dense `json:"-"`
	VarShare []float64  `json:"var_share"`
}

// PCoA runs principal coordinates analysis on a distance matrix: square and
// double-center the distances, eigendecompose, and keep the numCoords axes
// with the largest positive eigenvalues.
func PCoA(d *mat.SymDense, numCoords int) (*Coordinates, error) {
	n, _ := d.Dims()
	if numCoords < 1 || numCoords >= n {
		return nil, fmt.Errorf("numCoords must be in [1, %d), got %d", n, numCoords)
	}

	// Gower centering: B = -1/2 J D2 J.
	rowMean := make([]float64, n)
	grand := 0.0
	d2 := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := d.At(i, j) * d.At(i, j)
			d2.SetSym(i, j, v)
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			rowMean[i] += d2.At(i, j)
		}
		rowMean[i] /= float64(n)
		grand += rowMean[i]
	}
	grand /= float64(n)

	b := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			b.SetSym(i, j, -0.5*(d2.At(i, j)-rowMean[i]-rowMean[j]+grand))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(b, true); !ok {
		return nil, fmt.Errorf("PCoA eigendecomposition failed")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return vals[order[i]] > vals[order[j]] })

	totalPos := 0.0
	for _, v := range vals {
		if v > 0 {
			totalPos += v
		}
	}

	points := mat.NewDense(n, numCoords, nil)
	share := make([]float64, numCoords)
	for k := 0; k < numCoords; k++ {
		ev := vals[order[k]]
		if ev < 0 {
			ev = 0
		}
		scale := math.Sqrt(ev)
		for i := 0; i < n; i++ {
			points.Set(i, k, vecs.At(i, order[k])*scale)
		}
		if totalPos > 0 {
			share[k] = ev / totalPos
		}
	}

	return &Coordinates{Points: points, VarShare: share}, nil
}
