// Package ld computes pairwise linkage disequilibrium between SNPs as the
// squared Pearson correlation of genotype dosages.
package ld

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/cropgen/qtlgwas/geno"
)

// Pair is the LD between two SNPs. Dist is in the map units of the panel.
type Pair struct {
	SnpA string  `json:"snp_a"`
	SnpB string  `json:"snp_b"`
	R2   float64 `json:"r2"`
	Dist float64 `json:"dist"`
}

// ResolveSnps maps SNP names to marker indices. It fails on the first name
// absent from the panel, before any computation or output happens.
func ResolveSnps(ds *geno.Dataset, snps []string) ([]int, error) {
	idx := make([]int, len(snps))
	for i, name := range snps {
		j, ok := ds.MarkerIndex(name)
		if !ok {
			return nil, fmt.Errorf("SNP %q not found in genotype marker list", name)
		}
		idx[i] = j
	}
	return idx, nil
}

// RSquaredMatrix computes the full pairwise r² matrix for a requested SNP
// list. The matrix is symmetric with unit diagonal.
func RSquaredMatrix(ds *geno.Dataset, snps []string) (*mat.Dense, error) {
	idx, err := ResolveSnps(ds, snps)
	if err != nil {
		return nil, err
	}

	cols := make([][]float64, len(idx))
	for i, j := range idx {
		cols[i] = ds.Dosages(j)
	}

	r2 := mat.NewDense(len(idx), len(idx), nil)
	for a := range cols {
		r2.Set(a, a, 1)
		for b := a + 1; b < len(cols); b++ {
			v := RSquared(cols[a], cols[b])
			r2.Set(a, b, v)
			r2.Set(b, a, v)
		}
	}
	return r2, nil
}

// Pairwise lists all SNP pairs from the request with their r² and map
// distance (distance is NaN across chromosomes).
func Pairwise(ds *geno.Dataset, snps []string) ([]Pair, error) {
	idx, err := ResolveSnps(ds, snps)
	if err != nil {
		return nil, err
	}

	var out []Pair
	for a := 0; a < len(idx); a++ {
		for b := a + 1; b < len(idx); b++ {
			ma, mb := ds.Markers[idx[a]], ds.Markers[idx[b]]
			dist := math.NaN()
			if ma.Chrom == mb.Chrom {
				dist = math.Abs(ma.Pos - mb.Pos)
			}
			out = append(out, Pair{
				SnpA: ma.Name,
				SnpB: mb.Name,
				R2:   RSquared(ds.Dosages(idx[a]), ds.Dosages(idx[b])),
				Dist: dist,
			})
		}
	}
	return out, nil
}

// RegionScan computes r² of an index SNP against every panel SNP within
// windowDist on the same chromosome.
func RegionScan(ds *geno.Dataset, indexSnp string, windowDist float64) ([]Pair, error) {
	j, ok := ds.MarkerIndex(indexSnp)
	if !ok {
		return nil, fmt.Errorf("SNP %q not found in genotype marker list", indexSnp)
	}
	anchor := ds.Markers[j]
	gj := ds.Dosages(j)

	var out []Pair
	for k := 0; k < ds.NumMarkers(); k++ {
		if k == j || ds.Markers[k].Chrom != anchor.Chrom {
			continue
		}
		dist := math.Abs(ds.Markers[k].Pos - anchor.Pos)
		if dist > windowDist {
			continue
		}
		out = append(out, Pair{
			SnpA: anchor.Name,
			SnpB: ds.Markers[k].Name,
			R2:   RSquared(gj, ds.Dosages(k)),
			Dist: dist,
		})
	}
	return out, nil
}

// RSquared is the squared dosage correlation over samples where both SNPs
// are called. Pairs with no shared calls or a monomorphic SNP score 0.
func RSquared(g1, g2 []float64) float64 {
	var x, y []float64
	for i := range g1 {
		if g1[i] == geno.Missing || g2[i] == geno.Missing {
			continue
		}
		x = append(x, g1[i])
		y = append(y, g2[i])
	}
	if len(x) < 2 {
		return 0
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r * r
}
