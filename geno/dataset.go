package geno

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Missing marks an uncalled genotype in a dosage matrix.
const Missing = -1

// Marker is one mapped locus. Pos is in centimorgans for linkage panels
// and in base pairs for association panels; the pipelines never mix the two.
type Marker struct {
	Name  string
	Chrom string
	Pos   float64
}

// Dataset holds one loaded population: a sample-by-marker dosage matrix
// (0/1/2, Missing for no-calls), a sample-by-trait phenotype matrix and the
// marker map. It is not mutated after loading.
type Dataset struct {
	Geno    *mat.Dense
	Samples []string
	Markers []Marker

	Pheno  *mat.Dense
	Traits []string

	markerIx map[string]int
	traitIx  map[string]int
}

func NewDataset(geno *mat.Dense, samples []string, markers []Marker, pheno *mat.Dense, traits []string) *Dataset {
	ds := &Dataset{
		Geno:     geno,
		Samples:  samples,
		Markers:  markers,
		Pheno:    pheno,
		Traits:   traits,
		markerIx: make(map[string]int, len(markers)),
		traitIx:  make(map[string]int, len(traits)),
	}
	for i, m := range markers {
		ds.markerIx[m.Name] = i
	}
	for i, t := range traits {
		ds.traitIx[t] = i
	}
	return ds
}

func (ds *Dataset) NumSamples() int { return len(ds.Samples) }
func (ds *Dataset) NumMarkers() int { return len(ds.Markers) }

func (ds *Dataset) MarkerIndex(name string) (int, bool) {
	i, ok := ds.markerIx[name]
	return i, ok
}

// Trait returns a copy of the phenotype column for the named trait.
func (ds *Dataset) Trait(name string) ([]float64, error) {
	j, ok := ds.traitIx[name]
	if !ok {
		return nil, fmt.Errorf("trait %q not found in phenotype table", name)
	}
	n := ds.NumSamples()
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		y[i] = ds.Pheno.At(i, j)
	}
	return y, nil
}

// Dosages returns a copy of the genotype column for marker index j.
func (ds *Dataset) Dosages(j int) []float64 {
	n := ds.NumSamples()
	g := make([]float64, n)
	for i := 0; i < n; i++ {
		g[i] = ds.Geno.At(i, j)
	}
	return g
}

// DosagesByName is Dosages keyed by marker name.
func (ds *Dataset) DosagesByName(name string) ([]float64, error) {
	j, ok := ds.markerIx[name]
	if !ok {
		return nil, fmt.Errorf("marker %q not found in genotype panel", name)
	}
	return ds.Dosages(j), nil
}

// Chromosomes lists chromosome names in first-seen marker order.
func (ds *Dataset) Chromosomes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range ds.Markers {
		if !seen[m.Chrom] {
			seen[m.Chrom] = true
			out = append(out, m.Chrom)
		}
	}
	return out
}
