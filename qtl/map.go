package qtl

import (
	"math"
	"sort"

	"github.com/hhcho/frand"
	"go.dedis.ch/onet/v3/log"

	"github.com/cropgen/qtlgwas/geno"
)

// RFEstimate is the pairwise linkage evidence between two markers.
type RFEstimate struct {
	RF  float64
	Lod float64
}

// EstimateRF estimates the recombination fraction between two codominant F2
// markers from the gametic distance between dosage calls, with a likelihood
// ratio LOD against free recombination. Samples missing either call are
// skipped.
func EstimateRF(g1, g2 []float64) RFEstimate {
	rec := 0.0
	n := 0
	for i := range g1 {
		if g1[i] == geno.Missing || g2[i] == geno.Missing {
			continue
		}
		rec += math.Abs(g1[i] - g2[i])
		n++
	}
	if n == 0 {
		return RFEstimate{RF: 0.5, Lod: 0}
	}

	gametes := float64(2 * n)
	rf := rec / gametes
	if rf > 0.5 {
		rf = 0.5
	}

	lod := 0.0
	if rf > 0 && rf < 0.5 {
		lod = rec*math.Log10(rf) + (gametes-rec)*math.Log10(1-rf) - gametes*math.Log10(0.5)
	} else if rf == 0 {
		lod = gametes * math.Log10(2)
	}
	return RFEstimate{RF: rf, Lod: lod}
}

// HaldaneCM converts a recombination fraction to map distance in cM.
func HaldaneCM(rf float64) float64 {
	if rf >= 0.5 {
		return math.Inf(1)
	}
	return -50 * math.Log(1-2*rf)
}

// HaldaneRF converts a map distance in cM to a recombination fraction.
func HaldaneRF(cm float64) float64 {
	return (1 - math.Exp(-2*cm/100)) / 2
}

// FormLinkageGroups partitions markers into linkage groups: two markers are
// linked when their estimated RF is at most maxRF with linkage LOD at least
// minLod, and groups are the connected components of that relation. Within a
// group markers keep their input order. Markers that link to nothing form
// singleton groups.
func FormLinkageGroups(ds *geno.Dataset, maxRF, minLod float64) [][]int {
	m := ds.NumMarkers()
	parent := make([]int, m)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	cols := make([][]float64, m)
	for j := 0; j < m; j++ {
		cols[j] = ds.Dosages(j)
	}

	for a := 0; a < m; a++ {
		for b := a + 1; b < m; b++ {
			est := EstimateRF(cols[a], cols[b])
			if est.RF <= maxRF && est.Lod >= minLod {
				union(a, b)
			}
		}
	}

	byRoot := make(map[int][]int)
	for j := 0; j < m; j++ {
		r := find(j)
		byRoot[r] = append(byRoot[r], j)
	}

	groups := make([][]int, 0, len(byRoot))
	for _, g := range byRoot {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i]) != len(groups[j]) {
			return len(groups[i]) > len(groups[j])
		}
		return groups[i][0] < groups[j][0]
	})
	log.LLvl1("Formed", len(groups), "linkage groups from", m, "markers")
	return groups
}

// SimulateMissing returns a completed copy of the genotype matrix: each
// missing call is drawn from its conditional distribution given the nearest
// informative flanking markers on the same chromosome, with recombination
// fractions from the Haldane map function. Draws come from rng, so a fixed
// seed reproduces the imputation.
func SimulateMissing(ds *geno.Dataset, rng *frand.RNG) [][]float64 {
	n, m := ds.NumSamples(), ds.NumMarkers()
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = make([]float64, m)
		for j := 0; j < m; j++ {
			out[i][j] = ds.Geno.At(i, j)
		}
	}

	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			if out[i][j] != geno.Missing {
				continue
			}
			out[i][j] = drawCall(ds, out[i], j, rng)
		}
	}
	return out
}

func drawCall(ds *geno.Dataset, row []float64, j int, rng *frand.RNG) float64 {
	probs := [3]float64{1, 1, 1}
	informed := false

	chrom := ds.Markers[j].Chrom
	if l, ok := flank(ds, row, j, chrom, -1); ok {
		rf := HaldaneRF(math.Abs(ds.Markers[j].Pos - ds.Markers[l].Pos))
		t := dosageTrans(int(row[l]), rf)
		for k := 0; k < 3; k++ {
			probs[k] *= t[k]
		}
		informed = true
	}
	if r, ok := flank(ds, row, j, chrom, 1); ok {
		rf := HaldaneRF(math.Abs(ds.Markers[r].Pos - ds.Markers[j].Pos))
		for k := 0; k < 3; k++ {
			probs[k] *= dosageTrans(k, rf)[int(row[r])]
		}
		informed = true
	}
	if !informed {
		// F2 genotype class priors.
		probs = [3]float64{0.25, 0.5, 0.25}
	}

	total := probs[0] + probs[1] + probs[2]
	u := rng.Float64() * total
	if u < probs[0] {
		return 0
	}
	if u < probs[0]+probs[1] {
		return 1
	}
	return 2
}

// flank scans outward from marker j in direction dir for the nearest called
// marker on the same chromosome.
func flank(ds *geno.Dataset, row []float64, j int, chrom string, dir int) (int, bool) {
	for k := j + dir; k >= 0 && k < ds.NumMarkers(); k += dir {
		if ds.Markers[k].Chrom != chrom {
			return 0, false
		}
		if row[k] != geno.Missing {
			return k, true
		}
	}
	return 0, false
}

// dosageTrans gives P(dosage at the target | dosage from at a flanking
// marker) for an F2, i.e. two independent gametes each recombining with
// probability rf.
func dosageTrans(from int, rf float64) [3]float64 {
	s := 1 - rf
	switch from {
	case 0:
		return [3]float64{s * s, 2 * rf * s, rf * rf}
	case 2:
		return [3]float64{rf * rf, 2 * rf * s, s * s}
	default:
		return [3]float64{rf * s, s*s + rf*rf, rf * s}
	}
}
