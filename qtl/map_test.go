package qtl

import (
	"math"
	"testing"

	"github.com/cropgen/qtlgwas/geno"
)

func TestHaldaneRoundTrip(t *testing.T) {
	for _, rf := range []float64{0.01, 0.1, 0.2, 0.4} {
		got := HaldaneRF(HaldaneCM(rf))
		if math.Abs(got-rf) > 1e-12 {
			t.Errorf("round trip of rf=%v gave %v", rf, got)
		}
	}
	if !math.IsInf(HaldaneCM(0.5), 1) {
		t.Error("free recombination should map to infinite distance")
	}
}

func TestEstimateRF(t *testing.T) {
	g := []float64{0, 0, 1, 1, 2, 2, 0, 1, 2, 0, 2, 1}

	self := EstimateRF(g, g)
	if self.RF != 0 {
		t.Errorf("rf of a marker with itself = %v, want 0", self.RF)
	}
	if self.Lod <= 3 {
		t.Errorf("self linkage LOD %v unexpectedly weak", self.Lod)
	}

	flipped := make([]float64, len(g))
	for i, v := range g {
		flipped[i] = 2 - v
	}
	opp := EstimateRF(g, flipped)
	if opp.RF != 0.5 {
		t.Errorf("rf against mirrored calls = %v, want capped at 0.5", opp.RF)
	}

	missing := EstimateRF([]float64{geno.Missing, geno.Missing}, []float64{0, 1})
	if missing.RF != 0.5 || missing.Lod != 0 {
		t.Errorf("all-missing pair gave rf=%v lod=%v", missing.RF, missing.Lod)
	}
}

func TestFormLinkageGroupsSeparatesChromosomes(t *testing.T) {
	ds := simCross(300, 2, 8, 0, 21)

	groups := FormLinkageGroups(ds, 0.35, 3)

	chromOf := func(j int) string { return ds.Markers[j].Chrom }
	for _, group := range groups {
		for _, j := range group[1:] {
			if chromOf(j) != chromOf(group[0]) {
				t.Fatalf("group mixes chromosomes %s and %s", chromOf(group[0]), chromOf(j))
			}
		}
	}
	if len(groups) < 2 {
		t.Fatalf("expected at least 2 linkage groups, got %d", len(groups))
	}
}

func TestSimulateMissingCompletesMatrix(t *testing.T) {
	ds := simCross(60, 2, 6, 0, 13)

	// Punch holes in the panel.
	rng := NewRNG(99)
	for i := 0; i < ds.NumSamples(); i++ {
		for j := 0; j < ds.NumMarkers(); j++ {
			if rng.Float64() < 0.15 {
				ds.Geno.Set(i, j, geno.Missing)
			}
		}
	}

	a := SimulateMissing(ds, NewRNG(5))
	b := SimulateMissing(ds, NewRNG(5))

	for i := range a {
		for j := range a[i] {
			if a[i][j] == geno.Missing {
				t.Fatalf("call (%d,%d) still missing after simulation", i, j)
			}
			if a[i][j] != 0 && a[i][j] != 1 && a[i][j] != 2 {
				t.Fatalf("call (%d,%d) = %v outside dosage range", i, j, a[i][j])
			}
			if orig := ds.Geno.At(i, j); orig != geno.Missing && a[i][j] != orig {
				t.Fatalf("called genotype (%d,%d) was altered", i, j)
			}
			if a[i][j] != b[i][j] {
				t.Fatalf("simulation not deterministic at (%d,%d) under a fixed seed", i, j)
			}
		}
	}
}
