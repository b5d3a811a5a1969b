package qtl

import (
	"math"
	"testing"

	"github.com/cropgen/qtlgwas/geno"
)

func TestFitEffectsRecoversPlantedEffect(t *testing.T) {
	ds := simCross(400, 1, 11, 2.0, 31)
	y, _ := ds.Trait("planted")

	model, err := FitEffects(ds, y, []ScanRow{{Marker: "m1_5", Chrom: "1", Pos: 50}})
	if err != nil {
		t.Fatal(err)
	}

	if len(model.Loci) != 1 {
		t.Fatalf("got %d loci, want 1", len(model.Loci))
	}
	if a := model.Loci[0].Additive; math.Abs(a-2.0) > 0.3 {
		t.Errorf("additive estimate %v far from planted 2.0", a)
	}
	if d := model.Loci[0].Dominance; math.Abs(d) > 0.5 {
		t.Errorf("dominance estimate %v should be near 0", d)
	}
	if model.RSquared < 0.4 {
		t.Errorf("R2 = %v, expected a strong fit", model.RSquared)
	}
}

func TestFitEffectsRejectsBadInput(t *testing.T) {
	ds := simCross(50, 1, 5, 1.0, 2)
	y, _ := ds.Trait("planted")

	if _, err := FitEffects(ds, y, nil); err == nil {
		t.Error("empty locus list did not fail")
	}
	if _, err := FitEffects(ds, y, []ScanRow{{Marker: "bogus"}}); err == nil {
		t.Error("unknown candidate marker did not fail")
	}
}

func TestFitEffectsToleratesMissingCalls(t *testing.T) {
	ds := simCross(200, 1, 7, 1.5, 19)
	y, _ := ds.Trait("planted")

	for i := 0; i < 20; i++ {
		ds.Geno.Set(i, 3, geno.Missing)
	}

	model, err := FitEffects(ds, y, []ScanRow{{Marker: "m1_3", Chrom: "1", Pos: 30}})
	if err != nil {
		t.Fatal(err)
	}
	if model.Loci[0].Additive <= 0 {
		t.Errorf("additive estimate %v lost its sign under missing calls", model.Loci[0].Additive)
	}
}
