package qtl

import (
	"testing"
)

func testRunner(numPerms int) *Runner {
	return &Runner{
		DS:       simCross(250, 2, 11, 1.5, 7),
		NumPerms: numPerms,
		Seed:     17,
		MinSepCM: 10,
	}
}

func TestAnalyzePlantedTraitIsFull(t *testing.T) {
	r := testRunner(50)
	res, err := r.Analyze("planted", 4)
	if err != nil {
		t.Fatal(err)
	}

	if res.Kind != FullResult {
		t.Fatalf("got %s result, want full", res.Kind)
	}
	if len(res.Candidates) == 0 {
		t.Error("full result has no candidates")
	}
	if res.Model == nil {
		t.Fatal("full result has no effect model")
	}
	if len(res.Model.Loci) == 0 || len(res.Model.Loci) > len(res.Candidates) {
		t.Errorf("model has %d loci for %d candidates", len(res.Model.Loci), len(res.Candidates))
	}
	if res.Model.RSquared <= 0 || res.Model.RSquared >= 1 {
		t.Errorf("R2 = %v out of range", res.Model.RSquared)
	}
	if len(res.Perms) != 50 {
		t.Errorf("got %d permutations, want 50", len(res.Perms))
	}

	// The planted locus carries a positive additive effect.
	found := false
	for _, locus := range res.Model.Loci {
		if locus.Marker == "m1_5" && locus.Additive > 0.5 {
			found = true
		}
	}
	if !found {
		t.Errorf("planted locus missing from model: %+v", res.Model.Loci)
	}
}

func TestAnalyzeBelowThresholdIsPartial(t *testing.T) {
	r := testRunner(25)
	res, err := r.Analyze("flat", 10)
	if err != nil {
		t.Fatal(err)
	}

	if res.Kind != PartialResult {
		t.Fatalf("got %s result, want partial", res.Kind)
	}
	if res.Candidates != nil {
		t.Errorf("partial result carries %d candidates", len(res.Candidates))
	}
	if res.Model != nil {
		t.Error("partial result carries an effect model")
	}
	if len(res.Scan) != r.DS.NumMarkers() {
		t.Errorf("partial result scan has %d rows, want %d", len(res.Scan), r.DS.NumMarkers())
	}
	if len(res.Perms) != 25 {
		t.Errorf("partial result has %d permutations, want 25", len(res.Perms))
	}
}

func TestAnalyzeInputValidation(t *testing.T) {
	r := testRunner(10)

	if _, err := r.Analyze("no_such_trait", 4); err == nil {
		t.Error("unknown trait did not fail")
	}
	if _, err := r.Analyze("planted", 0); err == nil {
		t.Error("zero threshold did not fail")
	}
	if _, err := r.Analyze("planted", -2); err == nil {
		t.Error("negative threshold did not fail")
	}
}

func TestCollapseCandidates(t *testing.T) {
	cands := []ScanRow{
		{Marker: "a", Chrom: "1", Pos: 40, Lod: 5},
		{Marker: "b", Chrom: "1", Pos: 45, Lod: 8},
		{Marker: "c", Chrom: "1", Pos: 90, Lod: 4},
		{Marker: "d", Chrom: "2", Pos: 44, Lod: 4.5},
	}

	kept := CollapseCandidates(cands, 10)
	if len(kept) != 3 {
		t.Fatalf("kept %d loci, want 3: %+v", len(kept), kept)
	}
	names := map[string]bool{}
	for _, k := range kept {
		names[k.Marker] = true
	}
	if !names["b"] || names["a"] {
		t.Errorf("expected peak b to absorb a, kept %+v", kept)
	}
	if !names["c"] || !names["d"] {
		t.Errorf("distant loci dropped: %+v", kept)
	}
}
