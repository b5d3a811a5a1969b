package qtl

import (
	"testing"
)

func TestScanFindsPlantedQTL(t *testing.T) {
	ds := simCross(250, 2, 11, 1.5, 7)
	y, err := ds.Trait("planted")
	if err != nil {
		t.Fatal(err)
	}

	scan := ScanTrait(ds, y)
	if len(scan) != ds.NumMarkers() {
		t.Fatalf("scan has %d rows, want %d", len(scan), ds.NumMarkers())
	}

	best := scan[0]
	for _, row := range scan {
		if row.Lod > best.Lod {
			best = row
		}
	}
	if best.Marker != "m1_5" {
		t.Errorf("peak at %s (LOD %.2f), want m1_5", best.Marker, best.Lod)
	}
	if best.Lod < 5 {
		t.Errorf("peak LOD %.2f too small for a planted effect", best.Lod)
	}
}

func TestScanFlatTraitStaysLow(t *testing.T) {
	ds := simCross(250, 2, 11, 1.5, 7)
	y, err := ds.Trait("flat")
	if err != nil {
		t.Fatal(err)
	}

	if max := MaxLod(ScanTrait(ds, y)); max > 4 {
		t.Errorf("null trait reached LOD %.2f, expected < 4", max)
	}
}

func TestCandidatesAreSubsetOfScan(t *testing.T) {
	ds := simCross(200, 2, 11, 1.2, 11)
	y, _ := ds.Trait("planted")
	scan := ScanTrait(ds, y)

	byMarker := make(map[string]ScanRow, len(scan))
	for _, row := range scan {
		byMarker[row.Marker] = row
	}

	cands := Candidates(scan, 3)
	if len(cands) == 0 {
		t.Fatal("expected candidates above LOD 3")
	}
	for _, c := range cands {
		orig, ok := byMarker[c.Marker]
		if !ok {
			t.Fatalf("candidate %s not present in scan", c.Marker)
		}
		if orig != c {
			t.Errorf("candidate %s differs from scan row: %+v vs %+v", c.Marker, c, orig)
		}
		if c.Lod <= 3 {
			t.Errorf("candidate %s has LOD %.2f <= threshold", c.Marker, c.Lod)
		}
	}

	if got := Candidates(scan, 1e6); len(got) != 0 {
		t.Errorf("expected no candidates at absurd threshold, got %d", len(got))
	}
}

func TestMarkerLodHandlesDegenerateInput(t *testing.T) {
	cases := []struct {
		name string
		g    []float64
		y    []float64
	}{
		{"too few samples", []float64{0, 2}, []float64{1, 2}},
		{"all missing", []float64{-1, -1, -1, -1}, []float64{1, 2, 3, 4}},
		{"constant phenotype", []float64{0, 1, 2, 1}, []float64{5, 5, 5, 5}},
	}
	for _, tc := range cases {
		if lod := markerLod(tc.g, tc.y); lod != 0 {
			t.Errorf("%s: got LOD %v, want 0", tc.name, lod)
		}
	}
}
