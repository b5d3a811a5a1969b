package gwas

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/cropgen/qtlgwas/geno"
	"github.com/cropgen/qtlgwas/qtl"
)

// simPanel simulates an association panel of unlinked SNPs in
// Hardy-Weinberg proportions, with an additive effect planted at causalSnp.
func simPanel(n, m, causalSnp int, effect float64, seed uint64) (*geno.Dataset, []float64) {
	rng := qtl.NewRNG(seed)

	markers := make([]geno.Marker, m)
	g := mat.NewDense(n, m, nil)
	for j := 0; j < m; j++ {
		markers[j] = geno.Marker{
			Name:  fmt.Sprintf("snp%03d", j),
			Chrom: fmt.Sprintf("%d", 1+j%5),
			Pos:   float64(1000 * (j + 1)),
		}
		p := 0.2 + 0.6*rng.Float64()
		for i := 0; i < n; i++ {
			d := 0.0
			if rng.Float64() < p {
				d++
			}
			if rng.Float64() < p {
				d++
			}
			g.Set(i, j, d)
		}
	}

	samples := make([]string, n)
	y := make([]float64, n)
	pheno := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		samples[i] = fmt.Sprintf("acc%03d", i)
		noise := 0.0
		for k := 0; k < 12; k++ {
			noise += rng.Float64()
		}
		y[i] = effect*g.At(i, causalSnp) + noise - 6
		pheno.Set(i, 0, y[i])
	}

	return geno.NewDataset(g, samples, markers, pheno, []string{"flowering"}), y
}

func TestSnpStats(t *testing.T) {
	s := snpStats([]float64{0, 0, 1, 1, 2, geno.Missing})
	if math.Abs(s.Maf-0.4) > 1e-12 {
		t.Errorf("maf = %v, want 0.4", s.Maf)
	}
	if math.Abs(s.MissRate-1.0/6) > 1e-12 {
		t.Errorf("miss rate = %v, want 1/6", s.MissRate)
	}
	if s.HweChi2 < 0 {
		t.Errorf("negative HWE chi2 %v", s.HweChi2)
	}

	mono := snpStats([]float64{2, 2, 2, 2})
	if mono.Maf != 0 {
		t.Errorf("monomorphic maf = %v", mono.Maf)
	}
}

func TestFilterSnps(t *testing.T) {
	stats := []SnpStats{
		{Maf: 0.3, MissRate: 0.01, HweChi2: 1},
		{Maf: 0.01, MissRate: 0.01, HweChi2: 1},  // rare
		{Maf: 0.3, MissRate: 0.5, HweChi2: 1},    // sparse
		{Maf: 0.3, MissRate: 0.01, HweChi2: 100}, // HWE violation
	}
	keep := FilterSnps(stats, FilterParams{MafLowerBound: 0.05, GenoMissBound: 0.1, HweUpperBound: 25})
	want := []bool{true, false, false, false}
	for i := range want {
		if keep[i] != want[i] {
			t.Errorf("snp %d: keep=%v, want %v", i, keep[i], want[i])
		}
	}
}

func TestSnpStatsStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geno.tsv")
	body := "id\tsnpA\tsnpB\n" +
		"s1\t0\t2\n" +
		"s2\t1\tNA\n" +
		"s3\t2\t1\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	fs := geno.StreamGenotypes(path, 3, 2, '\t')
	stats := ComputeSnpStatsStream(fs)
	if len(stats) != 2 {
		t.Fatalf("got %d stats, want 2", len(stats))
	}
	if math.Abs(stats[0].Maf-0.5) > 1e-12 {
		t.Errorf("snpA maf = %v, want 0.5", stats[0].Maf)
	}
	if math.Abs(stats[1].Maf-0.25) > 1e-12 {
		t.Errorf("snpB maf = %v, want 0.25", stats[1].Maf)
	}
	if math.Abs(stats[1].MissRate-1.0/3) > 1e-12 {
		t.Errorf("snpB miss rate = %v, want 1/3", stats[1].MissRate)
	}

	// The stream pass must agree with the in-memory pass.
	g := mat.NewDense(3, 2, []float64{0, 2, 1, geno.Missing, 2, 1})
	ds := geno.NewDataset(g, []string{"s1", "s2", "s3"},
		[]geno.Marker{{Name: "snpA", Chrom: "1", Pos: 1}, {Name: "snpB", Chrom: "1", Pos: 2}},
		mat.NewDense(3, 1, nil), []string{"flowering"})
	for j, mem := range ComputeSnpStats(ds) {
		if mem != stats[j] {
			t.Errorf("marker %d: stream stats %+v != in-memory %+v", j, stats[j], mem)
		}
	}

	// QC drops snpB, a missing-phenotype filter drops s2; only the
	// surviving cells are materialized.
	fs.UpdateColFilt([]bool{true, false})
	fs.UpdateRowFilt([]bool{true, false, true})
	kept := fs.ToMatDense()
	r, c := kept.Dims()
	if r != 2 || c != 1 {
		t.Fatalf("materialized %dx%d, want 2x1", r, c)
	}
	if kept.At(0, 0) != 0 || kept.At(1, 0) != 2 {
		t.Errorf("materialized column = [%v %v], want [0 2]", kept.At(0, 0), kept.At(1, 0))
	}
}

func TestKinshipShape(t *testing.T) {
	ds, _ := simPanel(80, 100, 10, 0, 5)
	k, err := EstimateKinship(ds, nil)
	if err != nil {
		t.Fatal(err)
	}

	n, c := k.Dims()
	if n != 80 || c != 80 {
		t.Fatalf("kinship is %dx%d, want 80x80", n, c)
	}
	diagSum := 0.0
	for i := 0; i < n; i++ {
		diagSum += k.At(i, i)
		for j := 0; j < n; j++ {
			if k.At(i, j) != k.At(j, i) {
				t.Fatalf("kinship not symmetric at (%d,%d)", i, j)
			}
		}
	}
	// Standardized markers give a mean diagonal near 1.
	if mean := diagSum / float64(n); mean < 0.7 || mean > 1.3 {
		t.Errorf("mean kinship diagonal %v far from 1", mean)
	}
}

func TestKinshipRequiresPolymorphicMarkers(t *testing.T) {
	n, m := 10, 4
	g := mat.NewDense(n, m, nil)
	markers := make([]geno.Marker, m)
	samples := make([]string, n)
	for j := 0; j < m; j++ {
		markers[j] = geno.Marker{Name: fmt.Sprintf("snp%03d", j), Chrom: "1", Pos: float64(j)}
		for i := 0; i < n; i++ {
			g.Set(i, j, 2)
		}
	}
	for i := range samples {
		samples[i] = fmt.Sprintf("acc%03d", i)
	}
	ds := geno.NewDataset(g, samples, markers, mat.NewDense(n, 1, nil), []string{"flowering"})

	if _, err := EstimateKinship(ds, nil); err == nil {
		t.Error("expected error for all-monomorphic panel")
	}

	poly, _ := simPanel(10, 4, 0, 0, 9)
	if _, err := EstimateKinship(poly, make([]bool, 4)); err == nil {
		t.Error("expected error when the keep mask drops every marker")
	}
}

func TestFitNullRejectsMissingPhenotype(t *testing.T) {
	ds, y := simPanel(60, 40, 5, 0.5, 17)
	k, err := EstimateKinship(ds, nil)
	if err != nil {
		t.Fatal(err)
	}

	y[3] = math.NaN()
	if _, err := FitNull(y, k); err == nil {
		t.Error("expected error for phenotype with a missing value")
	}
}

func TestMixedModelScanFindsCausalSnp(t *testing.T) {
	ds, y := simPanel(200, 120, 42, 0.8, 11)

	k, err := EstimateKinship(ds, nil)
	if err != nil {
		t.Fatal(err)
	}
	mm, err := FitNull(y, k)
	if err != nil {
		t.Fatal(err)
	}

	rows := mm.ScanAssociations(ds, nil, y)
	if len(rows) != 120 {
		t.Fatalf("got %d rows, want 120", len(rows))
	}

	best := rows[0]
	for _, r := range rows {
		if r.P < 0 || r.P > 1 {
			t.Fatalf("p-value %v out of range at %s", r.P, r.Snp)
		}
		if r.P < best.P {
			best = r
		}
	}
	if best.Snp != "snp042" {
		t.Errorf("smallest p at %s (p=%.2e), want snp042", best.Snp, best.P)
	}
	if best.P > 1e-6 {
		t.Errorf("causal SNP p = %v, expected strong signal", best.P)
	}
	if best.Beta < 0.4 {
		t.Errorf("causal beta = %v, planted 0.8", best.Beta)
	}
}

func TestScanRespectsKeepMask(t *testing.T) {
	ds, y := simPanel(100, 50, 7, 0.5, 3)
	k, err := EstimateKinship(ds, nil)
	if err != nil {
		t.Fatal(err)
	}
	mm, err := FitNull(y, k)
	if err != nil {
		t.Fatal(err)
	}

	keep := make([]bool, 50)
	for j := 0; j < 25; j++ {
		keep[j] = true
	}
	rows := mm.ScanAssociations(ds, keep, y)
	if len(rows) != 25 {
		t.Fatalf("got %d rows, want 25", len(rows))
	}
	for _, r := range rows {
		if r.Snp >= "snp025" {
			t.Errorf("filtered SNP %s present in scan", r.Snp)
		}
	}
}
