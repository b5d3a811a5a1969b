package qtl

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/cropgen/qtlgwas/geno"
)

// LocusEffect is the fitted additive and dominance effect at one candidate
// locus.
type LocusEffect struct {
	Marker    string  `json:"marker"`
	Chrom     string  `json:"chrom"`
	Pos       float64 `json:"pos_cm"`
	Additive  float64 `json:"additive"`
	Dominance float64 `json:"dominance"`
}

// EffectModel is a joint multi-locus fit over the candidate loci.
type EffectModel struct {
	Intercept float64       `json:"intercept"`
	Loci      []LocusEffect `json:"loci"`
	RSquared  float64       `json:"r_squared"`
}

// CollapseCandidates thins candidate rows so no two retained loci on one
// chromosome lie within minSepCM of each other. Within each cluster the
// highest-LOD row wins. This keeps near-duplicate rows flanking one peak
// from entering the joint model as separate loci.
func CollapseCandidates(cands []ScanRow, minSepCM float64) []ScanRow {
	byLod := make([]ScanRow, len(cands))
	copy(byLod, cands)
	sort.SliceStable(byLod, func(i, j int) bool { return byLod[i].Lod > byLod[j].Lod })

	var kept []ScanRow
	for _, c := range byLod {
		blocked := false
		for _, k := range kept {
			if k.Chrom == c.Chrom && math.Abs(k.Pos-c.Pos) < minSepCM {
				blocked = true
				break
			}
		}
		if !blocked {
			kept = append(kept, c)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Chrom != kept[j].Chrom {
			return kept[i].Chrom < kept[j].Chrom
		}
		return kept[i].Pos < kept[j].Pos
	})
	return kept
}

// FitEffects fits y ~ mu + sum_k (a_k add_k + d_k dom_k) over the candidate
// loci by least squares. Missing calls at a locus contribute the marker mean
// dosage to the additive column and zero to the dominance column; samples
// with a missing phenotype are dropped.
func FitEffects(ds *geno.Dataset, y []float64, loci []ScanRow) (*EffectModel, error) {
	if len(loci) == 0 {
		return nil, fmt.Errorf("no loci to fit")
	}

	var rows []int
	for i := range y {
		if !math.IsNaN(y[i]) {
			rows = append(rows, i)
		}
	}
	p := 1 + 2*len(loci)
	if len(rows) <= p {
		return nil, fmt.Errorf("only %d phenotyped samples for %d parameters", len(rows), p)
	}

	x := mat.NewDense(len(rows), p, nil)
	yv := mat.NewDense(len(rows), 1, nil)

	cols := make([][]float64, len(loci))
	for k, locus := range loci {
		j, ok := ds.MarkerIndex(locus.Marker)
		if !ok {
			return nil, fmt.Errorf("candidate marker %q not in genotype panel", locus.Marker)
		}
		cols[k] = ds.Dosages(j)
	}

	for r, i := range rows {
		x.Set(r, 0, 1)
		yv.Set(r, 0, y[i])
		for k := range loci {
			g := cols[k][i]
			if g == geno.Missing {
				x.Set(r, 1+2*k, meanDosage(cols[k])-1)
				x.Set(r, 2+2*k, 0)
				continue
			}
			x.Set(r, 1+2*k, g-1)
			if g == 1 {
				x.Set(r, 2+2*k, 1)
			}
		}
	}

	var qr mat.QR
	qr.Factorize(x)
	var beta mat.Dense
	if err := qr.SolveTo(&beta, false, yv); err != nil {
		return nil, fmt.Errorf("effect model solve: %w", err)
	}

	var fitted mat.Dense
	fitted.Mul(x, &beta)

	rss, tss, mean := 0.0, 0.0, 0.0
	for r := range rows {
		mean += yv.At(r, 0)
	}
	mean /= float64(len(rows))
	for r := range rows {
		d := yv.At(r, 0) - fitted.At(r, 0)
		rss += d * d
		c := yv.At(r, 0) - mean
		tss += c * c
	}

	model := &EffectModel{Intercept: beta.At(0, 0)}
	for k, locus := range loci {
		model.Loci = append(model.Loci, LocusEffect{
			Marker:    locus.Marker,
			Chrom:     locus.Chrom,
			Pos:       locus.Pos,
			Additive:  beta.At(1+2*k, 0),
			Dominance: beta.At(2+2*k, 0),
		})
	}
	if tss > 0 {
		model.RSquared = 1 - rss/tss
	}
	return model, nil
}

func meanDosage(g []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range g {
		if v != geno.Missing {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return sum / float64(n)
}
