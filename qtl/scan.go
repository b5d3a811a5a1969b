package qtl

import (
	"math"

	"github.com/cropgen/qtlgwas/geno"
)

// ScanRow is one marker's association result for one trait.
type ScanRow struct {
	Marker string  `json:"marker"`
	Chrom  string  `json:"chrom"`
	Pos    float64 `json:"pos_cm"`
	Lod    float64 `json:"lod"`
}

// ScanTrait runs a single-QTL marker regression of y on each marker of an F2
// panel. The per-marker model fits a mean per genotype class, which is
// equivalent to the additive+dominance regression, and reports
// LOD = (n/2) log10(RSS0/RSS1). Samples missing either the call or the
// phenotype are dropped at that marker only.
func ScanTrait(ds *geno.Dataset, y []float64) []ScanRow {
	out := make([]ScanRow, ds.NumMarkers())
	for j := 0; j < ds.NumMarkers(); j++ {
		m := ds.Markers[j]
		out[j] = ScanRow{
			Marker: m.Name,
			Chrom:  m.Chrom,
			Pos:    m.Pos,
			Lod:    markerLod(ds.Dosages(j), y),
		}
	}
	return out
}

func markerLod(g, y []float64) float64 {
	var sum, sumSq [3]float64
	var cnt [3]int

	n := 0
	mean := 0.0
	for i := range g {
		if g[i] == geno.Missing || math.IsNaN(y[i]) {
			continue
		}
		k := int(g[i])
		sum[k] += y[i]
		sumSq[k] += y[i] * y[i]
		cnt[k]++
		mean += y[i]
		n++
	}
	if n < 3 {
		return 0
	}
	mean /= float64(n)

	rss0 := 0.0
	rss1 := 0.0
	for k := 0; k < 3; k++ {
		if cnt[k] == 0 {
			continue
		}
		classMean := sum[k] / float64(cnt[k])
		rss1 += sumSq[k] - float64(cnt[k])*classMean*classMean
		rss0 += sumSq[k] - 2*mean*sum[k] + float64(cnt[k])*mean*mean
	}
	if rss1 <= 0 || rss0 <= 0 {
		return 0
	}

	lod := float64(n) / 2 * math.Log10(rss0/rss1)
	if lod < 0 {
		return 0
	}
	return lod
}

// Candidates filters scan rows whose LOD exceeds the threshold. Rows keep
// their identity fields, so the result is always a subset of the input.
func Candidates(scan []ScanRow, threshold float64) []ScanRow {
	var out []ScanRow
	for _, row := range scan {
		if row.Lod > threshold {
			out = append(out, row)
		}
	}
	return out
}

// MaxLod returns the largest statistic in a scan, 0 for an empty scan.
func MaxLod(scan []ScanRow) float64 {
	max := 0.0
	for _, row := range scan {
		if row.Lod > max {
			max = row.Lod
		}
	}
	return max
}
