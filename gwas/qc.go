package gwas

import (
	"go.dedis.ch/onet/v3/log"

	"github.com/cropgen/qtlgwas/geno"
)

// FilterParams are the per-SNP quality-control bounds applied before
// association testing.
type FilterParams struct {
	MafLowerBound float64
	HweUpperBound float64 // upper bound on the HWE chi-square statistic
	GenoMissBound float64
}

// SnpStats summarizes one SNP's genotype counts.
type SnpStats struct {
	Maf      float64
	MissRate float64
	HweChi2  float64
}

// ComputeSnpStats tallies allele frequency, missingness and the
// Hardy-Weinberg chi-square statistic for every marker.
func ComputeSnpStats(ds *geno.Dataset) []SnpStats {
	out := make([]SnpStats, ds.NumMarkers())
	for j := range out {
		out[j] = snpStats(ds.Dosages(j))
	}
	return out
}

// ComputeSnpStatsStream tallies the same statistics over a genotype file
// stream, one sample row at a time, without materializing the matrix. The
// stream's kept columns must be the dosage columns.
func ComputeSnpStatsStream(fs *geno.FileStream) []SnpStats {
	m := fs.NumColsToKeep()
	cnt := make([][3]float64, m)
	miss := make([]float64, m)

	fs.Reset()
	total := 0.0
	for row := fs.NextRow(); row != nil; row = fs.NextRow() {
		for j, v := range row {
			if v == geno.Missing {
				miss[j]++
				continue
			}
			cnt[j][int(v)]++
		}
		total++
	}

	out := make([]SnpStats, m)
	for j := range out {
		out[j] = statsFromCounts(cnt[j], miss[j], total)
	}
	return out
}

func snpStats(g []float64) SnpStats {
	var cnt [3]float64
	miss := 0.0
	for _, v := range g {
		if v == geno.Missing {
			miss++
			continue
		}
		cnt[int(v)]++
	}
	return statsFromCounts(cnt, miss, float64(len(g)))
}

func statsFromCounts(cnt [3]float64, miss, total float64) SnpStats {
	called := cnt[0] + cnt[1] + cnt[2]
	if called == 0 {
		return SnpStats{MissRate: 1}
	}

	p := (2*cnt[2] + cnt[1]) / (2 * called)
	maf := p
	if maf > 0.5 {
		maf = 1 - maf
	}

	exp := [3]float64{
		called * (1 - p) * (1 - p),
		called * 2 * p * (1 - p),
		called * p * p,
	}
	chi2 := 0.0
	for k := 0; k < 3; k++ {
		if exp[k] > 0 {
			d := cnt[k] - exp[k]
			chi2 += d * d / exp[k]
		}
	}

	return SnpStats{
		Maf:      maf,
		MissRate: miss / total,
		HweChi2:  chi2,
	}
}

// FilterSnps returns the keep mask for markers passing all bounds.
func FilterSnps(stats []SnpStats, fp FilterParams) []bool {
	keep := make([]bool, len(stats))
	kept := 0
	for j, s := range stats {
		keep[j] = s.Maf >= fp.MafLowerBound &&
			s.MissRate <= fp.GenoMissBound &&
			(fp.HweUpperBound <= 0 || s.HweChi2 <= fp.HweUpperBound)
		if keep[j] {
			kept++
		}
	}
	log.LLvl1("QC kept", kept, "of", len(stats), "SNPs")
	return keep
}
