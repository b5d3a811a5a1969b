package gwas

import (
	"fmt"
	"math"

	"go.dedis.ch/onet/v3/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cropgen/qtlgwas/geno"
)

// AssocRow is one SNP's mixed-model association result.
type AssocRow struct {
	Snp   string  `json:"snp"`
	Chrom string  `json:"chrom"`
	Pos   float64 `json:"pos"`
	Beta  float64 `json:"beta"`
	SE    float64 `json:"se"`
	Chi2  float64 `json:"chi2"`
	P     float64 `json:"p"`
}

// MixedModel holds the null-model fit reused across all SNPs: the kinship
// eigenbasis, the variance ratio delta estimated once on the null model, and
// the rotated phenotype and intercept. This is the P3D shortcut: delta is
// not re-estimated per SNP.
type MixedModel struct {
	u      *mat.Dense
	lambda []float64
	delta  float64
	yt     []float64
	onest  []float64
}

// Delta is the fitted residual-to-genetic variance ratio.
func (mm *MixedModel) Delta() float64 { return mm.delta }

// FitNull eigendecomposes K and estimates delta by maximizing the restricted
// likelihood of the intercept-only model over a log-spaced grid. The
// phenotype must be complete: one missing value would smear through the
// rotated basis and poison every SNP's statistic, so callers drop uncalled
// samples first.
func FitNull(y []float64, k *mat.SymDense) (*MixedModel, error) {
	n := len(y)
	if r, _ := k.Dims(); r != n {
		return nil, fmt.Errorf("kinship is %dx%d but phenotype has %d samples", r, r, n)
	}
	for i, v := range y {
		if math.IsNaN(v) {
			return nil, fmt.Errorf("phenotype missing for sample %d; drop uncalled samples before fitting", i)
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(k, true); !ok {
		return nil, fmt.Errorf("kinship eigendecomposition failed")
	}
	lambda := eig.Values(nil)
	var u mat.Dense
	eig.VectorsTo(&u)

	yt := rotate(&u, y)
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	onest := rotate(&u, ones)

	mm := &MixedModel{u: &u, lambda: lambda, yt: yt, onest: onest}

	best, bestLL := 1.0, math.Inf(-1)
	for e := -50; e <= 50; e++ {
		delta := math.Pow(10, float64(e)/10)
		ll := mm.nullLogLik(delta)
		if ll > bestLL {
			bestLL = ll
			best = delta
		}
	}
	mm.delta = best
	log.LLvl1("Null model: delta =", best, "restricted logLik =", bestLL)
	return mm, nil
}

// nullLogLik is the restricted log-likelihood of the intercept-only model;
// the log(swxx) term charges for the profiled fixed effect.
func (mm *MixedModel) nullLogLik(delta float64) float64 {
	nf := float64(len(mm.yt) - 1)

	var swxx, swxy float64
	for i := range mm.yt {
		w := 1 / (mm.lambda[i] + delta)
		swxx += w * mm.onest[i] * mm.onest[i]
		swxy += w * mm.onest[i] * mm.yt[i]
	}
	beta0 := swxy / swxx

	rss, logDet := 0.0, 0.0
	for i := range mm.yt {
		w := 1 / (mm.lambda[i] + delta)
		r := mm.yt[i] - mm.onest[i]*beta0
		rss += w * r * r
		logDet += math.Log(mm.lambda[i] + delta)
	}

	sigma2 := rss / nf
	return -0.5 * (nf*math.Log(2*math.Pi*sigma2) + logDet + math.Log(swxx) + nf)
}

// ScanAssociations tests every kept SNP against the trait under the fitted
// null model. Dosages are mean-imputed, rotated into the eigenbasis, and fit
// by weighted least squares with the P3D weights. The Wald chi-square
// p-value uses a 1-df chi-square survival function.
func (mm *MixedModel) ScanAssociations(ds *geno.Dataset, keep []bool, y []float64) []AssocRow {
	chi2Dist := distuv.ChiSquared{K: 1}
	w := make([]float64, len(mm.lambda))
	for i := range w {
		w[i] = 1 / (mm.lambda[i] + mm.delta)
	}

	var out []AssocRow
	for j := 0; j < ds.NumMarkers(); j++ {
		if keep != nil && !keep[j] {
			continue
		}
		marker := ds.Markers[j]

		x := imputedCentered(ds.Dosages(j))
		xt := rotate(mm.u, x)

		// Weighted least squares for [intercept, snp].
		var s00, s01, s11, sy0, sy1 float64
		for i := range xt {
			s00 += w[i] * mm.onest[i] * mm.onest[i]
			s01 += w[i] * mm.onest[i] * xt[i]
			s11 += w[i] * xt[i] * xt[i]
			sy0 += w[i] * mm.onest[i] * mm.yt[i]
			sy1 += w[i] * xt[i] * mm.yt[i]
		}
		det := s00*s11 - s01*s01
		if det <= 0 {
			out = append(out, AssocRow{Snp: marker.Name, Chrom: marker.Chrom, Pos: marker.Pos, P: 1})
			continue
		}
		beta0 := (s11*sy0 - s01*sy1) / det
		beta1 := (s00*sy1 - s01*sy0) / det

		rss := 0.0
		for i := range xt {
			r := mm.yt[i] - beta0*mm.onest[i] - beta1*xt[i]
			rss += w[i] * r * r
		}
		dof := float64(len(xt) - 2)
		sigma2 := rss / dof
		varBeta := sigma2 * s00 / det

		se := math.Sqrt(varBeta)
		chi2 := beta1 * beta1 / varBeta
		out = append(out, AssocRow{
			Snp:   marker.Name,
			Chrom: marker.Chrom,
			Pos:   marker.Pos,
			Beta:  beta1,
			SE:    se,
			Chi2:  chi2,
			P:     chi2Dist.Survival(chi2),
		})
	}
	return out
}

func rotate(u *mat.Dense, x []float64) []float64 {
	n := len(x)
	out := make([]float64, n)
	v := mat.NewVecDense(n, x)
	res := mat.NewVecDense(n, out)
	res.MulVec(u.T(), v)
	return out
}

func imputedCentered(g []float64) []float64 {
	sum, called := 0.0, 0.0
	for _, v := range g {
		if v != geno.Missing {
			sum += v
			called++
		}
	}
	mean := 0.0
	if called > 0 {
		mean = sum / called
	}

	out := make([]float64, len(g))
	for i, v := range g {
		if v == geno.Missing {
			v = mean
		}
		out[i] = v - mean
	}
	return out
}
