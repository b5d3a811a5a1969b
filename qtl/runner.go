package qtl

import (
	"fmt"

	"go.dedis.ch/onet/v3/log"

	"github.com/cropgen/qtlgwas/geno"
)

// ResultKind tags the two terminal states of a trait analysis.
type ResultKind int

const (
	// FullResult carries scan, permutations, candidates and a fitted model.
	FullResult ResultKind = iota
	// PartialResult carries scan and permutations only; no marker cleared
	// the threshold.
	PartialResult
)

func (k ResultKind) String() string {
	if k == FullResult {
		return "full"
	}
	return "partial"
}

// AnalysisResult is the bundle produced for one trait.
type AnalysisResult struct {
	Trait      string       `json:"trait"`
	Kind       ResultKind   `json:"kind"`
	Scan       []ScanRow    `json:"scan"`
	Perms      []float64    `json:"permutation_max_lod"`
	Candidates []ScanRow    `json:"candidates,omitempty"`
	Model      *EffectModel `json:"model,omitempty"`
}

// Runner analyzes traits of one cross dataset. Invocations are independent:
// each builds its results fresh and shares no state with other calls.
type Runner struct {
	DS       *geno.Dataset
	NumPerms int
	Seed     uint64
	MinSepCM float64
}

func NewRunner(ds *geno.Dataset, cfg *geno.Config) *Runner {
	return &Runner{
		DS:       ds,
		NumPerms: cfg.NumPerms,
		Seed:     cfg.PermSeed,
		MinSepCM: cfg.MinSepCM,
	}
}

// Analyze runs the full per-trait pipeline: genome scan, permutation null,
// candidate selection at lodThreshold, and, when candidates exist, a joint
// additive/dominance fit at the collapsed candidate loci. When nothing
// clears the threshold it logs a warning and returns a PartialResult; that
// is not an error.
func (r *Runner) Analyze(trait string, lodThreshold float64) (*AnalysisResult, error) {
	if lodThreshold <= 0 {
		return nil, fmt.Errorf("lod threshold must be positive, got %g", lodThreshold)
	}
	y, err := r.DS.Trait(trait)
	if err != nil {
		return nil, err
	}

	log.LLvl1("Scanning trait", trait, "over", r.DS.NumMarkers(), "markers")
	scan := ScanTrait(r.DS, y)

	log.LLvl1("Running", r.NumPerms, "permutations for", trait)
	perms := PermutationScan(r.DS, y, r.NumPerms, NewRNG(r.Seed))

	res := &AnalysisResult{
		Trait: trait,
		Scan:  scan,
		Perms: perms,
	}

	cands := Candidates(scan, lodThreshold)
	if len(cands) == 0 {
		log.Warn("trait", trait, ": no marker exceeded LOD", lodThreshold,
			"(max", MaxLod(scan), "); returning scan and permutations only")
		res.Kind = PartialResult
		return res, nil
	}

	loci := CollapseCandidates(cands, r.MinSepCM)
	model, err := FitEffects(r.DS, y, loci)
	if err != nil {
		return nil, err
	}

	log.LLvl1("Trait", trait, ":", len(cands), "candidate markers,",
		len(loci), "loci in joint model, R2 =", model.RSquared)
	res.Kind = FullResult
	res.Candidates = cands
	res.Model = model
	return res, nil
}
