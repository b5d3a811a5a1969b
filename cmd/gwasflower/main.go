// Command gwasflower runs the flowering-time association pipeline: SNP QC,
// kinship estimation, mixed-model scan, and Manhattan/QQ reporting.
package main

import (
	"flag"
	"fmt"
	"math"
	"path/filepath"
	"runtime"
	"time"

	"github.com/raulk/go-watchdog"
	"go.dedis.ch/onet/v3/log"
	"gonum.org/v1/gonum/mat"

	"github.com/cropgen/qtlgwas/geno"
	"github.com/cropgen/qtlgwas/gwas"
)

func main() {
	configPath := flag.String("config", "config/gwas.toml", "global config file")
	localPath := flag.String("local", "", "optional local config overlay")
	trait := flag.String("trait", "", "trait to test (default: first phenotype column)")
	alpha := flag.Float64("alpha", 0.05, "genome-wide significance level")
	flag.Parse()

	started := time.Now()
	cfg, err := geno.LoadConfig(*configPath, *localPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.LocalNumThreads > 0 {
		runtime.GOMAXPROCS(cfg.LocalNumThreads)
	}
	if cfg.MemoryLimit > 0 {
		err, stopFn := watchdog.HeapDriven(cfg.MemoryLimit, 40, watchdog.NewAdaptivePolicy(0.5))
		if err != nil {
			log.Fatal(err)
		}
		defer stopFn()
	}

	markers := geno.LoadMarkerMap(cfg.MapFile, cfg.Delim())
	pheno, phenoSamples, traits := geno.LoadPhenotypes(cfg.PhenoFile, cfg.Delim())

	traitName := *trait
	if traitName == "" {
		traitName = traits[0]
	}
	tj := -1
	for j, t := range traits {
		if t == traitName {
			tj = j
		}
	}
	if tj < 0 {
		log.Fatal("trait", traitName, "not found in", cfg.PhenoFile)
	}

	// QC runs on the genotype stream; only passing SNPs and phenotyped
	// samples are ever materialized.
	fs := geno.StreamGenotypes(cfg.GenoFile, len(phenoSamples), len(markers), cfg.Delim())
	stats := gwas.ComputeSnpStatsStream(fs)
	keep := gwas.FilterSnps(stats, gwas.FilterParams{
		MafLowerBound: cfg.MafLB,
		GenoMissBound: cfg.SnpMissUB,
		HweUpperBound: cfg.HweUB,
	})
	fs.UpdateColFilt(keep)
	var keptMarkers []geno.Marker
	for j, m := range markers {
		if keep[j] {
			keptMarkers = append(keptMarkers, m)
		}
	}

	called := make([]bool, len(phenoSamples))
	dropped := 0
	for i := range called {
		called[i] = !math.IsNaN(pheno.At(i, tj))
		if !called[i] {
			dropped++
		}
	}
	if dropped > 0 {
		log.LLvl1("Dropping", dropped, "samples with no", traitName, "record")
	}
	fs.UpdateRowFilt(called)

	n := fs.NumRowsToKeep()
	samples := make([]string, 0, n)
	phenoKept := mat.NewDense(n, len(traits), nil)
	r := 0
	for i, ok := range called {
		if !ok {
			continue
		}
		samples = append(samples, phenoSamples[i])
		for j := range traits {
			phenoKept.Set(r, j, pheno.At(i, j))
		}
		r++
	}

	ds := geno.NewDataset(fs.ToMatDense(), samples, keptMarkers, phenoKept, traits)
	log.LLvl1("Loaded", ds.NumSamples(), "samples,", ds.NumMarkers(), "SNPs after QC")

	y, err := ds.Trait(traitName)
	if err != nil {
		log.Fatal(err)
	}

	log.LLvl1("Estimating kinship")
	k, err := gwas.EstimateKinship(ds, nil)
	if err != nil {
		log.Fatal(err)
	}

	log.LLvl1("Fitting null model for", traitName)
	mm, err := gwas.FitNull(y, k)
	if err != nil {
		log.Fatal(err)
	}

	log.LLvl1("Scanning associations")
	rows := mm.ScanAssociations(ds, nil, y)

	base := filepath.Join(cfg.OutDir, traitName)
	saveAssociations(rows, base+"_assoc.tsv")
	if err := gwas.PlotAssociations(traitName, rows, *alpha, base+"_assoc.html"); err != nil {
		log.Fatal(err)
	}
	bundle := struct {
		Trait string          `json:"trait"`
		Delta float64         `json:"delta"`
		Rows  []gwas.AssocRow `json:"associations"`
	}{traitName, mm.Delta(), rows}
	if err := geno.SaveJSON(base+"_bundle.json", bundle); err != nil {
		log.Fatal(err)
	}

	geno.WriteSessionReport(filepath.Join(cfg.OutDir, "session_report.txt"),
		"gwasflower", cfg, started)
}

func saveAssociations(rows []gwas.AssocRow, filename string) {
	header := []string{"snp", "chrom", "pos", "beta", "se", "chi2", "p"}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			r.Snp, r.Chrom,
			fmt.Sprintf("%.0f", r.Pos),
			fmt.Sprintf("%.6e", r.Beta),
			fmt.Sprintf("%.6e", r.SE),
			fmt.Sprintf("%.4f", r.Chi2),
			fmt.Sprintf("%.6e", r.P),
		}
	}
	geno.SaveTSV(filename, header, out)
}
