// Command qtlscan maps QTL in an F2 cross: per-trait genome scan,
// permutation thresholds, candidate selection and joint effect fitting.
package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.dedis.ch/onet/v3/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/cropgen/qtlgwas/geno"
	"github.com/cropgen/qtlgwas/qtl"
)

func main() {
	configPath := flag.String("config", "config/qtlscan.toml", "global config file")
	localPath := flag.String("local", "", "optional local config overlay")
	traitArg := flag.String("traits", "", "comma-separated trait names (default: all)")
	lodThres := flag.Float64("lod", 0, "candidate LOD threshold (default: config)")
	flag.Parse()

	started := time.Now()
	cfg, err := geno.LoadConfig(*configPath, *localPath)
	if err != nil {
		log.Fatal(err)
	}

	threshold := cfg.LodThres
	if *lodThres > 0 {
		threshold = *lodThres
	}

	ds := geno.LoadDataset(cfg.GenoFile, cfg.PhenoFile, cfg.MapFile, cfg.Delim())
	log.LLvl1("Loaded", ds.NumSamples(), "samples,", ds.NumMarkers(), "markers,",
		len(ds.Traits), "traits")

	groups := qtl.FormLinkageGroups(ds, cfg.MaxRF, cfg.MinLinkLod)
	saveLinkageGroups(ds, groups, filepath.Join(cfg.OutDir, "linkage_groups.tsv"))

	// Complete the genotype matrix once; every trait scans the same draw.
	completed := qtl.SimulateMissing(ds, qtl.NewRNG(cfg.PermSeed))
	ds = withCompletedGeno(ds, completed)

	traits := ds.Traits
	if *traitArg != "" {
		traits = strings.Split(*traitArg, ",")
	}

	runner := qtl.NewRunner(ds, cfg)

	// Traits are independent and write disjoint files, so they can run in
	// parallel.
	var g errgroup.Group
	for _, trait := range traits {
		trait := trait
		g.Go(func() error {
			res, err := runner.Analyze(trait, threshold)
			if err != nil {
				return fmt.Errorf("trait %s: %w", trait, err)
			}

			base := filepath.Join(cfg.OutDir, trait)
			if err := qtl.PlotScan(res, base+"_scan.html"); err != nil {
				return err
			}
			geno.SaveFloatVectorToFile(base+"_perms.txt", res.Perms)
			if res.Kind == qtl.FullResult {
				saveCandidates(res, base+"_qtl.tsv")
			}
			return geno.SaveJSON(base+"_bundle.json", res)
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}

	geno.WriteSessionReport(filepath.Join(cfg.OutDir, "session_report.txt"),
		"qtlscan", cfg, started)
}

func withCompletedGeno(ds *geno.Dataset, rows [][]float64) *geno.Dataset {
	g := mat.NewDense(ds.NumSamples(), ds.NumMarkers(), nil)
	for i, row := range rows {
		g.SetRow(i, row)
	}
	return geno.NewDataset(g, ds.Samples, ds.Markers, ds.Pheno, ds.Traits)
}

func saveLinkageGroups(ds *geno.Dataset, groups [][]int, filename string) {
	header := []string{"group", "marker", "chrom", "pos_cm"}
	var rows [][]string
	for gi, group := range groups {
		for _, j := range group {
			m := ds.Markers[j]
			rows = append(rows, []string{
				fmt.Sprintf("%d", gi+1), m.Name, m.Chrom, fmt.Sprintf("%.2f", m.Pos),
			})
		}
	}
	geno.SaveTSV(filename, header, rows)
}

func saveCandidates(res *qtl.AnalysisResult, filename string) {
	header := []string{"marker", "chrom", "pos_cm", "lod", "additive", "dominance"}
	effects := make(map[string]qtl.LocusEffect)
	for _, e := range res.Model.Loci {
		effects[e.Marker] = e
	}

	var rows [][]string
	for _, c := range res.Candidates {
		add, dom := "NA", "NA"
		if e, ok := effects[c.Marker]; ok {
			add = fmt.Sprintf("%.4f", e.Additive)
			dom = fmt.Sprintf("%.4f", e.Dominance)
		}
		rows = append(rows, []string{
			c.Marker, c.Chrom,
			fmt.Sprintf("%.2f", c.Pos), fmt.Sprintf("%.3f", c.Lod),
			add, dom,
		})
	}
	geno.SaveTSV(filename, header, rows)
}
