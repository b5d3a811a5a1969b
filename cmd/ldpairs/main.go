// Command ldpairs computes pairwise linkage disequilibrium for a requested
// SNP list, plus an optional regional decay scan around an index SNP.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.dedis.ch/onet/v3/log"

	"github.com/cropgen/qtlgwas/geno"
	"github.com/cropgen/qtlgwas/ld"
)

func main() {
	configPath := flag.String("config", "config/ld.toml", "global config file")
	localPath := flag.String("local", "", "optional local config overlay")
	indexSnp := flag.String("snp", "", "index SNP for a regional decay scan")
	flag.Parse()

	started := time.Now()
	cfg, err := geno.LoadConfig(*configPath, *localPath)
	if err != nil {
		log.Fatal(err)
	}

	ds := geno.LoadDataset(cfg.GenoFile, cfg.PhenoFile, cfg.MapFile, cfg.Delim())
	snps := readSnpList(cfg.SnpListFile)
	log.LLvl1("Loaded", ds.NumMarkers(), "SNPs; request covers", len(snps))

	// Resolve every requested SNP before producing any output, so an
	// unknown name leaves no partial files behind.
	if _, err := ld.ResolveSnps(ds, snps); err != nil {
		log.Fatal(err)
	}
	if *indexSnp != "" {
		if _, err := ld.ResolveSnps(ds, []string{*indexSnp}); err != nil {
			log.Fatal(err)
		}
	}

	r2, err := ld.RSquaredMatrix(ds, snps)
	if err != nil {
		log.Fatal(err)
	}
	pairs, err := ld.Pairwise(ds, snps)
	if err != nil {
		log.Fatal(err)
	}
	sum := ld.Summarize(pairs)
	log.LLvl1("r2 over", len(pairs), "pairs: mean", sum.Mean, "median", sum.Median)

	geno.SaveMatrixToFile(r2, "\t", filepath.Join(cfg.OutDir, "ld_matrix.tsv"))
	savePairs(pairs, filepath.Join(cfg.OutDir, "ld_pairs.tsv"))
	if err := ld.PlotHeatmap(snps, r2, filepath.Join(cfg.OutDir, "ld_heatmap.html")); err != nil {
		log.Fatal(err)
	}

	if *indexSnp != "" {
		region, err := ld.RegionScan(ds, *indexSnp, cfg.LdWindowBP)
		if err != nil {
			log.Fatal(err)
		}
		savePairs(region, filepath.Join(cfg.OutDir, *indexSnp+"_region.tsv"))
		if err := ld.PlotDecay(*indexSnp, region, filepath.Join(cfg.OutDir, *indexSnp+"_decay.html")); err != nil {
			log.Fatal(err)
		}
	}

	geno.WriteSessionReport(filepath.Join(cfg.OutDir, "session_report.txt"),
		"ldpairs", cfg, started)
}

func readSnpList(filename string) []string {
	f, err := os.Open(filename)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		name := strings.TrimSpace(sc.Text())
		if name != "" {
			out = append(out, name)
		}
	}
	if err := sc.Err(); err != nil {
		log.Fatal(err)
	}
	return out
}

func savePairs(pairs []ld.Pair, filename string) {
	header := []string{"snp_a", "snp_b", "r2", "dist"}
	rows := make([][]string, len(pairs))
	for i, p := range pairs {
		rows[i] = []string{
			p.SnpA, p.SnpB,
			fmt.Sprintf("%.4f", p.R2),
			fmt.Sprintf("%.1f", p.Dist),
		}
	}
	geno.SaveTSV(filename, header, rows)
}
