// Command popstruct characterizes population structure: IBS distances,
// principal coordinates, and k-means grouping of the embedded samples.
package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"go.dedis.ch/onet/v3/log"

	"github.com/cropgen/qtlgwas/geno"
	"github.com/cropgen/qtlgwas/popstruct"
	"github.com/cropgen/qtlgwas/qtl"
)

func main() {
	configPath := flag.String("config", "config/popstruct.toml", "global config file")
	localPath := flag.String("local", "", "optional local config overlay")
	k := flag.Int("k", 0, "number of clusters (default: config)")
	flag.Parse()

	started := time.Now()
	cfg, err := geno.LoadConfig(*configPath, *localPath)
	if err != nil {
		log.Fatal(err)
	}
	numClusters := cfg.NumClusters
	if *k > 0 {
		numClusters = *k
	}
	if numClusters < 1 {
		log.Fatal("num_clusters must be set in config or via -k")
	}

	ds := geno.LoadDataset(cfg.GenoFile, cfg.PhenoFile, cfg.MapFile, cfg.Delim())
	log.LLvl1("Loaded", ds.NumSamples(), "samples,", ds.NumMarkers(), "markers")

	dist := popstruct.IBSDistance(ds)
	coords, err := popstruct.PCoA(dist, cfg.NumCoords)
	if err != nil {
		log.Fatal(err)
	}
	log.LLvl1("PCoA axis shares:", coords.VarShare)

	clusters, err := popstruct.KMeans(coords.Points, numClusters, qtl.NewRNG(cfg.PermSeed))
	if err != nil {
		log.Fatal(err)
	}

	saveClusters(ds, coords, clusters, filepath.Join(cfg.OutDir, "pcoa_clusters.tsv"))
	if err := popstruct.PlotCoordinates(coords, clusters, filepath.Join(cfg.OutDir, "pcoa.html")); err != nil {
		log.Fatal(err)
	}
	bundle := struct {
		VarShare []float64 `json:"var_share"`
		Clusters []int     `json:"clusters"`
		Samples  []string  `json:"samples"`
	}{coords.VarShare, clusters, ds.Samples}
	if err := geno.SaveJSON(filepath.Join(cfg.OutDir, "popstruct_bundle.json"), bundle); err != nil {
		log.Fatal(err)
	}

	geno.WriteSessionReport(filepath.Join(cfg.OutDir, "session_report.txt"),
		"popstruct", cfg, started)
}

func saveClusters(ds *geno.Dataset, coords *popstruct.Coordinates, clusters []int, filename string) {
	_, dim := coords.Points.Dims()
	header := []string{"sample", "cluster"}
	for d := 0; d < dim; d++ {
		header = append(header, fmt.Sprintf("pco%d", d+1))
	}

	rows := make([][]string, len(clusters))
	for i := range clusters {
		row := []string{ds.Samples[i], fmt.Sprintf("%d", clusters[i]+1)}
		for d := 0; d < dim; d++ {
			row = append(row, fmt.Sprintf("%.6e", coords.Points.At(i, d)))
		}
		rows[i] = row
	}
	geno.SaveTSV(filename, header, rows)
}
