package geno

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.dedis.ch/onet/v3/log"
)

// WriteSessionReport records the execution environment and configuration of
// one run next to its outputs, so results stay reproducible without any
// shared workspace state.
func WriteSessionReport(filename, tool string, cfg *Config, started time.Time) {
	f, err := os.Create(filename)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "tool: %s\n", tool)
	fmt.Fprintf(w, "started: %s\n", started.Format(time.RFC3339))
	fmt.Fprintf(w, "finished: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "go: %s\n", runtime.Version())
	fmt.Fprintf(w, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "cpus: %d\n", runtime.NumCPU())
	fmt.Fprintf(w, "\n[config]\n")
	fmt.Fprintf(w, "geno_file: %s\n", cfg.GenoFile)
	fmt.Fprintf(w, "pheno_file: %s\n", cfg.PhenoFile)
	fmt.Fprintf(w, "map_file: %s\n", cfg.MapFile)
	fmt.Fprintf(w, "output_dir: %s\n", cfg.OutDir)
	fmt.Fprintf(w, "num_permutations: %d\n", cfg.NumPerms)
	fmt.Fprintf(w, "perm_seed: %d\n", cfg.PermSeed)
	fmt.Fprintf(w, "lod_threshold: %g\n", cfg.LodThres)
	fmt.Fprintf(w, "maf_lb: %g\n", cfg.MafLB)
	fmt.Fprintf(w, "gmiss: %g\n", cfg.SnpMissUB)
	fmt.Fprintf(w, "hwe_ub: %g\n", cfg.HweUB)
	w.Flush()

	log.LLvl1("Saved session report to", filename)
}
