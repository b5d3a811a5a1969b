package qtl

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// PlotScan renders a two-panel genome scan for one trait: chromosomes are
// split into two groups, each drawn as a LOD profile with the 95% and 99%
// permutation thresholds overlaid as flat lines.
func PlotScan(res *AnalysisResult, filename string) error {
	chroms := scanChroms(res.Scan)
	half := (len(chroms) + 1) / 2

	p95 := PermThreshold(res.Perms, 0.95)
	p99 := PermThreshold(res.Perms, 0.99)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(
		scanPanel(res, chroms[:half], p95, p99),
		scanPanel(res, chroms[half:], p95, p99),
	)

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}

func scanPanel(res *AnalysisResult, chroms []string, p95, p99 float64) *charts.Line {
	keep := make(map[string]bool, len(chroms))
	for _, c := range chroms {
		keep[c] = true
	}

	var x []string
	var lod, t95, t99 []opts.LineData
	for _, row := range res.Scan {
		if !keep[row.Chrom] {
			continue
		}
		x = append(x, fmt.Sprintf("%s:%.1f", row.Chrom, row.Pos))
		lod = append(lod, opts.LineData{Value: row.Lod})
		t95 = append(t95, opts.LineData{Value: p95})
		t99 = append(t99, opts.LineData{Value: p99})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: res.Trait + " (" + chromRangeLabel(chroms) + ")"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "LOD"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Position (cM)"}),
	)
	line.SetXAxis(x).
		AddSeries("LOD", lod).
		AddSeries("perm p95", t95).
		AddSeries("perm p99", t99)
	return line
}

func scanChroms(scan []ScanRow) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range scan {
		if !seen[row.Chrom] {
			seen[row.Chrom] = true
			out = append(out, row.Chrom)
		}
	}
	return out
}

func chromRangeLabel(chroms []string) string {
	if len(chroms) == 0 {
		return ""
	}
	if len(chroms) == 1 {
		return "chr " + chroms[0]
	}
	return "chr " + chroms[0] + "-" + chroms[len(chroms)-1]
}
