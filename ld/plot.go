package ld

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// Summary condenses a pair list to its mean, median and 90th-percentile r².
type Summary struct {
	Mean   float64 `json:"mean_r2"`
	Median float64 `json:"median_r2"`
	P90    float64 `json:"p90_r2"`
}

func Summarize(pairs []Pair) Summary {
	vals := make([]float64, len(pairs))
	for i, p := range pairs {
		vals[i] = p.R2
	}
	mean, _ := stats.Mean(vals)
	median, _ := stats.Median(vals)
	p90, _ := stats.Percentile(vals, 90)
	return Summary{Mean: mean, Median: median, P90: p90}
}

// PlotHeatmap renders the pairwise r² matrix for the requested SNPs.
func PlotHeatmap(snps []string, r2 *mat.Dense, filename string) error {
	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: "Pairwise LD (r2)"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: snps}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: snps}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: true,
			Min:        0,
			Max:        1,
			InRange:    &opts.VisualMapInRange{Color: []string{"#f6efa6", "#bf444c"}},
		}),
	)

	var data []opts.HeatMapData
	n, _ := r2.Dims()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			data = append(data, opts.HeatMapData{Value: [3]interface{}{i, j, r2.At(i, j)}})
		}
	}
	hm.SetXAxis(snps).AddSeries("r2", data)

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return hm.Render(f)
}

// PlotDecay renders r² against pairwise distance for a regional scan.
func PlotDecay(indexSnp string, pairs []Pair, filename string) error {
	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: "LD decay around " + indexSnp}),
		charts.WithYAxisOpts(opts.YAxis{Name: "r2"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distance"}),
	)

	var x []string
	var data []opts.ScatterData
	for _, p := range pairs {
		x = append(x, fmt.Sprintf("%.0f", p.Dist))
		data = append(data, opts.ScatterData{Value: p.R2})
	}
	sc.SetXAxis(x).AddSeries("r2", data)

	page := components.NewPage()
	page.AddCharts(sc)

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}
