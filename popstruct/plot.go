package popstruct

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// PlotCoordinates renders the first two PCoA axes, one series per cluster.
func PlotCoordinates(coords *Coordinates, clusters []int, filename string) error {
	n, dim := coords.Points.Dims()
	if dim < 2 {
		return fmt.Errorf("need at least 2 coordinates to plot, have %d", dim)
	}

	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{
			Title: "Population structure (PCoA)",
			Subtitle: fmt.Sprintf("axis shares: %.1f%% / %.1f%%",
				100*coords.VarShare[0], 100*coords.VarShare[1]),
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "PCo2"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "PCo1"}),
	)

	k := 0
	for _, c := range clusters {
		if c+1 > k {
			k = c + 1
		}
	}
	for c := 0; c < k; c++ {
		var data []opts.ScatterData
		for i := 0; i < n; i++ {
			if clusters[i] != c {
				continue
			}
			data = append(data, opts.ScatterData{
				Value: [2]float64{coords.Points.At(i, 0), coords.Points.At(i, 1)},
			})
		}
		sc.AddSeries(fmt.Sprintf("cluster %d", c+1), data)
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return sc.Render(f)
}
