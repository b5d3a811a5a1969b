package gwas

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// PlotAssociations writes a page with a Manhattan plot and a QQ plot for
// one association scan. The Manhattan threshold line marks the Bonferroni
// cutoff at alpha over the number of tested SNPs.
func PlotAssociations(trait string, rows []AssocRow, alpha float64, filename string) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(manhattan(trait, rows, alpha), qq(trait, rows))

	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return page.Render(f)
}

func manhattan(trait string, rows []AssocRow, alpha float64) *charts.Scatter {
	cutoff := -math.Log10(alpha / float64(len(rows)))

	byChrom := make(map[string][]AssocRow)
	var chroms []string
	for _, r := range rows {
		if _, ok := byChrom[r.Chrom]; !ok {
			chroms = append(chroms, r.Chrom)
		}
		byChrom[r.Chrom] = append(byChrom[r.Chrom], r)
	}

	sc := charts.NewScatter()
	sc.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{
			Title:    trait + " associations",
			Subtitle: fmt.Sprintf("Bonferroni -log10(p) = %.2f", cutoff),
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "-log10(p)"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Position"}),
	)

	var x []string
	for _, chrom := range chroms {
		for _, r := range byChrom[chrom] {
			x = append(x, fmt.Sprintf("%s:%.0f", r.Chrom, r.Pos))
		}
	}
	sc.SetXAxis(x)

	offset := 0
	for _, chrom := range chroms {
		data := make([]opts.ScatterData, len(x))
		for i, r := range byChrom[chrom] {
			data[offset+i] = opts.ScatterData{Value: negLog10(r.P)}
		}
		sc.AddSeries("chr "+chrom, data)
		offset += len(byChrom[chrom])
	}
	return sc
}

func qq(trait string, rows []AssocRow) *charts.Line {
	obs := make([]float64, 0, len(rows))
	for _, r := range rows {
		obs = append(obs, negLog10(r.P))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(obs)))

	n := float64(len(obs))
	var x []string
	var observed, expected []opts.LineData
	for i, v := range obs {
		e := -math.Log10((float64(i) + 0.5) / n)
		x = append(x, fmt.Sprintf("%.3f", e))
		observed = append(observed, opts.LineData{Value: v})
		expected = append(expected, opts.LineData{Value: e})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithTitleOpts(opts.Title{Title: trait + " QQ"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "observed -log10(p)"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "expected -log10(p)"}),
	)
	line.SetXAxis(x).
		AddSeries("observed", observed).
		AddSeries("expected", expected)
	return line
}

func negLog10(p float64) float64 {
	if p <= 0 {
		return 300
	}
	return -math.Log10(p)
}
