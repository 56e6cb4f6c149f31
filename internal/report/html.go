package report

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteHTMLChart renders the smoothed series as an interactive go-echarts
// line chart. Weeks a crop has no data for are left as gaps.
func WriteHTMLChart(w io.Writer, dataset string, series []CropSeries, palette *Palette) error {
	weeks := unionWeeks(series)
	xs := make([]string, len(weeks))
	for i, wk := range weeks {
		xs[i] = strconv.Itoa(wk)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: plotTitle,
			ChartID:   "crop_accuracy",
			Width:     "1000px",
			Height:    "800px",
		}),
		charts.WithTitleOpts(opts.Title{Title: plotTitle, Subtitle: fmt.Sprintf("dataset=%s crops=%d", dataset, len(series))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10", Orient: "vertical"}),
		charts.WithXAxisOpts(opts.XAxis{Name: plotXLabel, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: plotYLabel, NameLocation: "middle", NameGap: 35, Min: 0, Max: 1}),
	)
	line.SetXAxis(xs)

	for _, s := range series {
		byWeek := make(map[int]float64, len(s.Weeks))
		for i, wk := range s.Weeks {
			byWeek[wk] = s.Smoothed[i]
		}
		data := make([]opts.LineData, len(weeks))
		for i, wk := range weeks {
			v, ok := byWeek[wk]
			if !ok {
				data[i] = opts.LineData{Value: "-"}
				continue
			}
			data[i] = opts.LineData{Value: math.Round(v*1e4) / 1e4}
		}
		hex := palette.Hex(s.Crop)
		line.AddSeries(s.Crop, data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hex}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: hex, Width: 2}),
		)
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func unionWeeks(series []CropSeries) []int {
	var weeks []int
	for _, s := range series {
		weeks = append(weeks, s.Weeks...)
	}
	slices.Sort(weeks)
	return slices.Compact(weeks)
}
