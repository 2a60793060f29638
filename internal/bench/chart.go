package bench

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	chartHeight = "500px"
	lineWidth   = 2
)

// BuildChart plots nanoseconds per node against tree size, one line per operation.
func BuildChart(report Report) *charts.Line {
	sizes := report.Sizes()
	labels := make([]string, len(sizes))

	for idx, size := range sizes {
		labels[idx] = strconv.Itoa(size)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: chartHeight, PageTitle: "rbtree bench"}),
		charts.WithTitleOpts(opts.Title{Title: "Red-black tree cost per node", Subtitle: "fastest round, ns/node"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "nodes", Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "ns/node"}),
	)
	line.SetXAxis(labels)

	for _, op := range Ops() {
		data := make([]opts.LineData, len(sizes))

		for idx, size := range sizes {
			m, _ := report.Lookup(size, op)
			data[idx] = opts.LineData{Value: m.PerOp().Nanoseconds()}
		}

		line.AddSeries(op, data,
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
			charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
		)
	}

	return line
}

// WriteChart renders the chart as a standalone HTML page.
func WriteChart(w io.Writer, report Report) error {
	err := BuildChart(report).Render(w)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}
