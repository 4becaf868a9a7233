package ui

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"hyperleaf/domain/report"
	"hyperleaf/domain/result"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// chartHTML is a chart ready to drop into a page: its container and the
// script that draws it. echarts.min.js must already be on the page.
type chartHTML struct {
	Element template.HTML
	Script  template.HTML
}

const (
	chartText  = "#d1d5db"
	chartGrid  = "#374151"
	chartGreen = "#4ade80"
)

// classificationChart draws one horizontal bar per cultivar label in the
// fixed label order, colored by label position.
func classificationChart(section *report.ClassificationSection, assetHost string) chartHTML {
	snippet := classificationBar(section, assetHost).RenderSnippet()
	return chartHTML{Element: template.HTML(snippet.Element), Script: template.HTML(snippet.Script)}
}

// classificationBar puts the percentage on the x axis and the labels on a
// category y axis.
func classificationBar(section *report.ClassificationSection, assetHost string) *charts.Bar {
	labels := make([]string, len(section.Bars))
	data := make([]opts.BarData, len(section.Bars))
	for i, b := range section.Bars {
		labels[i] = b.Label
		data[i] = opts.BarData{
			Name:      b.Label,
			Value:     roundTo(b.Probability*100, 1),
			ItemStyle: &opts.ItemStyle{Color: b.Color},
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:      "100%",
			Height:     "320px",
			AssetsHost: assetHost,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "value",
			Min:       0,
			Max:       100,
			AxisLabel: &opts.AxisLabel{Color: chartText, Formatter: "{value}%"},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: chartGrid}},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:      "category",
			Data:      labels,
			AxisLabel: &opts.AxisLabel{Color: chartText},
		}),
		charts.WithGridOpts(opts.Grid{
			Left:   "90",
			Right:  "40",
			Top:    "10",
			Bottom: "30",
		}),
	)

	bar.AddSeries(section.Title, data, charts.WithBarChartOpts(opts.BarChart{BarCategoryGap: "35%"}))
	return bar
}

// spectralChart draws the series as a filled line over band position.
// Zero points render an empty chart.
func spectralChart(section *report.SpectralSection, assetHost string) chartHTML {
	snippet := spectralLine(section, assetHost).RenderSnippet()
	return chartHTML{Element: template.HTML(snippet.Element), Script: template.HTML(snippet.Script)}
}

func spectralLine(section *report.SpectralSection, assetHost string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:      "100%",
			Height:     "320px",
			AssetsHost: assetHost,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: chartText},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:      "value",
			AxisLabel: &opts.AxisLabel{Color: chartText},
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Color: chartGrid}},
		}),
		charts.WithGridOpts(opts.Grid{
			Left:   "60",
			Right:  "20",
			Top:    "10",
			Bottom: "30",
		}),
	)

	xs := make([]string, len(section.Points))
	data := make([]opts.LineData, len(section.Points))
	for i, p := range section.Points {
		xs[i] = strconv.Itoa(p.Index)
		data[i] = opts.LineData{Value: p.Value}
	}

	line.SetXAxis(xs).AddSeries(section.Title, data,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: chartGreen}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: 0.3}),
	)
	return line
}

const (
	svgWidth  = 720.0
	svgHeight = 200.0
)

// spectralPolyline draws the series as a static SVG for the print
// document, where nothing may depend on a script finishing.
func spectralPolyline(points []result.SpectralPoint) template.HTML {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" width="100%%" height="%.0f">`, svgWidth, svgHeight, svgHeight)
	fmt.Fprintf(&b, `<rect width="%.0f" height="%.0f" fill="#111827"/>`, svgWidth, svgHeight)

	if len(points) > 0 {
		lo, hi := points[0].Value, points[0].Value
		for _, p := range points {
			lo = min(lo, p.Value)
			hi = max(hi, p.Value)
		}
		span := hi - lo
		y := func(v float64) float64 {
			if span == 0 {
				return svgHeight / 2
			}
			return svgHeight - (v-lo)/span*(svgHeight-10) - 5
		}
		x := func(i int) float64 {
			if len(points) == 1 {
				return svgWidth / 2
			}
			return float64(i) * svgWidth / float64(len(points)-1)
		}

		if len(points) == 1 {
			fmt.Fprintf(&b, `<circle cx="%.1f" cy="%.1f" r="4" fill="%s"/>`, x(0), y(points[0].Value), chartGreen)
		} else {
			coords := make([]string, len(points))
			for i, p := range points {
				coords[i] = fmt.Sprintf("%.1f,%.1f", x(i), y(p.Value))
			}
			area := fmt.Sprintf("0,%.0f %s %.0f,%.0f", svgHeight, strings.Join(coords, " "), svgWidth, svgHeight)
			fmt.Fprintf(&b, `<polygon points="%s" fill="%s" fill-opacity="0.3"/>`, area, chartGreen)
			fmt.Fprintf(&b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`, strings.Join(coords, " "), chartGreen)
		}
	}

	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}

func roundTo(v float64, places int) float64 {
	f, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	return f
}
