package ui

import (
	"strings"
	"testing"

	"hyperleaf/domain/report"
	"hyperleaf/domain/result"
	"hyperleaf/internal/i18n"

	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewFor(t *testing.T, res result.CanonicalResult, tab report.Tab) report.View {
	t.Helper()
	return report.BuildView(res, tab, i18n.MustLoad().Localizer("en"))
}

func TestClassificationChartIsHorizontal(t *testing.T) {
	res := result.CanonicalResult{CultivarProbabilities: [4]float64{0.1, 0.7, 0.1, 0.1}}
	section := viewFor(t, res, report.TabClassification).Classification
	require.NotNil(t, section)

	bar := classificationBar(section, "")
	html := classificationChart(section, "")

	require.Len(t, bar.XAxisList, 1)
	require.Len(t, bar.YAxisList, 1)
	assert.Equal(t, "value", bar.XAxisList[0].Type)
	assert.EqualValues(t, 0, bar.XAxisList[0].Min)
	assert.EqualValues(t, 100, bar.XAxisList[0].Max)
	assert.EqualValues(t, "{value}%", bar.XAxisList[0].AxisLabel.Formatter)
	assert.Equal(t, "category", bar.YAxisList[0].Type)
	assert.Equal(t, result.CultivarLabels[:], bar.YAxisList[0].Data)

	require.Len(t, bar.MultiSeries, 1)
	data, ok := bar.MultiSeries[0].Data.([]opts.BarData)
	require.True(t, ok)
	require.Len(t, data, len(result.CultivarLabels))
	for i, d := range data {
		assert.Equal(t, result.CultivarLabels[i], d.Name)
		assert.Equal(t, result.CultivarPalette[i], d.ItemStyle.Color)
	}
	assert.Equal(t, 70.0, data[1].Value)

	script := string(html.Script)
	assert.Contains(t, script, `"type":"value"`)
	assert.Contains(t, script, `"type":"category"`)
	for _, label := range result.CultivarLabels {
		assert.Contains(t, script, label)
	}
	assert.Contains(t, string(html.Element), "<div")
}

func TestSpectralChartPoints(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{"no points", nil},
		{"one point", []float64{0.4}},
		{"many points", []float64{0.1, 0.5, 0.3, 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := result.CanonicalResult{SpectralSeries: result.BuildSpectralSeries(tt.values)}
			section := viewFor(t, res, report.TabSpectral).Spectral
			require.NotNil(t, section)
			assert.Equal(t, len(tt.values) == 0, section.Empty)

			line := spectralLine(section, "")
			require.Len(t, line.MultiSeries, 1)
			data, ok := line.MultiSeries[0].Data.([]opts.LineData)
			require.True(t, ok)
			require.Len(t, data, len(tt.values))
			for i, v := range tt.values {
				assert.Equal(t, v, data[i].Value)
			}
			require.NotNil(t, line.MultiSeries[0].AreaStyle)
			assert.InDelta(t, 0.3, float64(line.MultiSeries[0].AreaStyle.Opacity), 1e-6)

			html := spectralChart(section, "")
			assert.Contains(t, string(html.Element), "<div")
			assert.NotEmpty(t, html.Script)

			svg := string(spectralPolyline(section.Points))
			assert.True(t, strings.HasPrefix(svg, "<svg"))
			assert.True(t, strings.HasSuffix(svg, "</svg>"))
			switch len(tt.values) {
			case 0:
				assert.NotContains(t, svg, "<polyline")
				assert.NotContains(t, svg, "<circle")
			case 1:
				assert.Contains(t, svg, "<circle")
			default:
				assert.Equal(t, len(tt.values)-1, strings.Count(strings.SplitN(strings.SplitN(svg, `<polyline points="`, 2)[1], `"`, 2)[0], " "))
			}
		})
	}
}
