package result

import (
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// BuildSpectralSeries pairs each band value with its zero-based position.
// No resampling or smoothing is applied. A nil or empty input gives an
// empty, non-nil series.
func BuildSpectralSeries(values []float64) []SpectralPoint {
	series := make([]SpectralPoint, len(values))
	for i, v := range values {
		series[i] = SpectralPoint{Index: i, Value: v}
	}
	return series
}

// SeriesValues is the inverse of BuildSpectralSeries.
func SeriesValues(series []SpectralPoint) []float64 {
	values := make([]float64, len(series))
	for i, p := range series {
		values[i] = p.Value
	}
	return values
}

// SpectralSummary describes the series for chart captions and axis bounds.
type SpectralSummary struct {
	Points  int
	Min     float64
	Max     float64
	Mean    float64
	StdDev  float64
	PeakIdx int
}

// SummarizeSpectrum computes min/max/mean/stddev of the series. An empty
// series gives the zero summary.
func SummarizeSpectrum(series []SpectralPoint) SpectralSummary {
	if len(series) == 0 {
		return SpectralSummary{}
	}
	values := SeriesValues(series)

	summary := SpectralSummary{
		Points:  len(values),
		Min:     floats.Min(values),
		Max:     floats.Max(values),
		PeakIdx: floats.MaxIdx(values),
	}
	if mean, err := stats.Mean(values); err == nil {
		summary.Mean = mean
	}
	if sd, err := stats.StandardDeviation(values); err == nil {
		summary.StdDev = sd
	}
	return summary
}
