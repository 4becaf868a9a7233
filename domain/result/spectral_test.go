package result

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSpectralSeries(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []SpectralPoint
	}{
		{"nil", nil, []SpectralPoint{}},
		{"empty", []float64{}, []SpectralPoint{}},
		{"single", []float64{0.5}, []SpectralPoint{{Index: 0, Value: 0.5}}},
		{"order preserved", []float64{3, 1, 2}, []SpectralPoint{{0, 3}, {1, 1}, {2, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSpectralSeries(tt.values)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildSpectralSeriesIdempotent(t *testing.T) {
	values := make([]float64, 204)
	for i := range values {
		values[i] = math.Sin(float64(i) / 10)
	}

	s := BuildSpectralSeries(values)
	again := BuildSpectralSeries(SeriesValues(s))

	assert.Equal(t, s, again)
	for i, p := range s {
		if p.Index != i {
			t.Fatalf("point %d has index %d", i, p.Index)
		}
	}
}

func TestSummarizeSpectrum(t *testing.T) {
	assert.Equal(t, SpectralSummary{}, SummarizeSpectrum(nil))

	s := SummarizeSpectrum(BuildSpectralSeries([]float64{2, 4, 4, 4, 5, 5, 7, 9}))
	assert.Equal(t, 8, s.Points)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)
	assert.Equal(t, 7, s.PeakIdx)
	assert.InDelta(t, 5.0, s.Mean, 1e-9)
	assert.InDelta(t, 2.0, s.StdDev, 1e-9)
}
