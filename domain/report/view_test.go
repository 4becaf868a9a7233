package report

import (
	"testing"

	"hyperleaf/domain/result"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyTranslator map[string]string

func (k keyTranslator) T(key string) string {
	if v, ok := k[key]; ok {
		return v
	}
	return key
}

var testTr = keyTranslator{
	"recommendation_sentence": "Score ({score}) on {area} acres: apply **{urea} kg**, expect **{production} quintals**.",
	"spectral_caption":        "{bands} bands, peak at {peak}",
}

func kvium() result.CanonicalResult {
	return result.Normalize(result.RawResult(`{
		"cultivar_pred": "Kvium",
		"confidence": 0.823,
		"cultivar_probs": [0.05, 0.823, 0.1, 0.027],
		"spectral_data": [0.2, 0.5, 0.4],
		"grain_weight": 41.5,
		"fertilizer_score": 0.62,
		"total_production_quintals": 12.3456,
		"urea_required_kg": 83.6,
		"fertilizer_cost_inr": 2257.2,
		"field_area_acres": 2
	}`))
}

func TestBuildViewClassificationScenario(t *testing.T) {
	v := BuildView(kvium(), TabClassification, testTr)

	assert.Equal(t, "Kvium", v.Header.CultivarName)
	assert.Equal(t, "82.3%", v.Header.Confidence)
	require.NotNil(t, v.Classification)
	require.Len(t, v.Classification.Bars, 4)

	labels := []string{}
	tallest := 0
	for i, b := range v.Classification.Bars {
		labels = append(labels, b.Label)
		assert.Equal(t, result.CultivarPalette[i], b.Color)
		if b.Probability > v.Classification.Bars[tallest].Probability {
			tallest = i
		}
	}
	assert.Equal(t, []string{"Heerup", "Kvium", "Rembrandt", "Sheriff"}, labels)
	assert.Equal(t, 1, tallest, "Kvium is the second bar and the tallest")

	assert.Nil(t, v.Report)
	assert.Nil(t, v.Regression)
	assert.Nil(t, v.Spectral)
}

func TestBuildViewReportCards(t *testing.T) {
	v := BuildView(kvium(), TabReport, testTr)
	require.NotNil(t, v.Report)

	values := []string{}
	for _, c := range v.Report.Cards {
		values = append(values, c.Value)
	}
	assert.Equal(t, []string{"12.35", "84", "2257"}, values)
	assert.Equal(t, "₹", v.Report.Cards[2].Prefix)
	assert.Equal(t, "Score (0.6200) on 2 acres: apply **84 kg**, expect **12.35 quintals**.", v.Report.RecommendationMarkdown)
}

func TestBuildViewReportMissingEconomics(t *testing.T) {
	v := BuildView(result.Normalize(result.RawResult(`{"cultivar_pred":"Heerup"}`)), TabReport, testTr)
	require.NotNil(t, v.Report)
	assert.Equal(t, "N/A", v.Report.Cards[0].Value)
	assert.Equal(t, "0", v.Report.Cards[1].Value)
	assert.Equal(t, "0", v.Report.Cards[2].Value)
	assert.Equal(t, "Score (N/A) on N/A acres: apply **N/A kg**, expect **N/A quintals**.", v.Report.RecommendationMarkdown)
	assert.Equal(t, "N/A", v.Header.Confidence)
}

func TestRecommendationEscapesTextScore(t *testing.T) {
	tests := []struct {
		name  string
		score string
		want  string
	}{
		{"angle bracket", "<0.5", `\<0.5`},
		{"emphasis", "*x*", `\*x\*`},
		{"link", "[low](x)", `\[low\](x)`},
		{"plain", "moderate", "moderate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := kvium()
			res.Traits.FertilizerScore = result.TextTrait(tt.score)
			got := Recommendation(res, testTr)
			assert.Equal(t, "Score ("+tt.want+") on 2 acres: apply **84 kg**, expect **12.35 quintals**.", got)
		})
	}
}

func TestBuildViewRegression(t *testing.T) {
	v := BuildView(kvium(), TabRegression, testTr)
	require.NotNil(t, v.Regression)
	got := map[string]string{}
	for _, c := range v.Regression.Cells {
		got[c.Unit] = c.Value
	}
	assert.Equal(t, map[string]string{"mg": "41.5000", "g": "N/A", "ratio": "N/A", "index": "0.6200"}, got)
}

func TestBuildViewSpectralEmpty(t *testing.T) {
	res := result.Normalize(result.RawResult(`{"cultivar_pred":"Heerup","confidence":0.5}`))
	v := BuildView(res, TabSpectral, testTr)

	require.NotNil(t, v.Spectral)
	assert.True(t, v.Spectral.Empty)
	assert.Empty(t, v.Spectral.Points)
	assert.Equal(t, "spectral_empty", v.Spectral.Caption)
}

func TestBuildViewSpectralCaption(t *testing.T) {
	v := BuildView(kvium(), TabSpectral, testTr)
	require.NotNil(t, v.Spectral)
	assert.False(t, v.Spectral.Empty)
	assert.Equal(t, "3 bands, peak at 1", v.Spectral.Caption)
}

// Switching away and back must produce the same view; tabs never mutate the result.
func TestBuildViewIsPure(t *testing.T) {
	res := kvium()
	before := BuildView(res, TabSpectral, testTr)
	for _, tab := range Tabs {
		BuildView(res, tab, testTr)
	}
	after := BuildView(res, TabSpectral, testTr)

	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("view changed after visiting other tabs (-before +after):\n%s", diff)
	}
	assert.Equal(t, kvium(), res)
}

func TestBuildViewUnknownTabFallsBackToReport(t *testing.T) {
	v := BuildView(kvium(), Tab("nope"), testTr)
	assert.Equal(t, TabReport, v.Tab)
	assert.NotNil(t, v.Report)
	for _, l := range v.Tabs {
		assert.Equal(t, l.Tab == TabReport, l.Active)
	}
}

func TestBuildPrintViewHasAllSections(t *testing.T) {
	v := BuildPrintView(kvium(), testTr)
	assert.NotNil(t, v.Report)
	assert.NotNil(t, v.Classification)
	assert.NotNil(t, v.Regression)
	assert.NotNil(t, v.Spectral)
	assert.Empty(t, v.Tabs)
}
