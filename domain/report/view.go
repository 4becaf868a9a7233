package report

import (
	"strconv"
	"strings"

	"hyperleaf/domain/result"
)

// Translator resolves catalog keys to localized text.
type Translator interface {
	T(key string) string
}

// View is everything a template needs to draw one report state. It is a
// pure function of the result, the tab and the translator.
type View struct {
	Tab            Tab
	Tabs           []TabLink
	Header         Header
	Report         *ReportSection
	Classification *ClassificationSection
	Regression     *RegressionSection
	Spectral       *SpectralSection
}

type TabLink struct {
	Tab    Tab
	Label  string
	Active bool
}

type Header struct {
	CultivarLabel   string
	CultivarName    string
	ConfidenceLabel string
	Confidence      string
}

type Card struct {
	Label     string
	Value     string
	Prefix    string
	Unit      string
	Highlight bool
}

type ReportSection struct {
	Title               string
	Cards               []Card
	RecommendationTitle string
	// RecommendationMarkdown is a single sentence; the renderer turns it into HTML.
	RecommendationMarkdown string
}

type Bar struct {
	Label       string
	Probability float64
	Percent     string
	Color       string
}

type ClassificationSection struct {
	Title string
	Bars  []Bar
}

type TraitCell struct {
	Label string
	Value string
	Unit  string
}

type RegressionSection struct {
	Title string
	Cells []TraitCell
}

type SpectralSection struct {
	Title   string
	Points  []result.SpectralPoint
	Summary result.SpectralSummary
	Empty   bool
	Caption string
}

// BuildView renders the header, the tab strip and the section for tab.
// Unknown tabs render the report tab.
func BuildView(res result.CanonicalResult, tab Tab, tr Translator) View {
	if !tab.Valid() {
		tab = TabReport
	}
	v := View{Tab: tab, Tabs: tabLinks(tab, tr), Header: buildHeader(res, tr)}

	switch tab {
	case TabReport:
		v.Report = buildReport(res, tr)
	case TabClassification:
		v.Classification = buildClassification(res, tr)
	case TabRegression:
		v.Regression = buildRegression(res, tr)
	case TabSpectral:
		v.Spectral = buildSpectral(res, tr)
	}
	return v
}

// BuildPrintView renders every section at once for the fixed-layout
// export document.
func BuildPrintView(res result.CanonicalResult, tr Translator) View {
	return View{
		Tab:            TabReport,
		Header:         buildHeader(res, tr),
		Report:         buildReport(res, tr),
		Classification: buildClassification(res, tr),
		Regression:     buildRegression(res, tr),
		Spectral:       buildSpectral(res, tr),
	}
}

func tabLinks(active Tab, tr Translator) []TabLink {
	links := make([]TabLink, len(Tabs))
	for i, t := range Tabs {
		links[i] = TabLink{Tab: t, Label: tr.T(t.LabelKey()), Active: t == active}
	}
	return links
}

func buildHeader(res result.CanonicalResult, tr Translator) Header {
	return Header{
		CultivarLabel:   tr.T("cultivar"),
		CultivarName:    res.DisplayName(),
		ConfidenceLabel: tr.T("confidence"),
		Confidence:      result.FormatPercent(res.Confidence),
	}
}

func buildReport(res result.CanonicalResult, tr Translator) *ReportSection {
	cards := result.FormatEconomics(res.Economics)
	return &ReportSection{
		Title: tr.T("farming_report_title"),
		Cards: []Card{
			{Label: tr.T("est_production"), Value: cards.Production, Unit: tr.T("unit_quintals")},
			{Label: tr.T("urea_needed"), Value: cards.Urea, Unit: tr.T("unit_kg")},
			{Label: tr.T("est_cost"), Value: cards.Cost, Prefix: "₹", Unit: tr.T("unit_inr"), Highlight: true},
		},
		RecommendationTitle:    tr.T("recommendation_title"),
		RecommendationMarkdown: Recommendation(res, tr),
	}
}

// Recommendation fills the localized sentence template. Missing figures
// show the placeholder. Values are escaped so upstream text renders verbatim.
func Recommendation(res result.CanonicalResult, tr Translator) string {
	r := strings.NewReplacer(
		"{score}", escapeMarkdown(result.FormatTrait(res.Traits.FertilizerScore)),
		"{area}", escapeMarkdown(formatShortest(res.Economics.FieldAreaAcres)),
		"{urea}", escapeMarkdown(result.FormatFixed(res.Economics.UreaRequiredKg, 0, result.Placeholder)),
		"{production}", escapeMarkdown(result.FormatFixed(res.Economics.TotalProductionQuintals, 2, result.Placeholder)),
	)
	return r.Replace(tr.T("recommendation_sentence"))
}

// markdownEscaper backslash-escapes the characters that open inline markup
// or raw HTML. Digits, dots and signs pass through untouched.
var markdownEscaper = func() *strings.Replacer {
	const specials = "\\`*_{}[]<>&~!#|^$"
	pairs := make([]string, 0, 2*len(specials))
	for _, c := range specials {
		pairs = append(pairs, string(c), "\\"+string(c))
	}
	return strings.NewReplacer(pairs...)
}()

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func formatShortest(v *float64) string {
	if v == nil {
		return result.Placeholder
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func buildClassification(res result.CanonicalResult, tr Translator) *ClassificationSection {
	bars := make([]Bar, len(result.CultivarLabels))
	for i, label := range result.CultivarLabels {
		p := res.CultivarProbabilities[i]
		bars[i] = Bar{
			Label:       label,
			Probability: p,
			Percent:     result.FormatPercent(&p),
			Color:       result.CultivarPalette[i%len(result.CultivarPalette)],
		}
	}
	return &ClassificationSection{Title: tr.T("prob_dist_title"), Bars: bars}
}

func buildRegression(res result.CanonicalResult, tr Translator) *RegressionSection {
	t := res.Traits
	return &RegressionSection{
		Title: tr.T("phys_ind_title"),
		Cells: []TraitCell{
			{Label: tr.T("grain_weight"), Value: result.FormatTrait(t.GrainWeight), Unit: "mg"},
			{Label: tr.T("gsw"), Value: result.FormatTrait(t.StomatalConductance), Unit: "g"},
			{Label: tr.T("phips2"), Value: result.FormatTrait(t.PhotosyntheticRatio), Unit: "ratio"},
			{Label: tr.T("fertilizer_score"), Value: result.FormatTrait(t.FertilizerScore), Unit: "index"},
		},
	}
}

func buildSpectral(res result.CanonicalResult, tr Translator) *SpectralSection {
	summary := result.SummarizeSpectrum(res.SpectralSeries)
	s := &SpectralSection{
		Title:   tr.T("spectral_title"),
		Points:  res.SpectralSeries,
		Summary: summary,
		Empty:   summary.Points == 0,
	}
	if s.Empty {
		s.Caption = tr.T("spectral_empty")
	} else {
		s.Caption = strings.NewReplacer(
			"{bands}", strconv.Itoa(summary.Points),
			"{peak}", strconv.Itoa(summary.PeakIdx),
			"{mean}", strconv.FormatFloat(summary.Mean, 'f', 4, 64),
		).Replace(tr.T("spectral_caption"))
	}
	return s
}
