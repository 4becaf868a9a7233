package result

import (
	"math"
	"time"
)

// RawResult is a prediction payload exactly as received from the inference
// service. Its key set varies between service versions.
type RawResult []byte

// Cultivar labels in probability-vector order. The order is part of the wire
// contract and must never be sorted.
var CultivarLabels = [4]string{"Heerup", "Kvium", "Rembrandt", "Sheriff"}

// CultivarPalette colors bars by label position.
var CultivarPalette = [4]string{"#b09e5a", "#4ade80", "#60a5fa", "#f472b6"}

// SchemaShape records which key generation a payload was resolved from.
type SchemaShape string

const (
	SchemaEmpty   SchemaShape = "empty"
	SchemaCurrent SchemaShape = "current"
	SchemaLegacy  SchemaShape = "legacy"
	SchemaMixed   SchemaShape = "mixed"
)

// SpectralPoint is one band of the mean spectrum.
type SpectralPoint struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// TraitValue is a physiological trait as reported upstream: a number, an
// opaque string shown verbatim, or nothing.
type TraitValue struct {
	Number  *float64 `json:"number,omitempty"`
	Text    string   `json:"text,omitempty"`
	Present bool     `json:"present"`
}

// NumberTrait builds a numeric trait.
func NumberTrait(v float64) TraitValue {
	return TraitValue{Number: &v, Present: true}
}

// TextTrait builds a verbatim trait.
func TextTrait(s string) TraitValue {
	return TraitValue{Text: s, Present: true}
}

// Traits groups the four regression outputs.
type Traits struct {
	GrainWeight         TraitValue `json:"grain_weight"`
	StomatalConductance TraitValue `json:"gsw"`
	PhotosyntheticRatio TraitValue `json:"phips2"`
	FertilizerScore     TraitValue `json:"fertilizer_score"`
}

// Economics are agronomic figures derived upstream. Any of them may be missing.
type Economics struct {
	TotalProductionQuintals *float64 `json:"total_production_quintals,omitempty"`
	UreaRequiredKg          *float64 `json:"urea_required_kg,omitempty"`
	FertilizerCostINR       *float64 `json:"fertilizer_cost_inr,omitempty"`
	FieldAreaAcres          *float64 `json:"field_area_acres,omitempty"`
	FertilizerRateINR       *float64 `json:"fertilizer_rate_inr,omitempty"`
}

// CanonicalResult is the schema-stable record every view consumes.
type CanonicalResult struct {
	CultivarName          string          `json:"cultivar_name"`
	Confidence            *float64        `json:"confidence,omitempty"`
	CultivarProbabilities [4]float64      `json:"cultivar_probabilities"`
	SpectralSeries        []SpectralPoint `json:"spectral_series"`
	Traits                Traits          `json:"traits"`
	Economics             Economics       `json:"economics"`
	Schema                SchemaShape     `json:"-"`
}

// HasSpectrum reports whether any bands were supplied.
func (r CanonicalResult) HasSpectrum() bool {
	return len(r.SpectralSeries) > 0
}

// HistoryRecord is a past result with its identity. Records are read-only.
type HistoryRecord struct {
	ID        int64           `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	OwnerID   int64           `json:"owner_id"`
	ImagePath string          `json:"image_path,omitempty"`
	Result    CanonicalResult `json:"result"`
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func ptr(v float64) *float64 {
	return &v
}
