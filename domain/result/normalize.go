package result

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/text/unicode/norm"
)

// Chain is an ordered list of payload keys for one concept, newest first.
type Chain struct {
	Field string
	Keys  []string
}

// Chains lists every field the normalizer resolves. Keys after the first are
// legacy spellings still emitted by older service versions.
var (
	ChainCultivarName    = Chain{"cultivar_name", []string{"cultivar_pred", "cultivar_prediction"}}
	ChainConfidence      = Chain{"confidence", []string{"confidence"}}
	ChainProbabilities   = Chain{"cultivar_probabilities", []string{"cultivar_probs", "probabilities"}}
	ChainSpectral        = Chain{"spectral_series", []string{"spectral_data", "mean_spectrum"}}
	ChainGrainWeight     = Chain{"grain_weight", []string{"grain_weight"}}
	ChainGsw             = Chain{"gsw", []string{"gsw"}}
	ChainPhips2          = Chain{"phips2", []string{"phips2"}}
	ChainFertilizerScore = Chain{"fertilizer_score", []string{"fertilizer_score"}}
	ChainProduction      = Chain{"total_production_quintals", []string{"total_production_quintals"}}
	ChainUrea            = Chain{"urea_required_kg", []string{"urea_required_kg"}}
	ChainCost            = Chain{"fertilizer_cost_inr", []string{"fertilizer_cost_inr"}}
	ChainFieldArea       = Chain{"field_area_acres", []string{"field_area_acres", "field_area"}}
	ChainFertilizerRate  = Chain{"fertilizer_rate_inr", []string{"fertilizer_rate_inr", "fertilizer_rate"}}

	Chains = []Chain{
		ChainCultivarName, ChainConfidence, ChainProbabilities, ChainSpectral,
		ChainGrainWeight, ChainGsw, ChainPhips2, ChainFertilizerScore,
		ChainProduction, ChainUrea, ChainCost, ChainFieldArea, ChainFertilizerRate,
	}
)

// shapeTracker counts resolutions from the first key versus a fallback key of
// chains that have more than one spelling.
type shapeTracker struct {
	current, legacy int
}

func (s *shapeTracker) note(c Chain, idx int) {
	if len(c.Keys) < 2 || idx < 0 {
		return
	}
	if idx == 0 {
		s.current++
	} else {
		s.legacy++
	}
}

func (s *shapeTracker) shape() SchemaShape {
	switch {
	case s.current > 0 && s.legacy > 0:
		return SchemaMixed
	case s.legacy > 0:
		return SchemaLegacy
	case s.current > 0:
		return SchemaCurrent
	default:
		return SchemaEmpty
	}
}

// Normalize reconciles a raw payload into a CanonicalResult. It is total:
// malformed or partial input yields a record with defaults, never an error.
func Normalize(raw RawResult) CanonicalResult {
	out := CanonicalResult{SpectralSeries: []SpectralPoint{}, Schema: SchemaEmpty}
	if !gjson.ValidBytes(raw) {
		return out
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return out
	}

	var shape shapeTracker

	name, idx := resolve(doc, ChainCultivarName, func(v gjson.Result) (string, bool) {
		if v.Type != gjson.String {
			return "", false
		}
		s := cleanName(v.Str)
		return s, s != ""
	})
	out.CultivarName = name
	shape.note(ChainCultivarName, idx)

	if conf, idx := resolveNumber(doc, ChainConfidence); idx >= 0 {
		out.Confidence = ptr(math.Max(0, math.Min(1, conf)))
	}

	probs, idx := resolve(doc, ChainProbabilities, probabilityVector)
	out.CultivarProbabilities = probs
	shape.note(ChainProbabilities, idx)

	bands, idx := resolve(doc, ChainSpectral, bandValues)
	out.SpectralSeries = BuildSpectralSeries(bands)
	shape.note(ChainSpectral, idx)

	out.Traits = Traits{
		GrainWeight:         resolveTrait(doc, ChainGrainWeight),
		StomatalConductance: resolveTrait(doc, ChainGsw),
		PhotosyntheticRatio: resolveTrait(doc, ChainPhips2),
		FertilizerScore:     resolveTrait(doc, ChainFertilizerScore),
	}

	out.Economics.TotalProductionQuintals = optionalNumber(doc, ChainProduction, &shape)
	out.Economics.UreaRequiredKg = optionalNumber(doc, ChainUrea, &shape)
	out.Economics.FertilizerCostINR = optionalNumber(doc, ChainCost, &shape)
	out.Economics.FieldAreaAcres = optionalNumber(doc, ChainFieldArea, &shape)
	out.Economics.FertilizerRateINR = optionalNumber(doc, ChainFertilizerRate, &shape)

	out.Schema = shape.shape()
	return out
}

// NormalizeHistory normalizes a history entry and attaches its identity.
// When the payload carries no owner, fallbackOwner is used.
func NormalizeHistory(raw RawResult, fallbackOwner int64) HistoryRecord {
	rec := HistoryRecord{Result: Normalize(raw), OwnerID: fallbackOwner}
	if !gjson.ValidBytes(raw) {
		return rec
	}
	doc := gjson.ParseBytes(raw)
	rec.ID = doc.Get("id").Int()
	rec.ImagePath = doc.Get("image_path").String()
	if owner := doc.Get("user_id"); owner.Exists() && owner.Type != gjson.Null {
		rec.OwnerID = owner.Int()
	}
	rec.CreatedAt = parseTimestamp(doc.Get("created_at").String())
	return rec
}

// resolve walks the chain and returns the first usable value and the index of
// the key that produced it, or -1 when nothing matched.
func resolve[T any](doc gjson.Result, c Chain, decode func(gjson.Result) (T, bool)) (T, int) {
	var zero T
	for i, key := range c.Keys {
		v := doc.Get(key)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if out, ok := decode(v); ok {
			return out, i
		}
	}
	return zero, -1
}

func resolveNumber(doc gjson.Result, c Chain) (float64, int) {
	return resolve(doc, c, number)
}

func optionalNumber(doc gjson.Result, c Chain, shape *shapeTracker) *float64 {
	v, idx := resolveNumber(doc, c)
	shape.note(c, idx)
	if idx < 0 {
		return nil
	}
	return ptr(v)
}

func resolveTrait(doc gjson.Result, c Chain) TraitValue {
	t, _ := resolve(doc, c, func(v gjson.Result) (TraitValue, bool) {
		switch v.Type {
		case gjson.Number:
			if !finite(v.Num) {
				return TraitValue{}, false
			}
			return NumberTrait(v.Num), true
		case gjson.String:
			return TextTrait(v.Str), true
		case gjson.True, gjson.False:
			return TextTrait(v.Raw), true
		default:
			return TraitValue{}, false
		}
	})
	return t
}

// number accepts JSON numbers and numeric strings.
func number(v gjson.Result) (float64, bool) {
	switch v.Type {
	case gjson.Number:
		if !finite(v.Num) {
			return 0, false
		}
		return v.Num, true
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || !finite(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// probabilityVector aligns an array (or a label-keyed object) to the fixed
// label order. Missing or non-numeric entries are 0.
func probabilityVector(v gjson.Result) ([4]float64, bool) {
	var out [4]float64
	switch {
	case v.IsArray():
		items := v.Array()
		for i := range out {
			if i < len(items) {
				out[i], _ = number(items[i])
			}
		}
		return out, true
	case v.IsObject():
		for i, label := range CultivarLabels {
			out[i], _ = number(v.Get(label))
		}
		return out, true
	default:
		return out, false
	}
}

// bandValues keeps every position; entries that are not numbers become 0.
func bandValues(v gjson.Result) ([]float64, bool) {
	if !v.IsArray() {
		return nil, false
	}
	items := v.Array()
	values := make([]float64, len(items))
	for i, item := range items {
		values[i], _ = number(item)
	}
	return values, true
}

func cleanName(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02",
}

// parseTimestamp accepts zoned and naive ISO timestamps; naive ones are UTC.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
