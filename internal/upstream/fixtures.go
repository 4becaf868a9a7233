package upstream

import (
	"math"

	"hyperleaf/domain/core"
)

// Fixture is a canned prediction. Figures are fixed values, never computed
// from the request, so the service stays a pure stand-in for the model.
type Fixture struct {
	Legacy          bool
	Cultivar        string
	Confidence      float64
	Probabilities   []float64
	GrainWeight     float64
	GSW             float64
	PhiPS2          float64
	FertilizerScore float64
	ProductionQ     float64
	UreaKg          float64
	CostINR         float64
	Bands           int
}

// Fixtures alternate between the current and the legacy key sets
var Fixtures = []Fixture{
	{
		Cultivar: "Kvium", Confidence: 0.823,
		Probabilities: []float64{0.051, 0.823, 0.094, 0.032},
		GrainWeight:   41.2731, GSW: 0.3127, PhiPS2: 0.6814, FertilizerScore: 0.62,
		ProductionQ: 12.38, UreaKg: 104, CostINR: 2808, Bands: 204,
	},
	{
		Legacy:   true,
		Cultivar: "Sheriff", Confidence: 0.912,
		Probabilities: []float64{0.022, 0.031, 0.035, 0.912},
		GrainWeight:   38.905, GSW: 0.2876, PhiPS2: 0.7012, FertilizerScore: 0.41,
		ProductionQ: 9.34, UreaKg: 130, CostINR: 3510, Bands: 204,
	},
	{
		Cultivar: "Heerup", Confidence: 0.676,
		Probabilities: []float64{0.676, 0.128, 0.117, 0.079},
		GrainWeight:   44.018, GSW: 0.3391, PhiPS2: 0.6652, FertilizerScore: 0.77,
		ProductionQ: 5.28, UreaKg: 25, CostINR: 675, Bands: 0,
	},
	{
		Legacy:   true,
		Cultivar: "Rembrandt", Confidence: 0.548,
		Probabilities: []float64{0.144, 0.196, 0.548, 0.112},
		GrainWeight:   40.556, GSW: 0.3018, PhiPS2: 0.6931, FertilizerScore: 0.55,
		ProductionQ: 19.47, UreaKg: 198, CostINR: 5346, Bands: 204,
	},
}

// PickFixture chooses a fixture by the uploaded bytes so the same image
// always yields the same answer.
func PickFixture(image []byte) Fixture {
	return Fixtures[core.Bucket(image, len(Fixtures))]
}

// Payload renders the fixture in its key set. Field inputs are echoed back
// as given.
func (f Fixture) Payload(fieldArea, fertilizerRate float64) map[string]interface{} {
	p := map[string]interface{}{
		"confidence":                f.Confidence,
		"grain_weight":              f.GrainWeight,
		"gsw":                       f.GSW,
		"phips2":                    f.PhiPS2,
		"fertilizer_score":          f.FertilizerScore,
		"total_production_quintals": f.ProductionQ,
		"urea_required_kg":          f.UreaKg,
		"fertilizer_cost_inr":       f.CostINR,
	}

	nameKey, probsKey, bandsKey, areaKey, rateKey := "cultivar_pred", "cultivar_probs", "spectral_data", "field_area_acres", "fertilizer_rate_inr"
	if f.Legacy {
		nameKey, probsKey, bandsKey, areaKey, rateKey = "cultivar_prediction", "probabilities", "mean_spectrum", "field_area", "fertilizer_rate"
	}
	p[nameKey] = f.Cultivar
	p[probsKey] = f.Probabilities
	p[areaKey] = fieldArea
	p[rateKey] = fertilizerRate
	if f.Bands > 0 {
		p[bandsKey] = f.spectrum()
	}
	return p
}

// spectrum is a smooth reflectance curve with a red-edge rise
func (f Fixture) spectrum() []float64 {
	out := make([]float64, f.Bands)
	for i := range out {
		x := float64(i) / float64(f.Bands-1)
		edge := 1 / (1 + math.Exp(-(x-0.55)*18))
		green := 0.06 * math.Exp(-math.Pow((x-0.25)/0.06, 2))
		v := 0.05 + green + 0.42*edge*f.PhiPS2
		out[i] = math.Round(v*1e4) / 1e4
	}
	return out
}
