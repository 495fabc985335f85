package confidence

import (
	"fmt"
	"math"
	"os"

	"github.com/tidwall/gjson"
)

// ProbabilityAssessment labels a binder probability
func ProbabilityAssessment(p float64) string {
	switch {
	case p > 0.75:
		return "High Confidence Binder"
	case p > 0.4:
		return "Moderate Confidence Binder"
	default:
		return "Low Confidence Binder"
	}
}

// AffinityAssessment labels a predicted affinity value (log IC50 scale; lower
// binds tighter)
func AffinityAssessment(v float64) string {
	switch {
	case v < -1:
		return "Strong Binder"
	case v < 1:
		return "Moderate Binder"
	default:
		return "Weak Binder / Decoy"
	}
}

// AffinityCard is one model's binding prediction from an affinity report
type AffinityCard struct {
	Title       string
	Probability float64 // binder probability, 0..1
	Value       float64 // log10(IC50) in µM
}

// ProbabilityLabel is ProbabilityAssessment of the card's probability
func (c AffinityCard) ProbabilityLabel() string { return ProbabilityAssessment(c.Probability) }

// AffinityLabel is AffinityAssessment of the card's value
func (c AffinityCard) AffinityLabel() string { return AffinityAssessment(c.Value) }

// IC50 returns the predicted IC50 in µM
func (c AffinityCard) IC50() float64 { return math.Pow(10, c.Value) }

// DeltaG returns the binding free energy in kcal/mol
func (c AffinityCard) DeltaG() float64 { return (6 - c.Value) * 1.364 }

// affinityFields maps card titles to report keys, ensemble first
var affinityFields = []struct {
	title, prob, value string
}{
	{"Ensemble Model Analysis", "affinity_probability_binary", "affinity_pred_value"},
	{"Model 1 Analysis", "affinity_probability_binary1", "affinity_pred_value1"},
	{"Model 2 Analysis", "affinity_probability_binary2", "affinity_pred_value2"},
}

// ParseAffinity reads the ensemble, model 1 and model 2 predictions from an
// affinity JSON report. Every key must be present and numeric.
func ParseAffinity(data []byte) ([]AffinityCard, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("affinity report is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("affinity report is not a JSON object")
	}

	cards := make([]AffinityCard, 0, len(affinityFields))
	for _, f := range affinityFields {
		prob := doc.Get(f.prob)
		if prob.Type != gjson.Number {
			return nil, fmt.Errorf("affinity report: %s missing or not a number", f.prob)
		}
		value := doc.Get(f.value)
		if value.Type != gjson.Number {
			return nil, fmt.Errorf("affinity report: %s missing or not a number", f.value)
		}
		cards = append(cards, AffinityCard{Title: f.title, Probability: prob.Num, Value: value.Num})
	}
	return cards, nil
}

// LoadAffinity reads an affinity_<job>.json report
func LoadAffinity(path string) ([]AffinityCard, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read affinity report: %w", err)
	}
	cards, err := ParseAffinity(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cards, nil
}
