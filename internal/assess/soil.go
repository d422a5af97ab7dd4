package assess

import (
	"fmt"
	"math"

	"farmops/internal/model/entities"
)

// PH classifies a soil pH reading. Total over all reals: extreme inputs
// land in the extreme bands, NaN degrades to BandUnknown.
func (r *Ruleset) PH(ph float64) Assessment {
	return r.PHScale.classifyTotal(ph)
}

// OrganicMatter classifies a soil organic-matter percentage.
func (r *Ruleset) OrganicMatter(pct float64) Assessment {
	return r.OrganicMatterScale.classifyTotal(pct)
}

// Nutrient classifies a reading against the scale for kind. Values
// outside the scale's defined range return ErrOutOfRange; the caller
// decides the display fallback.
func (r *Ruleset) Nutrient(value float64, kind NutrientKind) (Assessment, error) {
	sc, ok := r.nutrientScale(kind)
	if !ok {
		return Assessment{}, fmt.Errorf("assess: unknown nutrient kind %q", kind)
	}
	return sc.Classify(value)
}

// PH classifies ph against DefaultRules.
func PH(ph float64) Assessment { return DefaultRules.PH(ph) }

// OrganicMatter classifies pct against DefaultRules.
func OrganicMatter(pct float64) Assessment { return DefaultRules.OrganicMatter(pct) }

// Nutrient classifies value against DefaultRules.
func Nutrient(value float64, kind NutrientKind) (Assessment, error) {
	return DefaultRules.Nutrient(value, kind)
}

// NutrientAdvice expands a nutrient band into the supplementation hint
// shown next to the level note.
func NutrientAdvice(b Band) string {
	switch b {
	case BandLow:
		return "may need supplementation"
	case BandMedium:
		return "adequate"
	case BandHigh:
		return "sufficient for most crops"
	}
	return ""
}

// PHQuickSeverity is the coarse pH badge for field list rows, kept
// alongside the five-band classifier for screens that only need a
// traffic light. Its buckets intentionally differ from PH: 8.0 exactly
// is already an error here.
func PHQuickSeverity(ph float64) Severity {
	switch {
	case math.IsNaN(ph):
		return SeverityError
	case ph < 5.5 || ph >= 8.0:
		return SeverityError
	case ph < 6.0 || ph > 7.5:
		return SeverityWarning
	}
	return SeveritySuccess
}

// SoilReport is the full assessment of one soil sample.
type SoilReport struct {
	PH            Assessment `json:"ph"`
	OrganicMatter Assessment `json:"organic_matter"`
	Phosphorus    Assessment `json:"phosphorus"`
	Potassium     Assessment `json:"potassium"`
	CEC           Assessment `json:"cec"`
	Overall       Severity   `json:"overall"`
}

// Soil assesses every metric of a sample and rolls the results up into
// an overall severity. Nutrient readings beyond their scale ceiling are
// reported as out-of-range errors rather than failing the whole report.
func (r *Ruleset) Soil(s entities.SoilSample) SoilReport {
	rep := SoilReport{
		PH:            r.PH(s.PH),
		OrganicMatter: r.OrganicMatter(s.OrganicMatterPct),
		Phosphorus:    r.nutrientOrOutOfRange(s.PhosphorusPpm, NutrientPhosphorus),
		Potassium:     r.nutrientOrOutOfRange(s.PotassiumPpm, NutrientPotassium),
		CEC:           r.nutrientOrOutOfRange(s.CEC, NutrientCEC),
	}
	rep.Overall = WorstSeverity(rep.PH.Severity, rep.OrganicMatter.Severity,
		rep.Phosphorus.Severity, rep.Potassium.Severity, rep.CEC.Severity)
	return rep
}

// Soil assesses a sample against DefaultRules.
func Soil(s entities.SoilSample) SoilReport { return DefaultRules.Soil(s) }

func (r *Ruleset) nutrientOrOutOfRange(value float64, kind NutrientKind) Assessment {
	a, err := r.Nutrient(value, kind)
	if err != nil {
		return Assessment{Band: BandUnknown, Severity: SeverityError, Note: "Out of range"}
	}
	return a
}
