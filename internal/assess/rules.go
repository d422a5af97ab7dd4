package assess

import "math"

// Ruleset bundles the scales for every metric the engine classifies.
// DefaultRules carries the stock agronomic thresholds; a tuned ruleset
// can replace any subset of them (see LoadRulesFile).
type Ruleset struct {
	PHScale            Scale
	OrganicMatterScale Scale
	PhosphorusScale    Scale
	PotassiumScale     Scale
	CECScale           Scale
	WorkedHoursScale   Scale
}

// Validate checks every scale in the ruleset.
func (r *Ruleset) Validate() error {
	for _, s := range []Scale{r.PHScale, r.OrganicMatterScale, r.PhosphorusScale, r.PotassiumScale, r.CECScale, r.WorkedHoursScale} {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// nutrientScale picks the bounded scale for a nutrient kind.
func (r *Ruleset) nutrientScale(kind NutrientKind) (Scale, bool) {
	switch kind {
	case NutrientPhosphorus:
		return r.PhosphorusScale, true
	case NutrientPotassium:
		return r.PotassiumScale, true
	case NutrientCEC:
		return r.CECScale, true
	}
	return Scale{}, false
}

// DefaultRules is the built-in threshold set. Boundary semantics are
// deliberate and load-bearing: below the optimal pH band intervals are
// closed on the left, above it closed on the right, so pH 7.0 is
// optimal and every value belongs to exactly one band.
var DefaultRules = Ruleset{
	PHScale: Scale{
		Name: "ph",
		Steps: []Step{
			{Upper: 5.5, Band: BandVeryAcidic, Severity: SeverityError, Note: "Very acidic - may limit nutrient availability"},
			{Upper: 6.0, Band: BandSlightlyAcidic, Severity: SeverityWarning, Note: "Slightly acidic - good for blueberries, potatoes"},
			{Upper: 7.0, Inclusive: true, Band: BandOptimal, Severity: SeveritySuccess, Note: "Optimal range for most crops"},
			{Upper: 7.5, Inclusive: true, Band: BandSlightlyAlkaline, Severity: SeverityWarning, Note: "Slightly alkaline - good for brassicas"},
			{Upper: 8.0, Inclusive: true, Band: BandSlightlyAlkaline, Severity: SeverityWarning, Note: "Alkaline - may reduce iron availability"},
			{Upper: math.Inf(+1), Band: BandVeryAlkaline, Severity: SeverityError, Note: "Very alkaline - significant nutrient limitations"},
		},
	},
	OrganicMatterScale: Scale{
		Name: "organic_matter",
		Steps: []Step{
			{Upper: 2.0, Band: BandLow, Severity: SeverityError, Note: "Low - needs organic matter additions"},
			{Upper: 3.0, Band: BandModerate, Severity: SeverityWarning, Note: "Moderate - continue building with compost"},
			{Upper: 5.0, Inclusive: true, Band: BandGood, Severity: SeveritySuccess, Note: "Good - maintain with organic practices"},
			{Upper: math.Inf(+1), Band: BandVeryHigh, Severity: SeverityInfo, Note: "Very high - excellent soil biology"},
		},
	},
	PhosphorusScale: Scale{
		Name:    "phosphorus",
		Bounded: true,
		Steps: []Step{
			{Upper: 15, Band: BandLow, Severity: SeverityError, Note: "Low level"},
			{Upper: 30, Band: BandMedium, Severity: SeverityWarning, Note: "Medium level"},
			{Upper: 200, Inclusive: true, Band: BandHigh, Severity: SeveritySuccess, Note: "High level"},
		},
	},
	PotassiumScale: Scale{
		Name:    "potassium",
		Bounded: true,
		Steps: []Step{
			{Upper: 100, Band: BandLow, Severity: SeverityError, Note: "Low level"},
			{Upper: 200, Band: BandMedium, Severity: SeverityWarning, Note: "Medium level"},
			{Upper: 500, Inclusive: true, Band: BandHigh, Severity: SeveritySuccess, Note: "High level"},
		},
	},
	CECScale: Scale{
		Name:    "cec",
		Bounded: true,
		Steps: []Step{
			{Upper: 10, Band: BandLow, Severity: SeverityError, Note: "Low level"},
			{Upper: 20, Band: BandMedium, Severity: SeverityWarning, Note: "Medium level"},
			{Upper: 40, Inclusive: true, Band: BandHigh, Severity: SeveritySuccess, Note: "High level"},
		},
	},
	WorkedHoursScale: Scale{
		Name: "worked_hours",
		Steps: []Step{
			{Upper: 8, Band: BandRegular, Severity: SeveritySuccess, Color: "green"},
			{Upper: 9, Band: BandFirstOvertime, Severity: SeverityWarning, Color: "yellow"},
			{Upper: 12, Band: BandSecondOvertime, Severity: SeverityWarning, Color: "orange"},
			{Upper: math.Inf(+1), Band: BandExcessive, Severity: SeverityError, Color: "red"},
		},
	},
}
