// Package assess classifies farm measurements into discrete bands.
//
// Soil chemistry readings, daily worked hours and lease terms go in; a
// band plus a display severity and an interpretive note come out. Every
// operation is a pure, stateless computation over its inputs, safe to
// call from any number of goroutines.
//
// Thresholds live in ordered range tables (Scale). The package-level
// functions evaluate against DefaultRules; callers that need tuned
// regional thresholds load their own Ruleset (see LoadRulesFile) and
// call the equivalent methods on it.
package assess

// Severity is the display urgency attached to a classification. The
// values double as event severity strings on the message bus.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
)

func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// WorstSeverity returns the most urgent of the given severities, or
// SeveritySuccess when none are given.
func WorstSeverity(sevs ...Severity) Severity {
	worst := SeveritySuccess
	for _, s := range sevs {
		if s.rank() > worst.rank() {
			worst = s
		}
	}
	return worst
}

// Band names the discrete category a continuous measurement falls into.
type Band string

// pH bands.
const (
	BandVeryAcidic       Band = "very_acidic"
	BandSlightlyAcidic   Band = "slightly_acidic"
	BandOptimal          Band = "optimal"
	BandSlightlyAlkaline Band = "slightly_alkaline"
	BandVeryAlkaline     Band = "very_alkaline"
)

// Organic matter bands.
const (
	BandLow      Band = "low"
	BandModerate Band = "moderate"
	BandGood     Band = "good"
	BandVeryHigh Band = "very_high"
)

// Nutrient bands (BandLow is shared with organic matter).
const (
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// Worked-hours bands.
const (
	BandRegular        Band = "regular"
	BandFirstOvertime  Band = "first_overtime"
	BandSecondOvertime Band = "second_overtime"
	BandExcessive      Band = "excessive"
)

// BandUnknown is returned when a value cannot be placed on a scale at
// all (NaN input). Callers display it as "out of range".
const BandUnknown Band = "unknown"

// Assessment is the result of classifying one measurement.
type Assessment struct {
	Band     Band     `json:"band"`
	Severity Severity `json:"severity"`
	Note     string   `json:"note,omitempty"`
	Color    string   `json:"color,omitempty"` // only set for worked-hours bands
}

// NutrientKind selects which nutrient scale applies to a reading.
type NutrientKind string

const (
	NutrientPhosphorus NutrientKind = "phosphorus"
	NutrientPotassium  NutrientKind = "potassium"
	NutrientCEC        NutrientKind = "cec"
)
