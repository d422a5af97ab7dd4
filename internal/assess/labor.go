package assess

// WorkedHours classifies a day's worked hours into an overtime band.
// The assessment carries a color token for the time-clock ring.
func (r *Ruleset) WorkedHours(hours float64) Assessment {
	return r.WorkedHoursScale.classifyTotal(hours)
}

// WorkedHours classifies hours against DefaultRules.
func WorkedHours(hours float64) Assessment { return DefaultRules.WorkedHours(hours) }

// RingAngle maps worked hours onto a 24h progress ring, in degrees.
// The map is linear and unclamped: more than 24h yields more than 360
// and the presentation layer clamps or wraps as it sees fit.
func RingAngle(hours float64) float64 {
	return hours / 24 * 360
}
