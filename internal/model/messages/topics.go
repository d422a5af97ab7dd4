package messages

import "fmt"

// Topic prefixes. Concrete topics append farm and subject segments, so
// consumers subscribe with `<prefix>/#`.
const (
	TopicSoilSample     = "sample/soil"          // sample/soil/{farm}/{field}
	TopicShiftPunch     = "shift/punch"          // shift/punch/{farm}/{worker}
	TopicShiftSummary   = "shift/aggregated"     // shift/aggregated/{farm}/{worker}
	TopicSoilAssessment = "event/soilAssessment" // event/soilAssessment/{farm}/{field}
	TopicAlert          = "event/alert"          // event/alert/{farm}/{kind}
)

func SoilSampleTopic(farmID, fieldID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicSoilSample, farmID, fieldID)
}

func ShiftPunchTopic(farmID, workerID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicShiftPunch, farmID, workerID)
}

func ShiftSummaryTopic(farmID, workerID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicShiftSummary, farmID, workerID)
}

func SoilAssessmentTopic(farmID, fieldID string) string {
	return fmt.Sprintf("%s/%s/%s", TopicSoilAssessment, farmID, fieldID)
}

func AlertTopic(farmID string, kind AlertKind) string {
	return fmt.Sprintf("%s/%s/%s", TopicAlert, farmID, kind)
}
