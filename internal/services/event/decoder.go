package event

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"farmops/internal/model/messages"
)

// CommonEvent is the normalized form every farm event lands in before
// it is written to Influx. RefID points at the subject (field, lease or
// worker); Kind is set for alerts only.
type CommonEvent struct {
	EventType     string // soil.assessment | alert
	SourceService string
	FarmID        string
	RefID         string
	Kind          string
	Severity      string // success|info|warning|error
	Fields        map[string]interface{}
	Timestamp     time.Time
}

// Decoder turns raw bus payloads into CommonEvents and feeds them to
// sink. Topics outside the event/ namespace are ignored.
type Decoder struct{ sink func(CommonEvent) }

func NewDecoder(sink func(CommonEvent)) *Decoder { return &Decoder{sink: sink} }

func (d *Decoder) Handle(topic string, payload json.RawMessage) error {
	var (
		evt CommonEvent
		err error
	)
	switch {
	case strings.HasPrefix(topic, messages.TopicSoilAssessment+"/"):
		evt, err = decodeAssessment(topic, payload)
	case strings.HasPrefix(topic, messages.TopicAlert+"/"):
		evt, err = decodeAlert(topic, payload)
	default:
		return nil
	}
	if err != nil {
		return err
	}
	if d.sink != nil {
		d.sink(evt)
	}
	return nil
}

func decodeAssessment(topic string, payload []byte) (CommonEvent, error) {
	var a messages.SoilAssessmentEvent
	if err := json.Unmarshal(payload, &a); err != nil {
		return CommonEvent{}, err
	}
	farmID, fieldID := a.FarmID, a.FieldID
	if farmID == "" || fieldID == "" {
		farmID, fieldID = topicTail(topic, messages.TopicSoilAssessment+"/")
	}
	if farmID == "" || fieldID == "" {
		return CommonEvent{}, errors.New("assessment: missing farm/field")
	}
	return CommonEvent{
		EventType:     "soil.assessment",
		SourceService: "analysis",
		FarmID:        farmID,
		RefID:         fieldID,
		Severity:      severityOrInfo(string(a.Report.Overall)),
		Fields: map[string]interface{}{
			"sample_id": a.SampleID,
			"ph_band":   string(a.Report.PH.Band),
			"om_band":   string(a.Report.OrganicMatter.Band),
			"p_band":    string(a.Report.Phosphorus.Band),
			"k_band":    string(a.Report.Potassium.Band),
			"cec_band":  string(a.Report.CEC.Band),
		},
		Timestamp: a.Timestamp,
	}, nil
}

func decodeAlert(topic string, payload []byte) (CommonEvent, error) {
	var al messages.AlertEvent
	if err := json.Unmarshal(payload, &al); err != nil {
		return CommonEvent{}, err
	}
	farmID, kind := al.FarmID, string(al.Kind)
	if farmID == "" || kind == "" {
		tFarm, tKind := topicTail(topic, messages.TopicAlert+"/")
		if farmID == "" {
			farmID = tFarm
		}
		if kind == "" {
			kind = tKind
		}
	}
	if farmID == "" || kind == "" {
		return CommonEvent{}, errors.New("alert: missing farm/kind")
	}
	source := "alerts"
	if kind == string(messages.AlertSoilCritical) {
		source = "analysis"
	}
	return CommonEvent{
		EventType:     "alert",
		SourceService: source,
		FarmID:        farmID,
		RefID:         al.RefID,
		Kind:          kind,
		Severity:      severityOrInfo(string(al.Severity)),
		Fields: map[string]interface{}{
			"alert_id": al.AlertID,
			"note":     al.Note,
		},
		Timestamp: al.Timestamp,
	}, nil
}

// topicTail splits "prefix/{a}/{b}" into its two trailing segments.
func topicTail(topic, prefix string) (string, string) {
	parts := strings.Split(strings.TrimPrefix(topic, prefix), "/")
	if len(parts) >= 2 {
		return parts[0], parts[1]
	}
	return "", ""
}

func severityOrInfo(s string) string {
	if strings.TrimSpace(s) == "" {
		return "info"
	}
	return s
}
