package mqttbus

import "testing"

func TestQoSFor(t *testing.T) {
	cases := []struct {
		topic string
		want  byte
	}{
		{"sample/soil/farm-1/field-2", 0},
		{"sample/soil/#", 0},
		{"shift/punch/farm-1/w-9", 0},
		{"shift/aggregated/farm-1/w-9", 1},
		{"event/soilAssessment/farm-1/field-2", 1},
		{"event/alert/farm-1/lease.payment_due", 1},
		{" event/alert/farm-1/soil.critical", 1},
		{"something/else", 0},
	}
	for _, c := range cases {
		if got := QoSFor(c.topic); got != c.want {
			t.Errorf("QoSFor(%q) = %d, want %d", c.topic, got, c.want)
		}
	}
}

func TestConfigBrokerURL(t *testing.T) {
	cfg := Config{Host: "mosquitto", Port: 1883}
	if got := cfg.BrokerURL(); got != "tcp://mosquitto:1883" {
		t.Fatalf("BrokerURL = %q", got)
	}
}
