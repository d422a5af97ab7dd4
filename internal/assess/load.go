package assess

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// rulesFile is the on-disk shape of a tuned ruleset. Every scale is
// optional; absent scales keep their DefaultRules table. The terminal
// step of a total scale is written as `upper: .inf`.
type rulesFile struct {
	PH            *Scale `yaml:"ph"`
	OrganicMatter *Scale `yaml:"organic_matter"`
	Phosphorus    *Scale `yaml:"phosphorus"`
	Potassium     *Scale `yaml:"potassium"`
	CEC           *Scale `yaml:"cec"`
	WorkedHours   *Scale `yaml:"worked_hours"`
}

// ParseRules decodes a YAML ruleset overlay and validates the result.
// Scales present in the payload replace the matching DefaultRules table
// whole; an invalid payload is rejected whole, never applied in part.
func ParseRules(data []byte) (*Ruleset, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("assess: ruleset payload is empty")
	}
	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("assess: decode ruleset: %w", err)
	}
	rs := DefaultRules
	for _, ov := range []struct {
		name string
		src  *Scale
		dst  *Scale
	}{
		{"ph", rf.PH, &rs.PHScale},
		{"organic_matter", rf.OrganicMatter, &rs.OrganicMatterScale},
		{"phosphorus", rf.Phosphorus, &rs.PhosphorusScale},
		{"potassium", rf.Potassium, &rs.PotassiumScale},
		{"cec", rf.CEC, &rs.CECScale},
		{"worked_hours", rf.WorkedHours, &rs.WorkedHoursScale},
	} {
		if ov.src == nil {
			continue
		}
		sc := *ov.src
		sc.Name = ov.name
		*ov.dst = sc
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// LoadRulesFile reads a ruleset overlay from disk.
func LoadRulesFile(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assess: read %s: %w", path, err)
	}
	rs, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("assess: %s: %w", path, err)
	}
	return rs, nil
}
