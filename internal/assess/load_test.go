package assess

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tunedPH = `
ph:
  steps:
    - {upper: 6.5, band: acidic, severity: error, note: "too acidic for vines"}
    - {upper: 7.2, inclusive: true, band: optimal, severity: success, note: "vineyard range"}
    - {upper: .inf, band: alkaline, severity: warning, note: "alkaline"}
`

func TestParseRulesOverlay(t *testing.T) {
	rs, err := ParseRules([]byte(tunedPH))
	require.NoError(t, err)

	got := rs.PH(6.2)
	assert.Equal(t, Band("acidic"), got.Band)
	assert.Equal(t, "too acidic for vines", got.Note)
	assert.Equal(t, Band("optimal"), rs.PH(7.0).Band)
	assert.Equal(t, Band("alkaline"), rs.PH(7.3).Band)

	// Scales absent from the overlay keep their defaults.
	assert.Equal(t, BandGood, rs.OrganicMatter(3.0).Band)
	a, err := rs.Nutrient(250, NutrientPhosphorus)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Empty(t, a.Band)
}

func TestParseRulesBoundedOverlay(t *testing.T) {
	payload := `
phosphorus:
  bounded: true
  steps:
    - {upper: 20, band: low, severity: error, note: "Low level"}
    - {upper: 100, inclusive: true, band: high, severity: success, note: "High level"}
`
	rs, err := ParseRules([]byte(payload))
	require.NoError(t, err)

	got, err := rs.Nutrient(50, NutrientPhosphorus)
	require.NoError(t, err)
	assert.Equal(t, Band("high"), got.Band)

	_, err = rs.Nutrient(150, NutrientPhosphorus)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestParseRulesRejectsInvalid(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"empty", "   \n"},
		{"not yaml", "{steps: ["},
		{"descending", `
ph:
  steps:
    - {upper: 7.0, band: a, severity: success}
    - {upper: 6.0, band: b, severity: error}
`},
		{"no open end", `
ph:
  steps:
    - {upper: 7.0, band: a, severity: success}
`},
		{"bad severity", `
worked_hours:
  steps:
    - {upper: .inf, band: a, severity: fatal}
`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseRules([]byte(c.payload))
			assert.Error(t, err)
		})
	}
}

func TestLoadRulesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tunedPH), 0o644))

	rs, err := LoadRulesFile(path)
	require.NoError(t, err)
	assert.Equal(t, Band("optimal"), rs.PH(7.1).Band)

	_, err = LoadRulesFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
