package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// soilGridsURL is fetched once at startup, never per tick.
const soilGridsURL = "https://rest.isric.org/soilgrids/v2.0/properties/query?lat=%f&lon=%f&property=phh2o&property=soc&property=cec"

// Walk bounds. A tick never moves a metric more than a lab-plausible
// nudge, and the state never leaves the displayable ranges.
const (
	phMin, phMax   = 4.0, 9.0
	omMin, omMax   = 0.5, 8.0
	pMin, pMax     = 5.0, 60.0
	kMin, kMax     = 50.0, 400.0
	cecMin, cecMax = 5.0, 35.0
)

// defaultState is the fallback when SoilGrids is unreachable or returns
// nothing usable: a decent loam.
var defaultState = SoilState{
	PH: 6.5, OrganicMatter: 3.0, Phosphorus: 25, Potassium: 180, CEC: 18,
}

// SoilState is the simulated ground truth for one field.
type SoilState struct {
	PH            float64
	OrganicMatter float64
	Phosphorus    float64
	Potassium     float64
	CEC           float64
}

// SampleGenerator evolves a field's soil state with a bounded random
// walk. At most one SoilGrids fetch happens, at seed time; any failure
// falls back to the default state.
type SampleGenerator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	seeded  bool
	state   SoilState
	client  *http.Client
	baseURL string
	log     *zap.SugaredLogger
}

func NewSampleGenerator(seed int64, log *zap.SugaredLogger) *SampleGenerator {
	return &SampleGenerator{
		rng:     rand.New(rand.NewSource(seed)),
		client:  &http.Client{Timeout: 8 * time.Second},
		baseURL: soilGridsURL,
		log:     log,
	}
}

// SeedFromSoilGrids does the one-shot startup fetch. Phosphorus and
// potassium are not SoilGrids properties; they start from typical
// agronomic ranges either way.
func (g *SampleGenerator) SeedFromSoilGrids(ctx context.Context, lat, lon float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seeded {
		return
	}
	g.state = defaultState
	g.seeded = true

	if lat == 0 && lon == 0 {
		return
	}
	props, err := g.fetchProperties(ctx, lat, lon)
	if err != nil {
		g.log.Warnf("soilgrids seed failed, using defaults: %v", err)
		return
	}

	// phh2o arrives as pH*10, soc as dg/kg, cec as mmol(c)/kg.
	if v, ok := props["phh2o"]; ok {
		g.state.PH = clampRange(v/10, phMin, phMax)
	}
	if v, ok := props["soc"]; ok {
		// organic matter ~ organic carbon x 1.724 (van Bemmelen)
		g.state.OrganicMatter = clampRange(v/100*1.724, omMin, omMax)
	}
	if v, ok := props["cec"]; ok {
		g.state.CEC = clampRange(v/10, cecMin, cecMax)
	}
	g.log.Infof("soilgrids seed: ph=%.1f om=%.1f%% cec=%.1f",
		g.state.PH, g.state.OrganicMatter, g.state.CEC)
}

// Next advances the walk one tick and returns the new state.
func (g *SampleGenerator) Next() SoilState {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.seeded {
		g.state = defaultState
		g.seeded = true
	}
	g.state.PH = g.walk(g.state.PH, 0.05, phMin, phMax)
	g.state.OrganicMatter = g.walk(g.state.OrganicMatter, 0.05, omMin, omMax)
	g.state.Phosphorus = g.walk(g.state.Phosphorus, 1.5, pMin, pMax)
	g.state.Potassium = g.walk(g.state.Potassium, 4, kMin, kMax)
	g.state.CEC = g.walk(g.state.CEC, 0.3, cecMin, cecMax)
	return g.state
}

func (g *SampleGenerator) walk(v, step, lo, hi float64) float64 {
	return clampRange(v+(g.rng.Float64()*2-1)*step, lo, hi)
}

func (g *SampleGenerator) fetchProperties(ctx context.Context, lat, lon float64) (map[string]float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(g.baseURL, lat, lon), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "farmops-simulator/1.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("soilgrids HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	// Values come back null for masked cells, hence the pointers.
	var parsed struct {
		Properties struct {
			Layers []struct {
				Name   string `json:"name"`
				Depths []struct {
					Values map[string]*float64 `json:"values"`
				} `json:"depths"`
			} `json:"layers"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for _, layer := range parsed.Properties.Layers {
		if len(layer.Depths) == 0 {
			continue
		}
		vals := layer.Depths[0].Values
		for _, k := range []string{"mean", "Q0.5"} {
			if v, ok := vals[k]; ok && v != nil {
				out[layer.Name] = *v
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("soilgrids: no usable layer values")
	}
	return out, nil
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
