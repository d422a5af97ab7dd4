package alerts

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"farmops/internal/model/entities"
)

type seedFile struct {
	Fields  []seedField  `yaml:"fields"`
	Leases  []seedLease  `yaml:"leases"`
	Workers []seedWorker `yaml:"workers"`
}

type seedField struct {
	ID          string  `yaml:"id"`
	FarmID      string  `yaml:"farm_id"`
	Name        string  `yaml:"name"`
	CropType    string  `yaml:"crop_type"`
	AreaHa      float64 `yaml:"area_ha"`
	SoilTexture string  `yaml:"soil_texture"`
}

type seedLease struct {
	ID            string    `yaml:"id"`
	FieldID       string    `yaml:"field_id"`
	Tenant        string    `yaml:"tenant"`
	RentFrequency string    `yaml:"rent_frequency"`
	RentAmount    float64   `yaml:"rent_amount"`
	StartDate     time.Time `yaml:"start_date"`
	Status        string    `yaml:"status"`
}

type seedWorker struct {
	ID     string `yaml:"id"`
	FarmID string `yaml:"farm_id"`
	Name   string `yaml:"name"`
	Role   string `yaml:"role"`
	Active *bool  `yaml:"active"`
}

// SeedCounts reports what a seed file loaded.
type SeedCounts struct {
	Fields  int
	Leases  int
	Workers int
}

// LoadSeed fills the registry from a YAML roster file. Rows replace
// existing entries with the same id, so re-seeding is harmless.
func LoadSeed(r *Registry, path string) (SeedCounts, error) {
	var counts SeedCounts

	data, err := os.ReadFile(path)
	if err != nil {
		return counts, fmt.Errorf("read seed %s: %w", path, err)
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return counts, fmt.Errorf("parse seed %s: %w", path, err)
	}

	for _, f := range sf.Fields {
		if err := r.UpsertField(entities.Field{
			ID: f.ID, FarmID: f.FarmID, Name: f.Name,
			CropType: f.CropType, AreaHa: f.AreaHa, SoilTexture: f.SoilTexture,
		}); err != nil {
			return counts, err
		}
		counts.Fields++
	}

	for _, w := range sf.Workers {
		active := true
		if w.Active != nil {
			active = *w.Active
		}
		if err := r.UpsertWorker(entities.Worker{
			ID: w.ID, FarmID: w.FarmID, Name: w.Name, Role: w.Role, Active: active,
		}); err != nil {
			return counts, err
		}
		counts.Workers++
	}

	leases := make([]entities.Lease, 0, len(sf.Leases))
	for _, l := range sf.Leases {
		status := l.Status
		if status == "" {
			status = string(entities.LeaseActive)
		}
		leases = append(leases, entities.Lease{
			ID: l.ID, FieldID: l.FieldID, Tenant: l.Tenant,
			RentFrequency: entities.RentFrequency(l.RentFrequency),
			RentAmount:    l.RentAmount,
			StartDate:     l.StartDate,
			Status:        entities.LeaseStatus(status),
		})
	}
	n, err := r.InsertLeases(leases)
	counts.Leases = n
	if err != nil {
		return counts, err
	}
	return counts, nil
}
