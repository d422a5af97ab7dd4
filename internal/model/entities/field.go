package entities

// Field represents a tract of land growing a particular crop,
// and carries the leases attached to it.
type Field struct {
	ID          string  `json:"id"` // unique field identifier
	FarmID      string  `json:"farm_id"`
	Name        string  `json:"name"`
	CropType    string  `json:"crop_type"` // e.g. "corn", "wheat"
	AreaHa      float64 `json:"area_ha"`
	SoilTexture string  `json:"soil_texture,omitempty"` // e.g. "loam", "clay"
	Leases      []Lease `json:"leases,omitempty"`
}

func (f *Field) GetLease(leaseID string) *Lease {
	for i := range f.Leases {
		if f.Leases[i].ID == leaseID {
			return &f.Leases[i]
		}
	}
	return nil
}

// ActiveLeases returns the leases currently in force on the field.
func (f *Field) ActiveLeases() []Lease {
	var out []Lease
	for _, l := range f.Leases {
		if l.Status == LeaseActive {
			out = append(out, l)
		}
	}
	return out
}
