package alerts

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmops/internal/model/entities"
)

func openTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := OpenRegistry(filepath.Join(t.TempDir(), "alerts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestRegistryRoundTrip(t *testing.T) {
	reg := openTestRegistry(t)

	require.NoError(t, reg.UpsertField(entities.Field{
		ID: "field-1", FarmID: "farm-1", Name: "North paddock",
		CropType: "corn", AreaHa: 12.5, SoilTexture: "loam",
	}))
	require.NoError(t, reg.UpsertWorker(entities.Worker{
		ID: "w-1", FarmID: "farm-1", Name: "Ada Kovacs", Role: "hand", Active: true,
	}))
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, reg.UpsertLease(entities.Lease{
		ID: "lease-1", FieldID: "field-1", Tenant: "Beck Farms",
		RentFrequency: entities.RentAnnual, RentAmount: 900,
		StartDate: start, Status: entities.LeaseActive,
	}))

	fields, err := reg.Fields()
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "loam", fields[0].SoilTexture)
	assert.Equal(t, 12.5, fields[0].AreaHa)

	rows, err := reg.Leases()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	// farm id comes through the join with fields
	assert.Equal(t, "farm-1", rows[0].FarmID)
	assert.Equal(t, entities.RentAnnual, rows[0].Lease.RentFrequency)
	assert.WithinDuration(t, start, rows[0].Lease.StartDate, time.Second)

	w, ok, err := reg.Worker("w-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ada Kovacs", w.Name)

	_, ok, err = reg.Worker("nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpsertReplacesExistingRow(t *testing.T) {
	reg := openTestRegistry(t)

	require.NoError(t, reg.UpsertField(entities.Field{ID: "field-1", FarmID: "farm-1", CropType: "corn"}))
	require.NoError(t, reg.UpsertField(entities.Field{ID: "field-1", FarmID: "farm-1", CropType: "wheat"}))

	fields, err := reg.Fields()
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "wheat", fields[0].CropType)
}

func TestOpenRegistryAddsSoilTextureColumn(t *testing.T) {
	// Databases created before soil_texture existed must still open.
	path := filepath.Join(t.TempDir(), "alerts.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE fields (
		id TEXT PRIMARY KEY, farm_id TEXT NOT NULL,
		name TEXT DEFAULT '', crop_type TEXT DEFAULT '', area_ha REAL DEFAULT 0)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reg, err := OpenRegistry(path)
	require.NoError(t, err)
	defer reg.Close()

	require.NoError(t, reg.UpsertField(entities.Field{ID: "field-1", FarmID: "farm-1", SoilTexture: "clay"}))
	fields, err := reg.Fields()
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "clay", fields[0].SoilTexture)
}

func TestInsertLeasesBatch(t *testing.T) {
	reg := openTestRegistry(t)

	n, err := reg.InsertLeases([]entities.Lease{
		{ID: "l-1", FieldID: "field-1", RentFrequency: entities.RentMonthly, Status: entities.LeaseActive},
		{ID: "l-2", FieldID: "field-1", RentFrequency: entities.RentAnnual, Status: entities.LeaseActive},
		{ID: "l-3", FieldID: "field-2", RentFrequency: entities.RentMonthly, Status: entities.LeaseInactive},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// re-import replaces rather than duplicates
	n, err = reg.InsertLeases([]entities.Lease{
		{ID: "l-1", FieldID: "field-1", RentFrequency: entities.RentMonthly, Status: entities.LeaseInactive},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows, err := reg.Leases()
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestActiveLeasesFiltersInactive(t *testing.T) {
	reg := openTestRegistry(t)

	_, err := reg.InsertLeases([]entities.Lease{
		{ID: "l-1", FieldID: "field-1", RentFrequency: entities.RentMonthly, Status: entities.LeaseActive},
		{ID: "l-2", FieldID: "field-1", RentFrequency: entities.RentMonthly, Status: entities.LeaseInactive},
	})
	require.NoError(t, err)

	rows, err := reg.ActiveLeases()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "l-1", rows[0].Lease.ID)
	// field-1 is not in the fields table: the join still yields the lease
	assert.Equal(t, "", rows[0].FarmID)
}

func TestMarkAlertSentDedups(t *testing.T) {
	reg := openTestRegistry(t)

	fresh, err := reg.MarkAlertSent("lease.payment_due", "l-1", "2025-03")
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = reg.MarkAlertSent("lease.payment_due", "l-1", "2025-03")
	require.NoError(t, err)
	assert.False(t, fresh, "same alert in the same period must be suppressed")

	fresh, err = reg.MarkAlertSent("lease.payment_due", "l-1", "2025-04")
	require.NoError(t, err)
	assert.True(t, fresh, "a new period reopens the alert")

	fresh, err = reg.MarkAlertSent("lease.payment_due", "l-2", "2025-03")
	require.NoError(t, err)
	assert.True(t, fresh, "a different lease is a different alert")
}
