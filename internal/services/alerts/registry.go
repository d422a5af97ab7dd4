package alerts

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"farmops/internal/model/entities"
)

// Registry is the sqlite-backed roster of fields, leases and workers
// the alerting rules run against. It also records which alerts went out
// so a lease is billed once per period and a worker nagged once per day.
type Registry struct {
	db *sql.DB
}

func OpenRegistry(path string) (*Registry, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS fields (
		id          TEXT PRIMARY KEY,
		farm_id     TEXT NOT NULL,
		name        TEXT DEFAULT '',
		crop_type   TEXT DEFAULT '',
		area_ha     REAL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_fields_farm ON fields(farm_id);

	CREATE TABLE IF NOT EXISTS leases (
		id             TEXT PRIMARY KEY,
		field_id       TEXT NOT NULL,
		tenant         TEXT DEFAULT '',
		rent_frequency TEXT NOT NULL,
		rent_amount    REAL DEFAULT 0,
		start_date     DATETIME,
		status         TEXT NOT NULL DEFAULT 'active'
	);
	CREATE INDEX IF NOT EXISTS idx_leases_status ON leases(status);
	CREATE INDEX IF NOT EXISTS idx_leases_field ON leases(field_id);

	CREATE TABLE IF NOT EXISTS workers (
		id      TEXT PRIMARY KEY,
		farm_id TEXT NOT NULL,
		name    TEXT DEFAULT '',
		role    TEXT DEFAULT '',
		active  INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS sent_alerts (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		kind    TEXT NOT NULL,
		ref_id  TEXT NOT NULL,
		period  TEXT NOT NULL,
		sent_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(kind, ref_id, period)
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	// Migration: add soil_texture column if missing.
	var colCount int
	_ = db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('fields') WHERE name = 'soil_texture'`).Scan(&colCount)
	if colCount == 0 {
		_, _ = db.Exec(`ALTER TABLE fields ADD COLUMN soil_texture TEXT DEFAULT ''`)
	}

	return &Registry{db: db}, nil
}

func (r *Registry) Close() error { return r.db.Close() }

func (r *Registry) UpsertField(f entities.Field) error {
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO fields (id, farm_id, name, crop_type, area_ha, soil_texture)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.FarmID, f.Name, f.CropType, f.AreaHa, f.SoilTexture,
	)
	return err
}

func (r *Registry) UpsertLease(l entities.Lease) error {
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO leases (id, field_id, tenant, rent_frequency, rent_amount, start_date, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.FieldID, l.Tenant, string(l.RentFrequency), l.RentAmount, l.StartDate, string(l.Status),
	)
	return err
}

func (r *Registry) UpsertWorker(w entities.Worker) error {
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO workers (id, farm_id, name, role, active)
		 VALUES (?, ?, ?, ?, ?)`,
		w.ID, w.FarmID, w.Name, w.Role, w.Active,
	)
	return err
}

// InsertLeases loads a batch in one transaction and reports how many
// rows went in before the first failure.
func (r *Registry) InsertLeases(leases []entities.Lease) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO leases (id, field_id, tenant, rent_frequency, rent_amount, start_date, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, l := range leases {
		if _, err := stmt.Exec(l.ID, l.FieldID, l.Tenant, string(l.RentFrequency), l.RentAmount, l.StartDate, string(l.Status)); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, tx.Commit()
}

func (r *Registry) Fields() ([]entities.Field, error) {
	rows, err := r.db.Query(
		`SELECT id, farm_id, name, crop_type, area_ha, soil_texture FROM fields ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entities.Field
	for rows.Next() {
		var f entities.Field
		if err := rows.Scan(&f.ID, &f.FarmID, &f.Name, &f.CropType, &f.AreaHa, &f.SoilTexture); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Registry) Workers() ([]entities.Worker, error) {
	rows, err := r.db.Query(
		`SELECT id, farm_id, name, role, active FROM workers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entities.Worker
	for rows.Next() {
		var w entities.Worker
		if err := rows.Scan(&w.ID, &w.FarmID, &w.Name, &w.Role, &w.Active); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Worker returns the roster entry for id. ok is false when unknown.
func (r *Registry) Worker(id string) (entities.Worker, bool, error) {
	var w entities.Worker
	err := r.db.QueryRow(
		`SELECT id, farm_id, name, role, active FROM workers WHERE id = ?`, id,
	).Scan(&w.ID, &w.FarmID, &w.Name, &w.Role, &w.Active)
	if err == sql.ErrNoRows {
		return entities.Worker{}, false, nil
	}
	if err != nil {
		return entities.Worker{}, false, err
	}
	return w, true, nil
}

// LeaseRow is a lease joined with the farm its field belongs to.
type LeaseRow struct {
	Lease  entities.Lease `json:"lease"`
	FarmID string         `json:"farm_id"`
}

func (r *Registry) Leases() ([]LeaseRow, error) {
	return r.queryLeases(
		`SELECT l.id, l.field_id, l.tenant, l.rent_frequency, l.rent_amount, l.start_date, l.status,
		        COALESCE(f.farm_id, '')
		 FROM leases l LEFT JOIN fields f ON f.id = l.field_id
		 ORDER BY l.id`)
}

// ActiveLeases returns the leases the daily payment scan evaluates.
func (r *Registry) ActiveLeases() ([]LeaseRow, error) {
	return r.queryLeases(
		`SELECT l.id, l.field_id, l.tenant, l.rent_frequency, l.rent_amount, l.start_date, l.status,
		        COALESCE(f.farm_id, '')
		 FROM leases l LEFT JOIN fields f ON f.id = l.field_id
		 WHERE l.status = 'active'
		 ORDER BY l.id`)
}

func (r *Registry) queryLeases(q string) ([]LeaseRow, error) {
	rows, err := r.db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LeaseRow
	for rows.Next() {
		var (
			row  LeaseRow
			freq string
			stat string
			sd   sql.NullTime
		)
		if err := rows.Scan(&row.Lease.ID, &row.Lease.FieldID, &row.Lease.Tenant, &freq,
			&row.Lease.RentAmount, &sd, &stat, &row.FarmID); err != nil {
			return nil, err
		}
		row.Lease.RentFrequency = entities.RentFrequency(freq)
		row.Lease.Status = entities.LeaseStatus(stat)
		if sd.Valid {
			row.Lease.StartDate = sd.Time
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// MarkAlertSent records that an alert for (kind, ref, period) went out.
// Returns false when the same alert was already recorded, which is the
// dedup that keeps one payment-due alert per lease per month.
func (r *Registry) MarkAlertSent(kind, refID, period string) (bool, error) {
	res, err := r.db.Exec(
		`INSERT OR IGNORE INTO sent_alerts (kind, ref_id, period, sent_at) VALUES (?, ?, ?, ?)`,
		kind, refID, period, time.Now().UTC(),
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
