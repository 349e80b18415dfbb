package plugwise

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	pw "github.com/nerrad567/gray-logic-plugwise/internal/plugwise"
)

// CalibrationSource records where a stored calibration came from.
type CalibrationSource string

const (
	// CalibrationFromNode is a calibration reported by the node itself.
	CalibrationFromNode CalibrationSource = "node"

	// CalibrationFromConfig is a calibration seeded from the bridge config file.
	CalibrationFromConfig CalibrationSource = "config"
)

// StoredCalibration is a persisted calibration with its provenance.
type StoredCalibration struct {
	MAC         pw.MACAddress
	Calibration pw.PowerCalibration
	Source      CalibrationSource
	UpdatedAt   time.Time
}

// CalibrationRepository persists per-node power calibrations.
type CalibrationRepository interface {
	Get(ctx context.Context, mac pw.MACAddress) (*StoredCalibration, error)
	Save(ctx context.Context, mac pw.MACAddress, cal pw.PowerCalibration, source CalibrationSource) error
	List(ctx context.Context) ([]StoredCalibration, error)
}

// NodeRepository persists the nodes the bridge has seen or been told about.
type NodeRepository interface {
	// Upsert records a node. Empty names and DeviceTypeUnknown never
	// overwrite known values.
	Upsert(ctx context.Context, node Node) error
	List(ctx context.Context) ([]Node, error)
}

// SQLiteCalibrationRepository implements CalibrationRepository using SQLite.
type SQLiteCalibrationRepository struct {
	db *sql.DB
}

// NewSQLiteCalibrationRepository creates a SQLite-backed calibration repository.
func NewSQLiteCalibrationRepository(db *sql.DB) *SQLiteCalibrationRepository {
	return &SQLiteCalibrationRepository{db: db}
}

// Get returns the stored calibration for mac, or ErrNodeNotFound.
func (r *SQLiteCalibrationRepository) Get(ctx context.Context, mac pw.MACAddress) (*StoredCalibration, error) {
	const query = `SELECT mac, gain_a, gain_b, offset_noise, offset_total, source, updated_at
		FROM power_calibrations WHERE mac = ?`
	row := r.db.QueryRowContext(ctx, query, mac.String())

	sc, err := scanCalibration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, mac)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning calibration %s: %w", mac, err)
	}
	return sc, nil
}

// Save inserts or replaces the calibration for mac.
func (r *SQLiteCalibrationRepository) Save(ctx context.Context, mac pw.MACAddress, cal pw.PowerCalibration, source CalibrationSource) error {
	const query = `INSERT INTO power_calibrations
		(mac, gain_a, gain_b, offset_noise, offset_total, source, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(mac) DO UPDATE SET
			gain_a = excluded.gain_a,
			gain_b = excluded.gain_b,
			offset_noise = excluded.offset_noise,
			offset_total = excluded.offset_total,
			source = excluded.source,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		mac.String(), cal.GainA, cal.GainB, cal.OffsetNoise, cal.OffsetTotal,
		string(source), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving calibration %s: %w", mac, err)
	}
	return nil
}

// List returns every stored calibration ordered by address.
func (r *SQLiteCalibrationRepository) List(ctx context.Context) ([]StoredCalibration, error) {
	const query = `SELECT mac, gain_a, gain_b, offset_noise, offset_total, source, updated_at
		FROM power_calibrations ORDER BY mac`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying calibrations: %w", err)
	}
	defer rows.Close()

	var out []StoredCalibration
	for rows.Next() {
		sc, err := scanCalibration(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning calibration row: %w", err)
		}
		out = append(out, *sc)
	}
	return out, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCalibration(row rowScanner) (*StoredCalibration, error) {
	var (
		mac, source, updated string
		cal                  pw.PowerCalibration
	)
	if err := row.Scan(&mac, &cal.GainA, &cal.GainB, &cal.OffsetNoise, &cal.OffsetTotal, &source, &updated); err != nil {
		return nil, err
	}

	addr, err := pw.ParseMACAddress(mac)
	if err != nil {
		return nil, err
	}
	ts, err := time.Parse(time.RFC3339, updated)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &StoredCalibration{
		MAC:         addr,
		Calibration: cal,
		Source:      CalibrationSource(source),
		UpdatedAt:   ts,
	}, nil
}

// SQLiteNodeRepository implements NodeRepository using SQLite.
type SQLiteNodeRepository struct {
	db *sql.DB
}

// NewSQLiteNodeRepository creates a SQLite-backed node repository.
func NewSQLiteNodeRepository(db *sql.DB) *SQLiteNodeRepository {
	return &SQLiteNodeRepository{db: db}
}

// Upsert inserts the node or merges it into the existing row.
func (r *SQLiteNodeRepository) Upsert(ctx context.Context, node Node) error {
	const query = `INSERT INTO nodes (mac, name, device_type, last_seen)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(mac) DO UPDATE SET
			name = CASE WHEN excluded.name = '' THEN nodes.name ELSE excluded.name END,
			device_type = CASE WHEN excluded.device_type = 'Unknown' THEN nodes.device_type ELSE excluded.device_type END,
			last_seen = COALESCE(excluded.last_seen, nodes.last_seen)`

	var lastSeen sql.NullString
	if !node.LastSeen.IsZero() {
		lastSeen = sql.NullString{String: node.LastSeen.UTC().Format(time.RFC3339), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		node.MAC.String(), node.Name, node.DeviceType.Label(), lastSeen)
	if err != nil {
		return fmt.Errorf("upserting node %s: %w", node.MAC, err)
	}
	return nil
}

// List returns every known node ordered by address.
func (r *SQLiteNodeRepository) List(ctx context.Context) ([]Node, error) {
	const query = `SELECT mac, name, device_type, last_seen FROM nodes ORDER BY mac`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	var out []Node
	for rows.Next() {
		var (
			mac, name, label string
			lastSeen         sql.NullString
		)
		if err := rows.Scan(&mac, &name, &label, &lastSeen); err != nil {
			return nil, fmt.Errorf("scanning node row: %w", err)
		}

		addr, err := pw.ParseMACAddress(mac)
		if err != nil {
			return nil, fmt.Errorf("scanning node row: %w", err)
		}
		dt, _ := pw.ParseDeviceType(label)
		n := Node{MAC: addr, Name: name, DeviceType: dt}
		if lastSeen.Valid {
			if n.LastSeen, err = time.Parse(time.RFC3339, lastSeen.String); err != nil {
				return nil, fmt.Errorf("parsing last_seen for %s: %w", addr, err)
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
