package vehiclestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/bods-client/pkg/siri_vm"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("no vehicle activity found")

// VehicleStore archives parsed vehicle activities in SQLite. The full activity
// is kept as JSON next to the columns used for lookups.
type VehicleStore struct {
	db *sql.DB
}

func Open(dbPath string) (*VehicleStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only allows one writer
	db.SetMaxOpenConns(1)

	store := &VehicleStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *VehicleStore) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS vehicle_activities (
		item_identifier TEXT PRIMARY KEY,
		operator_ref TEXT NOT NULL,
		vehicle_ref TEXT NOT NULL,
		line_ref TEXT NOT NULL,
		journey_ref TEXT NOT NULL,
		longitude REAL NOT NULL,
		latitude REAL NOT NULL,
		recorded_at INTEGER NOT NULL,
		activity TEXT NOT NULL,
		ingested_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_vehicle ON vehicle_activities(operator_ref, vehicle_ref, recorded_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load upserts activities by item identifier in a single transaction and
// returns the number written. Activities that cannot be encoded are skipped.
func (s *VehicleStore) Load(ctx context.Context, activities []siri_vm.VehicleActivity) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO vehicle_activities
		(item_identifier, operator_ref, vehicle_ref, line_ref, journey_ref, longitude, latitude, recorded_at, activity, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	ingestedAt := time.Now().UnixNano()
	var written int

	for _, activity := range activities {
		journey := activity.MonitoredVehicleJourney

		activityJSON, err := json.Marshal(activity)
		if err != nil {
			log.Error().Err(err).Str("item", activity.ItemIdentifier).Msg("Skipping vehicle activity that cannot be encoded")
			continue
		}

		_, err = stmt.ExecContext(ctx,
			activity.ItemIdentifier, journey.OperatorRef, journey.VehicleRef, journey.LineRef, journey.JourneyRef(),
			journey.VehicleLocation.Longitude, journey.VehicleLocation.Latitude,
			activity.RecordedAtTime.UnixNano(), string(activityJSON), ingestedAt,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert activity %s: %w", activity.ItemIdentifier, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return written, nil
}

func (s *VehicleStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vehicle_activities`).Scan(&count)

	return count, err
}

// LatestForVehicle returns the most recently recorded activity of a vehicle.
func (s *VehicleStore) LatestForVehicle(ctx context.Context, operatorRef, vehicleRef string) (*siri_vm.VehicleActivity, error) {
	var activityJSON string

	err := s.db.QueryRowContext(ctx, `
		SELECT activity FROM vehicle_activities
		WHERE operator_ref = ? AND vehicle_ref = ?
		ORDER BY recorded_at DESC
		LIMIT 1
	`, operatorRef, vehicleRef).Scan(&activityJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	var activity siri_vm.VehicleActivity
	if err := json.Unmarshal([]byte(activityJSON), &activity); err != nil {
		return nil, fmt.Errorf("failed to decode activity: %w", err)
	}

	return &activity, nil
}

func (s *VehicleStore) Close() error {
	return s.db.Close()
}
