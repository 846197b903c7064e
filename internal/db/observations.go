package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solar-analytics/internal/models"
)

const observationColumns = `
	id, event_time, sep_intensity, temperature, ice_extent, ozone_level,
	kp_index, solar_flux, sunspot_count, cosmic_ray_count, aurora_activity,
	cluster_id, created_at`

// InsertObservation stores a new SEP reading.
func (d *DB) InsertObservation(ctx context.Context, obs models.Observation) error {
	query := `
	INSERT INTO sep_events (
		id, event_time, sep_intensity, temperature, ice_extent, ozone_level,
		kp_index, solar_flux, sunspot_count, cosmic_ray_count, aurora_activity
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (event_time) DO NOTHING`

	_, err := d.Pool.Exec(ctx, query,
		obs.ID,
		obs.Timestamp,
		obs.SepIntensity,
		obs.Temperature,
		obs.IceExtent,
		obs.OzoneLevel,
		obs.KpIndex,
		obs.SolarFlux,
		obs.SunspotCount,
		obs.CosmicRays,
		obs.Aurora,
	)
	if err != nil {
		return fmt.Errorf("failed to insert observation: %w", err)
	}
	return nil
}

// GetObservations fetches readings ordered by event time, optionally bounded
// by a time range.
func (d *DB) GetObservations(ctx context.Context, start, end *time.Time, limit int) ([]models.Observation, error) {
	query := `SELECT ` + observationColumns + ` FROM sep_events WHERE 1=1`
	args := []interface{}{}
	idx := 1
	if start != nil {
		query += fmt.Sprintf(" AND event_time >= $%d", idx)
		args = append(args, *start)
		idx++
	}
	if end != nil {
		query += fmt.Sprintf(" AND event_time <= $%d", idx)
		args = append(args, *end)
		idx++
	}
	query += " ORDER BY event_time ASC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, limit)
	}

	rows, err := d.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get observations: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// GetHighIntensityObservations fetches readings above the given intensity,
// newest first.
func (d *DB) GetHighIntensityObservations(ctx context.Context, threshold float64, limit int) ([]models.Observation, error) {
	query := `SELECT ` + observationColumns + `
	FROM sep_events
	WHERE sep_intensity > $1
	ORDER BY event_time DESC
	LIMIT $2`

	rows, err := d.Pool.Query(ctx, query, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get high intensity observations: %w", err)
	}
	defer rows.Close()

	return scanObservations(rows)
}

// ApplyClusterAssignments writes cluster labels back to their observations.
// This is the only mutation observations receive after collection.
func (d *DB) ApplyClusterAssignments(ctx context.Context, assignments []models.Assignment) error {
	batch := &pgx.Batch{}
	for _, a := range assignments {
		batch.Queue(`UPDATE sep_events SET cluster_id = $1 WHERE id = $2`, a.ClusterID, a.ObservationID)
	}

	results := d.Pool.SendBatch(ctx, batch)
	defer results.Close()

	for range assignments {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to apply cluster assignment: %w", err)
		}
	}
	return nil
}

func scanObservations(rows pgx.Rows) ([]models.Observation, error) {
	var list []models.Observation
	for rows.Next() {
		var obs models.Observation
		err := rows.Scan(
			&obs.ID,
			&obs.Timestamp,
			&obs.SepIntensity,
			&obs.Temperature,
			&obs.IceExtent,
			&obs.OzoneLevel,
			&obs.KpIndex,
			&obs.SolarFlux,
			&obs.SunspotCount,
			&obs.CosmicRays,
			&obs.Aurora,
			&obs.ClusterID,
			&obs.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan observation: %w", err)
		}
		list = append(list, obs)
	}
	return list, rows.Err()
}
