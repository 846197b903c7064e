package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solar-analytics/internal/models"
)

// InsertForecasts appends a batch of forecasts. Forecasts are never updated
// after creation.
func (d *DB) InsertForecasts(ctx context.Context, forecasts []models.Forecast) error {
	batch := &pgx.Batch{}
	for _, fc := range forecasts {
		batch.Queue(`
		INSERT INTO predictions (id, predicted_for, predicted_intensity, confidence_score, model_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
			fc.ID, fc.PredictedFor, fc.PredictedIntensity, fc.Confidence, fc.ModelVersion, fc.CreatedAt)
	}

	results := d.Pool.SendBatch(ctx, batch)
	defer results.Close()

	for range forecasts {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert forecast: %w", err)
		}
	}
	return nil
}

// GetLatestForecasts returns the most recently generated forecast batch,
// ordered by predicted-for time.
func (d *DB) GetLatestForecasts(ctx context.Context) ([]models.Forecast, error) {
	query := `
	SELECT id, predicted_for, predicted_intensity, confidence_score, model_version, created_at
	FROM predictions
	WHERE created_at = (SELECT MAX(created_at) FROM predictions)
	ORDER BY predicted_for ASC`

	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get forecasts: %w", err)
	}
	defer rows.Close()

	var list []models.Forecast
	for rows.Next() {
		var fc models.Forecast
		if err := rows.Scan(&fc.ID, &fc.PredictedFor, &fc.PredictedIntensity, &fc.Confidence, &fc.ModelVersion, &fc.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		list = append(list, fc)
	}
	return list, rows.Err()
}
