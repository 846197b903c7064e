package db

import (
	"context"
	"fmt"

	"solar-analytics/internal/models"
)

const alertColumns = `
	id, alert_type, severity, message, threshold_value, actual_value,
	event_time, is_active, created_at, resolved_at`

// GetActiveAlerts returns every unresolved alert, ordered by event time.
func (d *DB) GetActiveAlerts(ctx context.Context) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE is_active ORDER BY event_time ASC`

	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active alerts: %w", err)
	}
	defer rows.Close()

	var list []models.Alert
	for rows.Next() {
		var a models.Alert
		err := rows.Scan(
			&a.ID, &a.Type, &a.Severity, &a.Message, &a.ThresholdValue,
			&a.ActualValue, &a.EventTime, &a.IsActive, &a.CreatedAt, &a.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// GetAlerts returns alerts newest first, optionally only active ones.
func (d *DB) GetAlerts(ctx context.Context, activeOnly bool, limit int) ([]models.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at DESC LIMIT $1`

	rows, err := d.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}
	defer rows.Close()

	var list []models.Alert
	for rows.Next() {
		var a models.Alert
		err := rows.Scan(
			&a.ID, &a.Type, &a.Severity, &a.Message, &a.ThresholdValue,
			&a.ActualValue, &a.EventTime, &a.IsActive, &a.CreatedAt, &a.ResolvedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// ApplyActions persists alert engine decisions inside one transaction.
// Creates upsert on (alert_type, event_time) so concurrent runs cannot leave
// two active alerts for the same pair; resolves flip the active flag and
// stamp resolved_at.
func (d *DB) ApplyActions(ctx context.Context, actions []models.Action) error {
	if len(actions) == 0 {
		return nil
	}

	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin alert transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, action := range actions {
		switch action.Kind {
		case models.ActionCreate:
			_, err = tx.Exec(ctx, `
			INSERT INTO alerts (
				id, alert_type, severity, message, threshold_value, actual_value,
				event_time, is_active, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8)
			ON CONFLICT (alert_type, event_time) WHERE is_active DO UPDATE SET
				severity = EXCLUDED.severity,
				message = EXCLUDED.message,
				threshold_value = EXCLUDED.threshold_value,
				actual_value = EXCLUDED.actual_value`,
				action.Alert.ID, action.Alert.Type, action.Alert.Severity,
				action.Alert.Message, action.Alert.ThresholdValue, action.Alert.ActualValue,
				action.Alert.EventTime, action.Alert.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to create alert: %w", err)
			}
		case models.ActionResolve:
			_, err = tx.Exec(ctx, `
			UPDATE alerts SET is_active = FALSE, resolved_at = NOW()
			WHERE id = $1 AND is_active`, action.AlertID)
			if err != nil {
				return fmt.Errorf("failed to resolve alert %s: %w", action.AlertID, err)
			}
		case models.ActionNoOp:
			// Equivalent active alert already exists; nothing to persist.
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit alert transaction: %w", err)
	}
	return nil
}

// ResolveAlert flips one alert inactive by operator action.
func (d *DB) ResolveAlert(ctx context.Context, id string) error {
	tag, err := d.Pool.Exec(ctx, `
	UPDATE alerts SET is_active = FALSE, resolved_at = NOW()
	WHERE id = $1 AND is_active`, id)
	if err != nil {
		return fmt.Errorf("failed to resolve alert %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no active alert with id %s", id)
	}
	return nil
}
