package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"push-service/internal/models"
)

// RecordAlert inserts an issue alert row. It generates a new UUID when the
// alert has none and returns the stored alert.
func (d *DB) RecordAlert(ctx context.Context, alert models.Alert) (models.Alert, error) {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO issue_alerts (
		id, user_id, issue_id, distance_km, title, message, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7
	)`

	_, err := d.conn.Exec(ctx, query,
		alert.ID,
		alert.UserID,
		alert.IssueID,
		alert.DistanceKm,
		alert.Title,
		alert.Message,
		alert.CreatedAt,
	)
	if err != nil {
		return models.Alert{}, fmt.Errorf("failed to insert alert: %w", err)
	}
	return alert, nil
}

// GetAlertsByUserID fetches alerts for a user with pagination.
func (d *DB) GetAlertsByUserID(ctx context.Context, userID string, limit, offset int) ([]models.Alert, int, error) {
	var total int
	countQ := `SELECT COUNT(*) FROM issue_alerts WHERE user_id = $1`
	if err := d.conn.QueryRow(ctx, countQ, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count alerts: %w", err)
	}

	query := `
	SELECT id, user_id, issue_id, distance_km, title, message, created_at
	FROM issue_alerts
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3`

	rows, err := d.conn.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get alerts: %w", err)
	}
	defer rows.Close()

	var list []models.Alert
	for rows.Next() {
		var alert models.Alert
		var id pgtype.UUID
		err := rows.Scan(
			&id,
			&alert.UserID,
			&alert.IssueID,
			&alert.DistanceKm,
			&alert.Title,
			&alert.Message,
			&alert.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan alert: %w", err)
		}
		alert.ID = uuid.UUID(id.Bytes).String()
		list = append(list, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read alerts: %w", err)
	}

	return list, total, nil
}
