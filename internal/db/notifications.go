package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"push-service/internal/models"
)

// RecordAttempt writes one audit row for a processed push request.
func (d *DB) RecordAttempt(ctx context.Context, userID string, succeeded bool, errorSummary string) error {
	status := models.LogStatusSent
	if !succeeded {
		status = models.LogStatusFailed
	}
	var errMsg *string
	if errorSummary != "" {
		errMsg = &errorSummary
	}

	query := `
	INSERT INTO notification_logs (id, user_id, status, error_message, created_at)
	VALUES ($1, $2, $3, $4, $5)`
	_, err := d.conn.Exec(ctx, query, uuid.New(), userID, status, errMsg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert notification log: %w", err)
	}
	return nil
}

// GetNotificationLogs returns the newest audit rows for a user.
func (d *DB) GetNotificationLogs(ctx context.Context, userID string, limit, offset int) ([]models.NotificationLog, error) {
	query := `
	SELECT id, user_id, status, error_message, created_at
	FROM notification_logs
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT $2 OFFSET $3`

	rows, err := d.conn.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification logs for user %s: %w", userID, err)
	}
	defer rows.Close()

	var logs []models.NotificationLog
	for rows.Next() {
		var l models.NotificationLog
		var id pgtype.UUID
		if err := rows.Scan(&id, &l.UserID, &l.Status, &l.ErrorMessage, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification log: %w", err)
		}
		l.ID = uuid.UUID(id.Bytes).String()
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read notification logs: %w", err)
	}
	return logs, nil
}
