package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"push-service/internal/models"
)

// GetPreference returns the user's push preferences, or nil when none are stored.
func (d *DB) GetPreference(ctx context.Context, userID string) (*models.PreferenceRecord, error) {
	query := `
	SELECT push_enabled, quiet_hours_start, quiet_hours_end
	FROM notification_preferences
	WHERE user_id = $1`

	var pref models.PreferenceRecord
	err := d.conn.QueryRow(ctx, query, userID).Scan(
		&pref.PushEnabled,
		&pref.QuietHoursStart,
		&pref.QuietHoursEnd,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get preferences for user %s: %w", userID, err)
	}
	return &pref, nil
}
