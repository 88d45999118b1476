package db

import (
	"context"
	"fmt"
)

// RemoveEndpoints drops dead registration tokens from the user's stored
// device list, keeping the order of the remaining ones.
func (d *DB) RemoveEndpoints(ctx context.Context, userID string, endpoints []string) error {
	if len(endpoints) == 0 {
		return nil
	}
	query := `
	UPDATE profiles
	SET device_tokens = ARRAY(
	        SELECT t FROM unnest(device_tokens) WITH ORDINALITY AS u(t, ord)
	        WHERE t <> ALL($2::text[])
	        ORDER BY ord
	    ),
	    updated_at = NOW()
	WHERE id = $1`

	if _, err := d.conn.Exec(ctx, query, userID, endpoints); err != nil {
		return fmt.Errorf("failed to remove %d device tokens for user %s: %w", len(endpoints), userID, err)
	}
	return nil
}
