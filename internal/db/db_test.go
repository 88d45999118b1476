package db

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"push-service/internal/models"
)

type execCall struct {
	sql  string
	args []any
}

type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

type fakeConn struct {
	execs   []execCall
	execErr error
	row     fakeRow
}

func (f *fakeConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("UPDATE 1"), f.execErr
}

func (f *fakeConn) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (f *fakeConn) QueryRow(context.Context, string, ...any) pgx.Row {
	return f.row
}

func TestGetPreferenceMissing(t *testing.T) {
	d := &DB{conn: &fakeConn{row: fakeRow{scan: func(...any) error { return pgx.ErrNoRows }}}}

	pref, err := d.GetPreference(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Nil(t, pref)
}

func TestGetPreferenceFound(t *testing.T) {
	start, end := "22:00", "06:00"
	d := &DB{conn: &fakeConn{row: fakeRow{scan: func(dest ...any) error {
		*dest[0].(*bool) = true
		*dest[1].(**string) = &start
		*dest[2].(**string) = &end
		return nil
	}}}}

	pref, err := d.GetPreference(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, pref)
	assert.True(t, pref.PushEnabled)
	assert.Equal(t, "22:00", *pref.QuietHoursStart)
	assert.Equal(t, "06:00", *pref.QuietHoursEnd)
}

func TestGetPreferenceError(t *testing.T) {
	boom := errors.New("connection reset")
	d := &DB{conn: &fakeConn{row: fakeRow{scan: func(...any) error { return boom }}}}

	_, err := d.GetPreference(context.Background(), "user-1")
	require.ErrorIs(t, err, boom)
}

func TestRemoveEndpoints(t *testing.T) {
	conn := &fakeConn{}
	d := &DB{conn: conn}

	require.NoError(t, d.RemoveEndpoints(context.Background(), "user-1", nil))
	assert.Empty(t, conn.execs)

	require.NoError(t, d.RemoveEndpoints(context.Background(), "user-1", []string{"dead-1", "dead-2"}))
	require.Len(t, conn.execs, 1)
	assert.True(t, strings.Contains(conn.execs[0].sql, "UPDATE profiles"))
	assert.Equal(t, []any{"user-1", []string{"dead-1", "dead-2"}}, conn.execs[0].args)
}

func TestRemoveEndpointsWrapsError(t *testing.T) {
	boom := errors.New("deadlock")
	d := &DB{conn: &fakeConn{execErr: boom}}

	err := d.RemoveEndpoints(context.Background(), "user-1", []string{"x"})
	require.ErrorIs(t, err, boom)
}

func TestRecordAttempt(t *testing.T) {
	conn := &fakeConn{}
	d := &DB{conn: conn}

	require.NoError(t, d.RecordAttempt(context.Background(), "user-1", true, ""))
	require.NoError(t, d.RecordAttempt(context.Background(), "user-1", false, "2 of 2 deliveries failed"))
	require.Len(t, conn.execs, 2)

	sent := conn.execs[0].args
	assert.Equal(t, "user-1", sent[1])
	assert.Equal(t, models.LogStatusSent, sent[2])
	assert.Nil(t, sent[3])

	failed := conn.execs[1].args
	assert.Equal(t, models.LogStatusFailed, failed[2])
	require.NotNil(t, failed[3])
	assert.Equal(t, "2 of 2 deliveries failed", *failed[3].(*string))
}

func TestRecordAlert(t *testing.T) {
	conn := &fakeConn{}
	d := &DB{conn: conn}
	distance := 1.2

	stored, err := d.RecordAlert(context.Background(), models.Alert{
		UserID:     "user-1",
		IssueID:    "issue-7",
		DistanceKm: &distance,
		Title:      "t",
		Message:    "m",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())

	require.Len(t, conn.execs, 1)
	args := conn.execs[0].args
	assert.Equal(t, stored.ID, args[0])
	assert.Equal(t, "issue-7", args[2])
	assert.Equal(t, &distance, args[3])
}
