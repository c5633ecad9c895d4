package reservations

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/patient-scheduler/internal/calendar"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return newPostgresStoreWithDB(mock), mock
}

func existsRow(exists bool) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"exists"}).AddRow(exists)
}

func TestPostgresStoreClaimInsertsHold(t *testing.T) {
	store, mock := newMockStore(t)
	req := testClaimRequest()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM slot_holds").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs(req.ProviderID, req.Start, req.Mode).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery("consumed_at IS NOT NULL").
		WithArgs(req.ProviderID, req.Start, req.Mode).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery("expires_at >").
		WithArgs(req.ProviderID, req.Start, req.Mode, pgxmock.AnyArg()).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery("INSERT INTO slot_holds").
		WithArgs(pgxmock.AnyArg(), req.ProviderID, req.LocationID, req.Start, req.End, req.Mode, req.VisitReasonCode, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectCommit()

	hold, err := store.Claim(context.Background(), req, time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, hold.ID)
	assert.Equal(t, req.ProviderID, hold.ProviderID)
	assert.False(t, hold.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreClaimRejectsBookedSlot(t *testing.T) {
	store, mock := newMockStore(t)
	req := testClaimRequest()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM slot_holds").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs(req.ProviderID, req.Start, req.Mode).
		WillReturnRows(existsRow(true))
	mock.ExpectRollback()

	_, err := store.Claim(context.Background(), req, time.Minute)
	require.ErrorIs(t, err, ErrAlreadyBooked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreClaimRejectsConsumedHold(t *testing.T) {
	store, mock := newMockStore(t)
	req := testClaimRequest()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM slot_holds").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs(req.ProviderID, req.Start, req.Mode).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery("consumed_at IS NOT NULL").
		WithArgs(req.ProviderID, req.Start, req.Mode).
		WillReturnRows(existsRow(true))
	mock.ExpectRollback()

	_, err := store.Claim(context.Background(), req, time.Minute)
	require.ErrorIs(t, err, ErrAlreadyBooked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreClaimRejectsActiveHold(t *testing.T) {
	store, mock := newMockStore(t)
	req := testClaimRequest()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM slot_holds").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs(req.ProviderID, req.Start, req.Mode).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery("consumed_at IS NOT NULL").
		WithArgs(req.ProviderID, req.Start, req.Mode).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery("expires_at >").
		WithArgs(req.ProviderID, req.Start, req.Mode, pgxmock.AnyArg()).
		WillReturnRows(existsRow(true))
	mock.ExpectRollback()

	_, err := store.Claim(context.Background(), req, time.Minute)
	require.ErrorIs(t, err, ErrAlreadyReserved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreClaimMapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)
	req := testClaimRequest()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM slot_holds").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs(req.ProviderID, req.Start, req.Mode).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery("consumed_at IS NOT NULL").
		WithArgs(req.ProviderID, req.Start, req.Mode).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery("expires_at >").
		WithArgs(req.ProviderID, req.Start, req.Mode, pgxmock.AnyArg()).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery("INSERT INTO slot_holds").
		WithArgs(pgxmock.AnyArg(), req.ProviderID, req.LocationID, req.Start, req.End, req.Mode, req.VisitReasonCode, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err := store.Claim(context.Background(), req, time.Minute)
	require.ErrorIs(t, err, ErrAlreadyReserved)
	require.NoError(t, mock.ExpectationsWereMet())
}

func holdRow(expiresAt time.Time, consumedAt *time.Time) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"provider_id", "location_id", "start_at", "end_at", "mode", "visit_reason_code", "expires_at", "consumed_at", "created_at",
	}).AddRow(
		"prov_1", "loc_1", slotStart, slotStart.Add(calendar.SlotDuration),
		calendar.ModeInPerson, "PCP_ROUTINE", expiresAt, consumedAt, time.Now().UTC(),
	)
}

func TestPostgresStoreConsumeMarksHold(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("hold_abc123").
		WillReturnRows(holdRow(time.Now().UTC().Add(time.Minute), nil))
	mock.ExpectExec("UPDATE slot_holds SET consumed_at").
		WithArgs("hold_abc123", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	hold, err := store.Consume(context.Background(), "hold_abc123")
	require.NoError(t, err)
	require.NotNil(t, hold.ConsumedAt)
	assert.Equal(t, "prov_1", hold.ProviderID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreConsumeNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("hold_missing").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := store.Consume(context.Background(), "hold_missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreConsumeAlreadyConsumed(t *testing.T) {
	store, mock := newMockStore(t)

	consumedAt := time.Now().UTC().Add(-time.Minute)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("hold_abc123").
		WillReturnRows(holdRow(time.Now().UTC().Add(time.Minute), &consumedAt))
	mock.ExpectRollback()

	_, err := store.Consume(context.Background(), "hold_abc123")
	require.ErrorIs(t, err, ErrAlreadyConsumed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreConsumeExpired(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs("hold_abc123").
		WillReturnRows(holdRow(time.Now().UTC().Add(-time.Second), nil))
	mock.ExpectRollback()

	_, err := store.Consume(context.Background(), "hold_abc123")
	require.ErrorIs(t, err, ErrExpired)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSweepReportsReclaimed(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM slot_holds").
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	reclaimed, err := store.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, reclaimed)
	require.NoError(t, mock.ExpectationsWereMet())
}
