package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/patient-scheduler/internal/calendar"
)

var testStart = time.Date(2026, time.September, 7, 9, 0, 0, 0, time.UTC)

func testBooking() *Booking {
	return &Booking{
		ID:              "appt_abc123",
		ProviderID:      "prov_1",
		LocationID:      "loc_1",
		Start:           testStart,
		End:             testStart.Add(calendar.SlotDuration),
		Mode:            calendar.ModeInPerson,
		VisitReasonCode: "PCP_ROUTINE",
		Patient: PatientDetails{
			FirstName: "Ada",
			LastName:  "Lovelace",
			DOB:       "1990-01-01",
			Phone:     "555-0100",
		},
		Status: StatusConfirmed,
	}
}

func TestInMemoryRepositoryCreateAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	b := testBooking()
	require.NoError(t, repo.Create(ctx, b))

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ProviderID, got.ProviderID)
	assert.Equal(t, b.Patient.FirstName, got.Patient.FirstName)

	_, err = repo.GetByID(ctx, "appt_missing")
	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestInMemoryRepositoryIsBooked(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	b := testBooking()
	require.NoError(t, repo.Create(ctx, b))

	booked, err := repo.IsBooked(ctx, b.Key())
	require.NoError(t, err)
	assert.True(t, booked)

	other := b.Key()
	other.Mode = calendar.ModeVirtual
	booked, err = repo.IsBooked(ctx, other)
	require.NoError(t, err)
	assert.False(t, booked)
}

func TestInMemoryRepositoryConfirmedKeys(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	first := testBooking()
	require.NoError(t, repo.Create(ctx, first))

	second := testBooking()
	second.ID = "appt_def456"
	second.ProviderID = "prov_2"
	require.NoError(t, repo.Create(ctx, second))

	keys, err := repo.ConfirmedKeys(ctx, []string{"prov_1"}, calendar.ModeInPerson)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	_, ok := keys[first.Key().String()]
	assert.True(t, ok)

	keys, err = repo.ConfirmedKeys(ctx, []string{"prov_1", "prov_2"}, calendar.ModeInPerson)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func newMockRepo(t *testing.T) (*PostgresRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return newPostgresRepositoryWithDB(mock), mock
}

func TestPostgresRepositoryCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	b := testBooking()

	mock.ExpectQuery("INSERT INTO bookings").
		WithArgs(
			b.ID, b.ProviderID, b.LocationID, b.Start, b.End, b.Mode, b.VisitReasonCode,
			b.Patient.FirstName, b.Patient.LastName, b.Patient.DOB, b.Patient.Phone, b.Patient.Email, b.Patient.Notes, b.Status,
		).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))

	require.NoError(t, repo.Create(context.Background(), b))
	assert.False(t, b.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM bookings").
		WithArgs("appt_missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "appt_missing")
	require.ErrorIs(t, err, ErrBookingNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryIsBooked(t *testing.T) {
	repo, mock := newMockRepo(t)
	key := calendar.Key{ProviderID: "prov_1", Start: testStart, Mode: calendar.ModeInPerson}

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(key.ProviderID, key.Start, key.Mode).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	booked, err := repo.IsBooked(context.Background(), key)
	require.NoError(t, err)
	assert.True(t, booked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryConfirmedKeys(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT provider_id, start_at, mode").
		WithArgs([]string{"prov_1"}, calendar.ModeInPerson).
		WillReturnRows(pgxmock.NewRows([]string{"provider_id", "start_at", "mode"}).
			AddRow("prov_1", testStart, calendar.ModeInPerson).
			AddRow("prov_1", testStart.Add(calendar.SlotDuration), calendar.ModeInPerson))

	keys, err := repo.ConfirmedKeys(context.Background(), []string{"prov_1"}, calendar.ModeInPerson)
	require.NoError(t, err)
	assert.Len(t, keys, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}
