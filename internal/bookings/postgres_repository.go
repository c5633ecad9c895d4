package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebridge/patient-scheduler/internal/calendar"
)

// pgxQuerier is the slice of pgxpool.Pool this repo needs; pgxmock satisfies
// it in tests.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores bookings in the relational database.
type PostgresRepository struct {
	db pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &PostgresRepository{db: pool}
}

func newPostgresRepositoryWithDB(db pgxQuerier) *PostgresRepository {
	if db == nil {
		panic("bookings: db required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a confirmed booking row.
func (r *PostgresRepository) Create(ctx context.Context, b *Booking) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO bookings (
			id, provider_id, location_id, start_at, end_at, mode, visit_reason_code,
			patient_first_name, patient_last_name, patient_dob, patient_phone, patient_email, notes, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at
	`,
		b.ID, b.ProviderID, b.LocationID, b.Start, b.End, b.Mode, b.VisitReasonCode,
		b.Patient.FirstName, b.Patient.LastName, b.Patient.DOB, b.Patient.Phone, b.Patient.Email, b.Patient.Notes, b.Status,
	).Scan(&b.CreatedAt)
	if err != nil {
		return fmt.Errorf("bookings: insert failed: %w", err)
	}
	return nil
}

// GetByID fetches a booking by id.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, provider_id, location_id, start_at, end_at, mode, visit_reason_code,
		       patient_first_name, patient_last_name, patient_dob, patient_phone, patient_email, notes, status, created_at
		FROM bookings
		WHERE id = $1
	`, id)

	var b Booking
	if err := row.Scan(
		&b.ID, &b.ProviderID, &b.LocationID, &b.Start, &b.End, &b.Mode, &b.VisitReasonCode,
		&b.Patient.FirstName, &b.Patient.LastName, &b.Patient.DOB, &b.Patient.Phone, &b.Patient.Email, &b.Patient.Notes, &b.Status, &b.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: select failed: %w", err)
	}
	return &b, nil
}

// IsBooked reports whether a confirmed booking covers the slot key.
func (r *PostgresRepository) IsBooked(ctx context.Context, key calendar.Key) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE provider_id = $1 AND start_at = $2 AND mode = $3 AND status = 'confirmed'
		)
	`, key.ProviderID, key.Start, key.Mode).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("bookings: exists check failed: %w", err)
	}
	return exists, nil
}

// ConfirmedKeys implements Repository.
func (r *PostgresRepository) ConfirmedKeys(ctx context.Context, providerIDs []string, mode calendar.VisitMode) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, `
		SELECT provider_id, start_at, mode
		FROM bookings
		WHERE provider_id = ANY($1) AND mode = $2 AND status = 'confirmed'
	`, providerIDs, mode)
	if err != nil {
		return nil, fmt.Errorf("bookings: list confirmed keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key calendar.Key
		if err := rows.Scan(&key.ProviderID, &key.Start, &key.Mode); err != nil {
			return nil, fmt.Errorf("bookings: scan confirmed key: %w", err)
		}
		keys[key.String()] = struct{}{}
	}
	return keys, rows.Err()
}
