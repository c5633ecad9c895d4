package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// txBeginner is the slice of pgxpool.Pool the store needs; pgxmock satisfies
// it in tests.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore persists holds in Postgres. Each operation runs in a single
// transaction; the partial unique index on (provider_id, start_at, mode)
// WHERE consumed_at IS NULL is the backstop that makes concurrent claims for
// one key resolve to a single insert.
type PostgresStore struct {
	db  txBeginner
	now func() time.Time
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("reservations: pgx pool required")
	}
	return &PostgresStore{db: pool, now: time.Now}
}

func newPostgresStoreWithDB(db txBeginner) *PostgresStore {
	if db == nil {
		panic("reservations: db required")
	}
	return &PostgresStore{db: db, now: time.Now}
}

// Claim implements Store.
func (s *PostgresStore) Claim(ctx context.Context, req ClaimRequest, ttl time.Duration) (*Reservation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("reservations: begin claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	now := s.now().UTC()

	// Reclaim lapsed holds first so the exclusivity checks below see only
	// live state. Running it inside the claim transaction is what lets an
	// expired hold's slot be re-claimed without a background sweeper.
	if _, err := tx.Exec(ctx, sweepSQL, now); err != nil {
		return nil, fmt.Errorf("reservations: sweep during claim: %w", err)
	}

	var booked bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE provider_id = $1 AND start_at = $2 AND mode = $3 AND status = 'confirmed'
		)
	`, req.ProviderID, req.Start, req.Mode).Scan(&booked)
	if err != nil {
		return nil, fmt.Errorf("reservations: check bookings: %w", err)
	}
	if booked {
		return nil, ErrAlreadyBooked
	}

	// A consumed hold means a finalize already won this key, even if its
	// booking row is not visible yet.
	var consumed bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM slot_holds
			WHERE provider_id = $1 AND start_at = $2 AND mode = $3 AND consumed_at IS NOT NULL
		)
	`, req.ProviderID, req.Start, req.Mode).Scan(&consumed)
	if err != nil {
		return nil, fmt.Errorf("reservations: check consumed holds: %w", err)
	}
	if consumed {
		return nil, ErrAlreadyBooked
	}

	var held bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM slot_holds
			WHERE provider_id = $1 AND start_at = $2 AND mode = $3
			  AND consumed_at IS NULL AND expires_at > $4
		)
	`, req.ProviderID, req.Start, req.Mode, now).Scan(&held)
	if err != nil {
		return nil, fmt.Errorf("reservations: check active holds: %w", err)
	}
	if held {
		return nil, ErrAlreadyReserved
	}

	hold := &Reservation{
		ID:              newHoldID(),
		ProviderID:      req.ProviderID,
		LocationID:      req.LocationID,
		Start:           req.Start,
		End:             req.End,
		Mode:            req.Mode,
		VisitReasonCode: req.VisitReasonCode,
		ExpiresAt:       now.Add(ttl),
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO slot_holds (id, provider_id, location_id, start_at, end_at, mode, visit_reason_code, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, hold.ID, hold.ProviderID, hold.LocationID, hold.Start, hold.End, hold.Mode, hold.VisitReasonCode, hold.ExpiresAt).Scan(&hold.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// Another claim committed between our check and our insert.
			return nil, ErrAlreadyReserved
		}
		return nil, fmt.Errorf("reservations: insert hold: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("reservations: commit claim: %w", err)
	}
	return hold, nil
}

// Consume implements Store. The row lock taken by FOR UPDATE serializes
// concurrent consumes of the same hold.
func (s *PostgresStore) Consume(ctx context.Context, id string) (*Reservation, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("reservations: begin consume tx: %w", err)
	}
	defer tx.Rollback(ctx)

	hold := Reservation{ID: id}
	err = tx.QueryRow(ctx, `
		SELECT provider_id, location_id, start_at, end_at, mode, visit_reason_code, expires_at, consumed_at, created_at
		FROM slot_holds
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&hold.ProviderID,
		&hold.LocationID,
		&hold.Start,
		&hold.End,
		&hold.Mode,
		&hold.VisitReasonCode,
		&hold.ExpiresAt,
		&hold.ConsumedAt,
		&hold.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("reservations: load hold: %w", err)
	}
	if hold.ConsumedAt != nil {
		return nil, ErrAlreadyConsumed
	}
	now := s.now().UTC()
	if !hold.ExpiresAt.After(now) {
		return nil, ErrExpired
	}

	if _, err := tx.Exec(ctx, `
		UPDATE slot_holds SET consumed_at = $2 WHERE id = $1
	`, id, now); err != nil {
		return nil, fmt.Errorf("reservations: mark consumed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("reservations: commit consume: %w", err)
	}

	hold.ConsumedAt = &now
	return &hold, nil
}

const sweepSQL = `DELETE FROM slot_holds WHERE consumed_at IS NULL AND expires_at < $1`

// Sweep implements Store.
func (s *PostgresStore) Sweep(ctx context.Context) (int, error) {
	ct, err := s.db.Exec(ctx, sweepSQL, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("reservations: sweep: %w", err)
	}
	return int(ct.RowsAffected()), nil
}
