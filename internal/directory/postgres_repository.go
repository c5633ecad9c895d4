package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository serves the roster from the relational database.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("directory: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// GetProvider implements Repository.
func (r *PostgresRepository) GetProvider(ctx context.Context, id string) (*Provider, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, provider_type, location_id, accepts_virtual, scheduling_access
		FROM providers
		WHERE id = $1
	`, id)
	var p Provider
	if err := row.Scan(&p.ID, &p.Name, &p.Type, &p.LocationID, &p.AcceptsVirtual, &p.SchedulingAccess); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("directory: select provider: %w", err)
	}
	return &p, nil
}

// ListProviders implements Repository. An empty providerType lists everyone.
func (r *PostgresRepository) ListProviders(ctx context.Context, providerType ProviderType) ([]Provider, error) {
	query := `
		SELECT id, name, provider_type, location_id, accepts_virtual, scheduling_access
		FROM providers
	`
	args := []any{}
	if providerType != "" {
		query += ` WHERE provider_type = $1`
		args = append(args, providerType)
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("directory: list providers: %w", err)
	}
	defer rows.Close()

	var out []Provider
	for rows.Next() {
		var p Provider
		if err := rows.Scan(&p.ID, &p.Name, &p.Type, &p.LocationID, &p.AcceptsVirtual, &p.SchedulingAccess); err != nil {
			return nil, fmt.Errorf("directory: scan provider: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetLocation implements Repository.
func (r *PostgresRepository) GetLocation(ctx context.Context, id string) (*Location, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, address, city, state, zip, timezone
		FROM locations
		WHERE id = $1
	`, id)
	var l Location
	if err := row.Scan(&l.ID, &l.Name, &l.Address, &l.City, &l.State, &l.Zip, &l.Timezone); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("directory: select location: %w", err)
	}
	return &l, nil
}

// ListLocations implements Repository.
func (r *PostgresRepository) ListLocations(ctx context.Context) ([]Location, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, address, city, state, zip, timezone
		FROM locations
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("directory: list locations: %w", err)
	}
	defer rows.Close()

	var out []Location
	for rows.Next() {
		var l Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Address, &l.City, &l.State, &l.Zip, &l.Timezone); err != nil {
			return nil, fmt.Errorf("directory: scan location: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
