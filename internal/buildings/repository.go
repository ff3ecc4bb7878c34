package buildings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/residence-hub/residence/internal/platform/db"
)

// Repository defines persistence operations for buildings.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Building, int, error)
	Get(ctx context.Context, id int64) (Building, error)
	Create(ctx context.Context, b Building) (Building, error)
	Update(ctx context.Context, b Building) (Building, error)
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const buildingColumns = `id, code, name, address, floor_count, created_at, updated_at`

// List returns one page of buildings ordered by code, plus the total match count.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Building, int, error) {
	pattern := "%" + strings.TrimSpace(filter.Query) + "%"
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM buildings WHERE code ILIKE $1 OR name ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("buildings: count: %w", err)
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+buildingColumns+` FROM buildings
		WHERE code ILIKE $1 OR name ILIKE $1
		ORDER BY code
		LIMIT $2 OFFSET $3`, pattern, filter.PerPage, (filter.Page-1)*filter.PerPage)
	if err != nil {
		return nil, 0, fmt.Errorf("buildings: list: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Building, error) {
		return scanBuilding(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("buildings: list: %w", err)
	}
	return items, total, nil
}

// Get fetches a building by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (Building, error) {
	return scanOne(r.pool.QueryRow(ctx, `SELECT `+buildingColumns+` FROM buildings WHERE id = $1`, id))
}

// Create inserts a building and returns the stored row.
func (r *PGRepository) Create(ctx context.Context, b Building) (Building, error) {
	created, err := scanOne(r.pool.QueryRow(ctx, `
		INSERT INTO buildings (code, name, address, floor_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING `+buildingColumns,
		b.Code, b.Name, b.Address, b.FloorCount))
	if err != nil {
		return Building{}, mapWriteError(err)
	}
	return created, nil
}

// Update replaces a building's editable fields.
func (r *PGRepository) Update(ctx context.Context, b Building) (Building, error) {
	updated, err := scanOne(r.pool.QueryRow(ctx, `
		UPDATE buildings SET code = $2, name = $3, address = $4, floor_count = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+buildingColumns,
		b.ID, b.Code, b.Name, b.Address, b.FloorCount))
	if err != nil {
		return Building{}, mapWriteError(err)
	}
	return updated, nil
}

// Delete removes a building that has no floors left.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var floors int
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM floors WHERE building_id = $1`, id).Scan(&floors); err != nil {
			return fmt.Errorf("buildings: count floors: %w", err)
		}
		if floors > 0 {
			return ErrInUse
		}
		tag, err := tx.Exec(ctx, `DELETE FROM buildings WHERE id = $1`, id)
		if err != nil {
			return mapWriteError(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func scanOne(row pgx.Row) (Building, error) {
	b, err := scanBuilding(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Building{}, ErrNotFound
		}
		return Building{}, err
	}
	return b, nil
}

func scanBuilding(row pgx.Row) (Building, error) {
	var b Building
	err := row.Scan(&b.ID, &b.Code, &b.Name, &b.Address, &b.FloorCount, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicateCode
		case "23503":
			return ErrInUse
		}
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("buildings: write: %w", err)
}

var _ Repository = (*PGRepository)(nil)
