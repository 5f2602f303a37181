package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/propernest/lettings/internal/domain"
)

type PropertyRepository interface {
	Create(ctx context.Context, ownerID int64, req *domain.CreatePropertyRequest) (*domain.Property, error)
	FindByID(ctx context.Context, id int64) (*domain.Property, error)
	ListAll(ctx context.Context) ([]domain.Property, error)
	List(ctx context.Context, limit, offset int) ([]domain.Property, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Property, error)
	OwnedIDs(ctx context.Context, ownerID int64) ([]int64, error)
}

type propertyRepository struct {
	pool *pgxpool.Pool
}

func NewPropertyRepository(pool *pgxpool.Pool) PropertyRepository {
	return &propertyRepository{pool: pool}
}

const propertyCols = `id, address, availability, category, description, location,
phone, price, year_built, created_by, created_at, updated_at`

const prefixedPropertyCols = `p.id, p.address, p.availability, p.category, p.description, p.location,
p.phone, p.price, p.year_built, p.created_by, p.created_at, p.updated_at`

func scanProperty(row pgx.Row) (*domain.Property, error) {
	var p domain.Property
	err := row.Scan(
		&p.ID, &p.Address, &p.Availability, &p.Category, &p.Description, &p.Location,
		&p.Phone, &p.Price, &p.YearBuilt, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *propertyRepository) Create(ctx context.Context, ownerID int64, req *domain.CreatePropertyRequest) (*domain.Property, error) {
	const q = `
		INSERT INTO properties (address, availability, category, description, location, phone, price, year_built, created_by)
		VALUES ($1, 'available', $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + propertyCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanProperty(r.pool.QueryRow(ctx, q,
		req.Address, req.Category, req.Description, req.Location,
		req.Phone, req.Price, req.YearBuilt, ownerID,
	))
}

func (r *propertyRepository) FindByID(ctx context.Context, id int64) (*domain.Property, error) {
	const q = `SELECT ` + propertyCols + ` FROM properties WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := scanProperty(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// ListAll returns every listing; the public catalogue is cached whole.
func (r *propertyRepository) ListAll(ctx context.Context) ([]domain.Property, error) {
	const q = `SELECT ` + propertyCols + ` FROM properties ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProperties(rows)
}

func (r *propertyRepository) List(ctx context.Context, limit, offset int) ([]domain.Property, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + propertyCols + ` FROM properties ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProperties(rows)
}

func (r *propertyRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Property, error) {
	const q = `SELECT ` + propertyCols + ` FROM properties WHERE created_by = $1 ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectProperties(rows)
}

// OwnedIDs returns just the property ids for an owner; the owner
// viewing-request listing fans out through this set.
func (r *propertyRepository) OwnedIDs(ctx context.Context, ownerID int64) ([]int64, error) {
	const q = `SELECT id FROM properties WHERE created_by = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func collectProperties(rows pgx.Rows) ([]domain.Property, error) {
	var properties []domain.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, *p)
	}
	return properties, rows.Err()
}
