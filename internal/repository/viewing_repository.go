package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/propernest/lettings/internal/domain"
)

type ViewingRepository interface {
	CreatePending(ctx context.Context, req *domain.ViewingRequest) (*domain.ViewingRequest, error)
	FindPendingByID(ctx context.Context, id int64) (*domain.ViewingRequest, error)
	PendingExists(ctx context.Context, userID, propertyID int64) (bool, error)
	DeletePending(ctx context.Context, id int64) error
	ListPendingByRequester(ctx context.Context, userID int64) ([]domain.ViewingRequest, error)
	ListPendingByProperty(ctx context.Context, propertyID int64) ([]domain.ViewingRequest, error)
	ListPendingByProperties(ctx context.Context, propertyIDs []int64) ([]domain.ViewingRequest, error)
	CreateDecided(ctx context.Context, rec *domain.DecidedRequest) (*domain.DecidedRequest, error)
	ListDecidedByOwner(ctx context.Context, ownerID int64) ([]domain.DecidedRequest, error)
}

type viewingRepository struct {
	pool *pgxpool.Pool
}

func NewViewingRepository(pool *pgxpool.Pool) ViewingRepository {
	return &viewingRepository{pool: pool}
}

const pendingCols = `id, user_id, property_id, owner_id, preferred_date, viewing_type, created_at, updated_at`

func scanPending(row pgx.Row) (*domain.ViewingRequest, error) {
	var v domain.ViewingRequest
	err := row.Scan(
		&v.ID, &v.UserID, &v.PropertyID, &v.OwnerID,
		&v.PreferredDate, &v.ViewingType, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// CreatePending inserts a pending request. The unique index on
// (user_id, property_id) is the authoritative duplicate guard; a
// violation surfaces as ErrDuplicateRequest.
func (r *viewingRepository) CreatePending(ctx context.Context, req *domain.ViewingRequest) (*domain.ViewingRequest, error) {
	const q = `
		INSERT INTO viewing_requests (user_id, property_id, owner_id, preferred_date, viewing_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + pendingCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanPending(r.pool.QueryRow(ctx, q,
		req.UserID, req.PropertyID, req.OwnerID, req.PreferredDate, req.ViewingType,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrDuplicateRequest
		}
		return nil, err
	}
	return v, nil
}

func (r *viewingRepository) FindPendingByID(ctx context.Context, id int64) (*domain.ViewingRequest, error) {
	const q = `SELECT ` + pendingCols + ` FROM viewing_requests WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanPending(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (r *viewingRepository) PendingExists(ctx context.Context, userID, propertyID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM viewing_requests WHERE user_id = $1 AND property_id = $2)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, userID, propertyID).Scan(&exists)
	return exists, err
}

func (r *viewingRepository) DeletePending(ctx context.Context, id int64) error {
	const q = `DELETE FROM viewing_requests WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *viewingRepository) ListPendingByRequester(ctx context.Context, userID int64) ([]domain.ViewingRequest, error) {
	const q = `SELECT ` + pendingCols + ` FROM viewing_requests WHERE user_id = $1 ORDER BY created_at DESC`
	return r.listPending(ctx, q, userID)
}

func (r *viewingRepository) ListPendingByProperty(ctx context.Context, propertyID int64) ([]domain.ViewingRequest, error) {
	const q = `SELECT ` + pendingCols + ` FROM viewing_requests WHERE property_id = $1 ORDER BY created_at DESC`
	return r.listPending(ctx, q, propertyID)
}

func (r *viewingRepository) ListPendingByProperties(ctx context.Context, propertyIDs []int64) ([]domain.ViewingRequest, error) {
	if len(propertyIDs) == 0 {
		return nil, nil
	}
	const q = `SELECT ` + pendingCols + ` FROM viewing_requests WHERE property_id = ANY($1) ORDER BY created_at DESC`
	return r.listPending(ctx, q, propertyIDs)
}

func (r *viewingRepository) listPending(ctx context.Context, q string, args ...any) ([]domain.ViewingRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []domain.ViewingRequest
	for rows.Next() {
		v, err := scanPending(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *v)
	}
	return requests, rows.Err()
}

const decidedCols = `id, user_id, property_id, owner_id, preferred_date, viewing_type, decision, decided_at`

func (r *viewingRepository) CreateDecided(ctx context.Context, rec *domain.DecidedRequest) (*domain.DecidedRequest, error) {
	const q = `
		INSERT INTO decided_requests (user_id, property_id, owner_id, preferred_date, viewing_type, decision, decided_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + decidedCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var d domain.DecidedRequest
	err := r.pool.QueryRow(ctx, q,
		rec.UserID, rec.PropertyID, rec.OwnerID, rec.PreferredDate,
		rec.ViewingType, rec.Decision, rec.DecidedAt,
	).Scan(
		&d.ID, &d.UserID, &d.PropertyID, &d.OwnerID,
		&d.PreferredDate, &d.ViewingType, &d.Decision, &d.DecidedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *viewingRepository) ListDecidedByOwner(ctx context.Context, ownerID int64) ([]domain.DecidedRequest, error) {
	const q = `SELECT ` + decidedCols + ` FROM decided_requests WHERE owner_id = $1 ORDER BY decided_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.DecidedRequest
	for rows.Next() {
		var d domain.DecidedRequest
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.PropertyID, &d.OwnerID,
			&d.PreferredDate, &d.ViewingType, &d.Decision, &d.DecidedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, d)
	}
	return records, rows.Err()
}
