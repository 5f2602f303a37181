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

type FavoriteRepository interface {
	Find(ctx context.Context, userID, propertyID int64) (*domain.Favorite, error)
	Create(ctx context.Context, userID, propertyID int64) (*domain.Favorite, error)
	Delete(ctx context.Context, userID, propertyID int64) error
	ListByUser(ctx context.Context, userID int64) ([]domain.FavoriteWithProperty, error)
}

type favoriteRepository struct {
	pool *pgxpool.Pool
}

func NewFavoriteRepository(pool *pgxpool.Pool) FavoriteRepository {
	return &favoriteRepository{pool: pool}
}

func scanFavorite(row pgx.Row) (*domain.Favorite, error) {
	var f domain.Favorite
	err := row.Scan(&f.ID, &f.UserID, &f.PropertyID, &f.AddedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *favoriteRepository) Find(ctx context.Context, userID, propertyID int64) (*domain.Favorite, error) {
	const q = `SELECT id, user_id, property_id, added_at FROM favorites WHERE user_id = $1 AND property_id = $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	f, err := scanFavorite(r.pool.QueryRow(ctx, q, userID, propertyID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return f, err
}

func (r *favoriteRepository) Create(ctx context.Context, userID, propertyID int64) (*domain.Favorite, error) {
	const q = `
		INSERT INTO favorites (user_id, property_id)
		VALUES ($1, $2)
		RETURNING id, user_id, property_id, added_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	f, err := scanFavorite(r.pool.QueryRow(ctx, q, userID, propertyID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.ErrConflict
		}
		return nil, err
	}
	return f, nil
}

func (r *favoriteRepository) Delete(ctx context.Context, userID, propertyID int64) error {
	const q = `DELETE FROM favorites WHERE user_id = $1 AND property_id = $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, userID, propertyID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *favoriteRepository) ListByUser(ctx context.Context, userID int64) ([]domain.FavoriteWithProperty, error) {
	const q = `
		SELECT f.id, f.user_id, f.property_id, f.added_at, ` + prefixedPropertyCols + `
		FROM favorites f
		JOIN properties p ON p.id = f.property_id
		WHERE f.user_id = $1
		ORDER BY f.added_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var favorites []domain.FavoriteWithProperty
	for rows.Next() {
		var fp domain.FavoriteWithProperty
		err := rows.Scan(
			&fp.ID, &fp.UserID, &fp.PropertyID, &fp.AddedAt,
			&fp.Property.ID, &fp.Property.Address, &fp.Property.Availability, &fp.Property.Category,
			&fp.Property.Description, &fp.Property.Location, &fp.Property.Phone, &fp.Property.Price,
			&fp.Property.YearBuilt, &fp.Property.CreatedBy, &fp.Property.CreatedAt, &fp.Property.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		favorites = append(favorites, fp)
	}
	return favorites, rows.Err()
}
