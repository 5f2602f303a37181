package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/propernest/lettings/internal/domain"
)

type NotificationRepository interface {
	Create(ctx context.Context, userID int64, title, message string) (*domain.Notification, error)
	FindByID(ctx context.Context, id int64) (*domain.Notification, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error)
	ListAll(ctx context.Context, limit, offset int) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id int64) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

const notificationCols = `id, user_id, title, message, status, created_at, updated_at`

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Status, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepository) Create(ctx context.Context, userID int64, title, message string) (*domain.Notification, error) {
	const q = `
		INSERT INTO notifications (user_id, title, message, status)
		VALUES ($1, $2, $3, 'unread')
		RETURNING ` + notificationCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return scanNotification(r.pool.QueryRow(ctx, q, userID, title, message))
}

func (r *notificationRepository) FindByID(ctx context.Context, id int64) (*domain.Notification, error) {
	const q = `SELECT ` + notificationCols + ` FROM notifications WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	n, err := scanNotification(r.pool.QueryRow(ctx, q, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return n, err
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	const q = `SELECT ` + notificationCols + ` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (r *notificationRepository) ListAll(ctx context.Context, limit, offset int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	const q = `SELECT ` + notificationCols + ` FROM notifications ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectNotifications(rows)
}

func (r *notificationRepository) MarkRead(ctx context.Context, id int64) error {
	const q = `UPDATE notifications SET status = 'read', updated_at = now() WHERE id = $1`
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

func collectNotifications(rows pgx.Rows) ([]domain.Notification, error) {
	var notifications []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, rows.Err()
}
