package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/propernest/lettings/internal/domain"
	"github.com/propernest/lettings/pkg/cache"
)

// SessionRepository stores a JSON snapshot of the authenticated user in
// redis under session:<user id>. A session must exist for a token to be
// honored; deleting the key logs the user out everywhere.
type SessionRepository interface {
	Save(ctx context.Context, user *domain.User, ttl time.Duration) error
	Find(ctx context.Context, userID int64) (*domain.User, error)
	Delete(ctx context.Context, userID int64) error
}

type sessionRepository struct {
	cache cache.Cache
}

func NewSessionRepository(c cache.Cache) SessionRepository {
	return &sessionRepository{cache: c}
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("session:%d", userID)
}

func (r *sessionRepository) Save(ctx context.Context, user *domain.User, ttl time.Duration) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return r.cache.Set(ctx, sessionKey(user.ID), string(payload), ttl)
}

func (r *sessionRepository) Find(ctx context.Context, userID int64) (*domain.User, error) {
	payload, err := r.cache.Get(ctx, sessionKey(userID))
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, nil
		}
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal([]byte(payload), &user); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &user, nil
}

func (r *sessionRepository) Delete(ctx context.Context, userID int64) error {
	return r.cache.Delete(ctx, sessionKey(userID))
}
