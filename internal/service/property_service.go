package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/propernest/lettings/internal/domain"
	"github.com/propernest/lettings/internal/mailer"
	"github.com/propernest/lettings/internal/repository"
	"github.com/propernest/lettings/pkg/cache"
	"github.com/propernest/lettings/pkg/events"
	"github.com/propernest/lettings/pkg/logger"
)

const (
	allPropertiesKey   = "properties:all"
	ownerPropertiesKey = "properties:owner:%d"
	propertyCacheTTL   = time.Hour
)

type PropertyService interface {
	Add(ctx context.Context, owner *domain.User, req *domain.CreatePropertyRequest) (*domain.Property, error)
	Get(ctx context.Context, id int64) (*domain.Property, error)
	ListAll(ctx context.Context) ([]domain.Property, error)
	List(ctx context.Context, limit, offset int) ([]domain.Property, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Property, error)
}

type propertyService struct {
	propertyRepo     repository.PropertyRepository
	notificationRepo repository.NotificationRepository
	cache            cache.Cache
	mailer           mailer.Service
	eventBus         events.Publisher
}

func NewPropertyService(
	propertyRepo repository.PropertyRepository,
	notificationRepo repository.NotificationRepository,
	c cache.Cache,
	mail mailer.Service,
	eventBus events.Publisher,
) PropertyService {
	return &propertyService{
		propertyRepo:     propertyRepo,
		notificationRepo: notificationRepo,
		cache:            c,
		mailer:           mail,
		eventBus:         eventBus,
	}
}

func (s *propertyService) Add(ctx context.Context, owner *domain.User, req *domain.CreatePropertyRequest) (*domain.Property, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	property, err := s.propertyRepo.Create(ctx, owner.ID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	// Cached listings are stale now; drop them and let the next read
	// repopulate.
	s.invalidate(ctx, allPropertiesKey)
	s.invalidate(ctx, fmt.Sprintf(ownerPropertiesKey, owner.ID))

	title := "Property listed"
	message := fmt.Sprintf("Your property at %s is now listed", property.Address)
	if _, err := s.notificationRepo.Create(ctx, owner.ID, title, message); err != nil {
		logger.ErrorContext(ctx, "Failed to create listing notification", "error", err, "property_id", property.ID)
	}

	if err := s.mailer.SendPropertyConfirmation(owner.Email, owner.FullName(), property.Address); err != nil {
		logger.ErrorContext(ctx, "Failed to send listing confirmation email", "error", err, "property_id", property.ID)
	}

	if err := s.eventBus.Publish(ctx, events.PropertyListed, events.PropertyListedEvent{
		PropertyID: property.ID,
		OwnerID:    owner.ID,
		Address:    property.Address,
		ListedAt:   property.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish property listed event", "error", err, "property_id", property.ID)
	}

	return property, nil
}

func (s *propertyService) Get(ctx context.Context, id int64) (*domain.Property, error) {
	property, err := s.propertyRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find property: %w", err)
	}
	if property == nil {
		return nil, fmt.Errorf("%w: property", domain.ErrNotFound)
	}
	return property, nil
}

// ListAll serves the public listing from redis when it can, falling
// back to the store on a miss or an unreadable cache entry.
func (s *propertyService) ListAll(ctx context.Context) ([]domain.Property, error) {
	if cached, ok := s.fromCache(ctx, allPropertiesKey); ok {
		return cached, nil
	}

	properties, err := s.propertyRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	s.toCache(ctx, allPropertiesKey, properties)
	return properties, nil
}

// List is the paginated, uncached path for explicit page requests.
func (s *propertyService) List(ctx context.Context, limit, offset int) ([]domain.Property, error) {
	properties, err := s.propertyRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return properties, nil
}

func (s *propertyService) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Property, error) {
	key := fmt.Sprintf(ownerPropertiesKey, ownerID)
	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	properties, err := s.propertyRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owner properties: %w", err)
	}

	s.toCache(ctx, key, properties)
	return properties, nil
}

func (s *propertyService) fromCache(ctx context.Context, key string) ([]domain.Property, bool) {
	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logger.WarnContext(ctx, "Property cache read failed", "error", err, "key", key)
		}
		return nil, false
	}

	var properties []domain.Property
	if err := json.Unmarshal([]byte(payload), &properties); err != nil {
		logger.WarnContext(ctx, "Property cache entry unreadable", "error", err, "key", key)
		return nil, false
	}
	return properties, true
}

func (s *propertyService) toCache(ctx context.Context, key string, properties []domain.Property) {
	payload, err := json.Marshal(properties)
	if err != nil {
		logger.WarnContext(ctx, "Failed to marshal properties for cache", "error", err, "key", key)
		return
	}
	if err := s.cache.Set(ctx, key, string(payload), propertyCacheTTL); err != nil {
		logger.WarnContext(ctx, "Property cache write failed", "error", err, "key", key)
	}
}

func (s *propertyService) invalidate(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		logger.WarnContext(ctx, "Property cache invalidation failed", "error", err, "key", key)
	}
}
