package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/propernest/lettings/internal/domain"
	"github.com/propernest/lettings/internal/mailer"
	"github.com/propernest/lettings/internal/repository"
	"github.com/propernest/lettings/pkg/events"
	"github.com/propernest/lettings/pkg/logger"
)

type ViewingService interface {
	Create(ctx context.Context, requester *domain.User, req *domain.CreateViewingRequest) (*domain.ViewingRequest, error)
	Accept(ctx context.Context, actor *domain.User, requestID int64) (*domain.DecidedRequest, error)
	Reject(ctx context.Context, actor *domain.User, requestID int64) (*domain.DecidedRequest, error)
	Withdraw(ctx context.Context, actor *domain.User, requestID int64) error
	ListByRequester(ctx context.Context, userID int64) ([]domain.ViewingRequest, error)
	ListByProperty(ctx context.Context, actor *domain.User, propertyID int64) ([]domain.ViewingRequest, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.ViewingRequest, error)
	ListDecidedByOwner(ctx context.Context, ownerID int64) ([]domain.DecidedRequest, error)
}

type viewingService struct {
	viewingRepo      repository.ViewingRepository
	propertyRepo     repository.PropertyRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	mailer           mailer.Service
	eventBus         events.Publisher
	now              func() time.Time
}

func NewViewingService(
	viewingRepo repository.ViewingRepository,
	propertyRepo repository.PropertyRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	mailer mailer.Service,
	eventBus events.Publisher,
) ViewingService {
	return &viewingService{
		viewingRepo:      viewingRepo,
		propertyRepo:     propertyRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		mailer:           mailer,
		eventBus:         eventBus,
		now:              time.Now,
	}
}

func (s *viewingService) WithClock(now func() time.Time) *viewingService {
	s.now = now
	return s
}

func (s *viewingService) Create(ctx context.Context, requester *domain.User, req *domain.CreateViewingRequest) (*domain.ViewingRequest, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	property, err := s.propertyRepo.FindByID(ctx, req.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to find property: %w", err)
	}
	if property == nil {
		return nil, fmt.Errorf("%w: property", domain.ErrNotFound)
	}

	// The owner is snapshotted from the property's creator here and
	// never refreshed afterwards.
	if property.CreatedBy == 0 {
		return nil, domain.ErrOwnerUnresolvable
	}
	owner, err := s.userRepo.FindByID(ctx, property.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("failed to find property owner: %w", err)
	}
	if owner == nil {
		return nil, domain.ErrOwnerUnresolvable
	}

	exists, err := s.viewingRepo.PendingExists(ctx, requester.ID, property.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing request: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateRequest
	}

	pending := &domain.ViewingRequest{
		UserID:        requester.ID,
		PropertyID:    property.ID,
		OwnerID:       owner.ID,
		PreferredDate: domain.NormalizeDate(req.PreferredDate),
		ViewingType:   req.ViewingType,
	}

	// The unique index on (user_id, property_id) is the authoritative
	// guard; the exists check above only gives a friendlier fast path.
	created, err := s.viewingRepo.CreatePending(ctx, pending)
	if err != nil {
		return nil, err
	}

	s.fanOutRequested(ctx, created, requester, owner, property)

	return created, nil
}

// fanOutRequested delivers the notification, the two emails and the
// event for a new request. Every delivery is best-effort; the request
// itself is already stored.
func (s *viewingService) fanOutRequested(ctx context.Context, vr *domain.ViewingRequest, requester, owner *domain.User, property *domain.Property) {
	title := "Viewing request created"
	message := fmt.Sprintf("Your %s viewing request for %s on %s has been created",
		vr.ViewingType, property.Address, vr.PreferredDate.Format("2006-01-02"))
	if _, err := s.notificationRepo.Create(ctx, vr.UserID, title, message); err != nil {
		logger.ErrorContext(ctx, "Failed to create requester notification", "error", err, "request_id", vr.ID)
	}

	if err := s.mailer.SendViewingConfirmation(requester.Email, requester.FullName(), property.Address, vr.PreferredDate); err != nil {
		logger.ErrorContext(ctx, "Failed to send viewing confirmation", "error", err, "request_id", vr.ID)
	}
	if err := s.mailer.SendOwnerViewingAlert(owner.Email, owner.FullName(), requester.FullName(), property.Address, vr.PreferredDate); err != nil {
		logger.ErrorContext(ctx, "Failed to send owner viewing alert", "error", err, "request_id", vr.ID)
	}

	if err := s.eventBus.Publish(ctx, events.ViewingRequested, events.ViewingRequestedEvent{
		RequestID:     vr.ID,
		RequesterID:   vr.UserID,
		PropertyID:    vr.PropertyID,
		OwnerID:       vr.OwnerID,
		PreferredDate: vr.PreferredDate,
		ViewingType:   vr.ViewingType,
		RequestedAt:   vr.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish viewing requested event", "error", err, "request_id", vr.ID)
	}
}

func (s *viewingService) Accept(ctx context.Context, actor *domain.User, requestID int64) (*domain.DecidedRequest, error) {
	return s.decide(ctx, actor, requestID, domain.DecisionAccepted)
}

func (s *viewingService) Reject(ctx context.Context, actor *domain.User, requestID int64) (*domain.DecidedRequest, error) {
	return s.decide(ctx, actor, requestID, domain.DecisionRejected)
}

// decide moves a pending request into the terminal table. The terminal
// record is written first; a failed delete of the pending row is logged
// and retried by nobody, the unique index keeps a stale pending row
// from ever producing a second decision for the same pair.
func (s *viewingService) decide(ctx context.Context, actor *domain.User, requestID int64, decision domain.Decision) (*domain.DecidedRequest, error) {
	pending, err := s.viewingRepo.FindPendingByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to find viewing request: %w", err)
	}
	if pending == nil {
		return nil, fmt.Errorf("%w: viewing request", domain.ErrNotFound)
	}

	// Only the snapshotted owner decides; admins manage users and
	// properties but do not answer on a landlord's behalf.
	if actor.ID != pending.OwnerID {
		return nil, domain.ErrForbidden
	}

	rec := &domain.DecidedRequest{
		UserID:        pending.UserID,
		PropertyID:    pending.PropertyID,
		OwnerID:       pending.OwnerID,
		PreferredDate: pending.PreferredDate,
		ViewingType:   pending.ViewingType,
		Decision:      decision,
		DecidedAt:     s.now(),
	}

	decided, err := s.viewingRepo.CreateDecided(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to record decision: %w", err)
	}

	if err := s.viewingRepo.DeletePending(ctx, pending.ID); err != nil {
		logger.ErrorContext(ctx, "Failed to delete pending request after decision",
			"error", err, "request_id", pending.ID, "decision", string(decision))
	}

	s.fanOutDecided(ctx, decided, actor)

	return decided, nil
}

func (s *viewingService) fanOutDecided(ctx context.Context, rec *domain.DecidedRequest, owner *domain.User) {
	property, err := s.propertyRepo.FindByID(ctx, rec.PropertyID)
	if err != nil || property == nil {
		logger.ErrorContext(ctx, "Failed to load property for decision fan-out", "error", err, "property_id", rec.PropertyID)
	}
	address := ""
	if property != nil {
		address = property.Address
	}

	verb := "accepted"
	subject := events.ViewingAccepted
	if rec.Decision == domain.DecisionRejected {
		verb = "declined"
		subject = events.ViewingRejected
	}

	title := fmt.Sprintf("Viewing request %s", verb)
	message := fmt.Sprintf("Your viewing request for %s on %s was %s",
		address, rec.PreferredDate.Format("2006-01-02"), verb)
	if _, err := s.notificationRepo.Create(ctx, rec.UserID, title, message); err != nil {
		logger.ErrorContext(ctx, "Failed to create requester notification", "error", err, "request_id", rec.ID)
	}

	requester, err := s.userRepo.FindByID(ctx, rec.UserID)
	if err != nil || requester == nil {
		logger.ErrorContext(ctx, "Failed to load requester for decision email", "error", err, "user_id", rec.UserID)
	} else if err := s.mailer.SendViewingDecision(requester.Email, requester.FullName(), address, rec.PreferredDate, rec.Decision); err != nil {
		logger.ErrorContext(ctx, "Failed to send decision email", "error", err, "request_id", rec.ID)
	}

	if err := s.eventBus.Publish(ctx, subject, events.ViewingDecidedEvent{
		RequestID:   rec.ID,
		RequesterID: rec.UserID,
		PropertyID:  rec.PropertyID,
		OwnerID:     rec.OwnerID,
		DecidedAt:   rec.DecidedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish viewing decision event", "error", err, "request_id", rec.ID)
	}
}

func (s *viewingService) Withdraw(ctx context.Context, actor *domain.User, requestID int64) error {
	pending, err := s.viewingRepo.FindPendingByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("failed to find viewing request: %w", err)
	}
	if pending == nil {
		return fmt.Errorf("%w: viewing request", domain.ErrNotFound)
	}

	if actor.ID != pending.UserID && actor.Role != domain.RoleAdmin {
		return domain.ErrForbidden
	}

	if err := s.viewingRepo.DeletePending(ctx, pending.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: viewing request", domain.ErrNotFound)
		}
		return fmt.Errorf("failed to delete viewing request: %w", err)
	}

	if err := s.eventBus.Publish(ctx, events.ViewingWithdrawn, events.ViewingDecidedEvent{
		RequestID:   pending.ID,
		RequesterID: pending.UserID,
		PropertyID:  pending.PropertyID,
		OwnerID:     pending.OwnerID,
		DecidedAt:   s.now(),
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish viewing withdrawn event", "error", err, "request_id", pending.ID)
	}

	return nil
}

func (s *viewingService) ListByRequester(ctx context.Context, userID int64) ([]domain.ViewingRequest, error) {
	requests, err := s.viewingRepo.ListPendingByRequester(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list viewing requests: %w", err)
	}
	return requests, nil
}

func (s *viewingService) ListByProperty(ctx context.Context, actor *domain.User, propertyID int64) ([]domain.ViewingRequest, error) {
	property, err := s.propertyRepo.FindByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to find property: %w", err)
	}
	if property == nil {
		return nil, fmt.Errorf("%w: property", domain.ErrNotFound)
	}
	if actor.ID != property.CreatedBy && actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	requests, err := s.viewingRepo.ListPendingByProperty(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list viewing requests: %w", err)
	}
	return requests, nil
}

// ListByOwner collects the pending requests across every property the
// owner has listed.
func (s *viewingService) ListByOwner(ctx context.Context, ownerID int64) ([]domain.ViewingRequest, error) {
	ids, err := s.propertyRepo.OwnedIDs(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned properties: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	requests, err := s.viewingRepo.ListPendingByProperties(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list viewing requests: %w", err)
	}
	return requests, nil
}

func (s *viewingService) ListDecidedByOwner(ctx context.Context, ownerID int64) ([]domain.DecidedRequest, error) {
	records, err := s.viewingRepo.ListDecidedByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list decided requests: %w", err)
	}
	return records, nil
}
