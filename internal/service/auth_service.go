package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5"

	"github.com/propernest/lettings/internal/domain"
	"github.com/propernest/lettings/internal/mailer"
	"github.com/propernest/lettings/internal/repository"
	"github.com/propernest/lettings/pkg/auth"
	"github.com/propernest/lettings/pkg/config"
	"github.com/propernest/lettings/pkg/events"
	"github.com/propernest/lettings/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserInfo, string, error)
	Activate(ctx context.Context, req *domain.ActivationRequest) (*domain.UserInfo, error)
	ResendActivation(ctx context.Context, email string) (string, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	Logout(ctx context.Context, userID int64) error
	Refresh(ctx context.Context, refreshToken string) (*domain.LoginResponse, error)
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) error
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error)
	UpdateUserRole(ctx context.Context, req *domain.UpdateRoleRequest) error
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	mailer      mailer.Service
	eventBus    events.Publisher
	config      *config.Config
	now         func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	mailer mailer.Service,
	eventBus events.Publisher,
	config *config.Config,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		mailer:      mailer,
		eventBus:    eventBus,
		config:      config,
		now:         time.Now,
	}
}

// WithClock swaps the time source, for tests that exercise the lockout
// window.
func (s *authService) WithClock(now func() time.Time) *authService {
	s.now = now
	return s
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.UserInfo, string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, "", fmt.Errorf("%w: user with this email already exists", domain.ErrConflict)
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, req, passwordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.issueActivation(ctx, user)
	if err != nil {
		return nil, "", err
	}

	if err := s.eventBus.Publish(ctx, events.AccountRegistered, events.AccountRegisteredEvent{
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish registration event", "error", err, "user_id", user.ID)
	}

	return user.ToUserInfo(), token, nil
}

func (s *authService) Activate(ctx context.Context, req *domain.ActivationRequest) (*domain.UserInfo, error) {
	if req.ActivationToken == "" || req.ActivationCode == "" {
		return nil, fmt.Errorf("%w: activation token and code are required", domain.ErrValidation)
	}

	claims, err := auth.ParseCode(req.ActivationToken, s.config.Auth.ActivationSecret)
	if err != nil {
		return nil, err
	}
	// Both halves must match: the code inside the token and the one the
	// user received by email.
	if claims.Code != req.ActivationCode {
		return nil, fmt.Errorf("%w: activation code does not match", domain.ErrValidation)
	}

	user, err := s.userRepo.FindByEmail(ctx, claims.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	if user.IsVerified {
		return user.ToUserInfo(), nil
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to mark user as verified: %w", err)
	}
	user.IsVerified = true

	if err := s.eventBus.Publish(ctx, events.AccountActivated, events.AccountRegisteredEvent{
		UserID:    user.ID,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}); err != nil {
		logger.WarnContext(ctx, "Failed to publish activation event", "error", err, "user_id", user.ID)
	}

	return user.ToUserInfo(), nil
}

func (s *authService) ResendActivation(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// Don't reveal whether the account exists.
		return "", nil
	}
	if user.IsVerified {
		return "", fmt.Errorf("%w: account is already verified", domain.ErrConflict)
	}

	return s.issueActivation(ctx, user)
}

func (s *authService) issueActivation(ctx context.Context, user *domain.User) (string, error) {
	token, code, err := auth.NewActivationToken(user.Email, s.config.Auth.ActivationSecret)
	if err != nil {
		return "", fmt.Errorf("failed to create activation token: %w", err)
	}

	if err := s.mailer.SendActivationEmail(user.Email, user.FullName(), token, atoiCode(code)); err != nil {
		logger.ErrorContext(ctx, "Failed to send activation email", "error", err, "user_id", user.ID)
		// Don't fail registration if email fails; the token is returned
		// and resend is available.
	}

	return token, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
	}

	now := s.now()

	// Suspension is terminal and wins over everything else.
	if user.IsSuspended() {
		return nil, domain.ErrAccountSuspended
	}
	// An open lock rejects the attempt before the password is even
	// compared.
	if err := user.CheckLocked(now); err != nil {
		return nil, err
	}

	valid, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, s.handleFailedLogin(ctx, user, now)
	}

	if !user.IsVerified {
		return nil, fmt.Errorf("%w: account is not activated", domain.ErrForbidden)
	}

	user.RecordSuccessfulLogin()
	if err := s.userRepo.SaveSecurityState(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save security state: %w", err)
	}

	return s.establishSession(ctx, user)
}

// handleFailedLogin records the failure, persists the escalated state
// and maps the penalty to the error the caller should see.
func (s *authService) handleFailedLogin(ctx context.Context, user *domain.User, now time.Time) error {
	penalty := user.RecordFailedLogin(now)

	if err := s.userRepo.SaveSecurityState(ctx, user); err != nil {
		return fmt.Errorf("failed to save security state: %w", err)
	}

	switch penalty {
	case domain.PenaltySuspended:
		if err := s.eventBus.Publish(ctx, events.AccountSuspended, events.AccountSuspendedEvent{
			UserID:         user.ID,
			Email:          user.Email,
			FailedAttempts: domain.SuspendThreshold,
			SuspendedAt:    now,
		}); err != nil {
			logger.WarnContext(ctx, "Failed to publish suspension event", "error", err, "user_id", user.ID)
		}
		return domain.ErrAccountSuspended
	case domain.PenaltyLocked:
		return domain.ErrAccountLocked
	default:
		return fmt.Errorf("%w: invalid credentials", domain.ErrUnauthenticated)
	}
}

// establishSession issues the token pair and stores the user snapshot
// the Authorization gate will look up on every request.
func (s *authService) establishSession(ctx context.Context, user *domain.User) (*domain.LoginResponse, error) {
	accessToken, err := auth.NewAccessToken(user.ID, s.config.Auth.AccessSecret, s.config.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := auth.NewRefreshToken(user.ID, s.config.Auth.RefreshSecret, s.config.Auth.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	if err := s.sessionRepo.Save(ctx, user, s.config.Auth.SessionTTL); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return &domain.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.config.Auth.AccessTokenTTL.Seconds()),
		User:         user.ToUserInfo(),
	}, nil
}

func (s *authService) Logout(ctx context.Context, userID int64) error {
	if err := s.sessionRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.LoginResponse, error) {
	claims, err := auth.ParseSession(refreshToken, s.config.Auth.RefreshSecret)
	if err != nil {
		return nil, err
	}

	// A refresh is only honored while a live session backs it; logout
	// revokes refresh tokens too.
	snapshot, err := s.sessionRepo.Find(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if snapshot == nil {
		return nil, domain.ErrSessionExpired
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	if user.IsSuspended() {
		return nil, domain.ErrAccountSuspended
	}

	return s.establishSession(ctx, user)
}

func (s *authService) ForgotPassword(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		// Don't reveal whether the account exists.
		return "", nil
	}

	token, code, err := auth.NewResetToken(user.ID, s.config.Auth.ResetSecret)
	if err != nil {
		return "", fmt.Errorf("failed to create reset token: %w", err)
	}

	if err := s.mailer.SendPasswordResetEmail(user.Email, user.FullName(), token, atoiCode(code)); err != nil {
		logger.ErrorContext(ctx, "Failed to send password reset email", "error", err, "user_id", user.ID)
	}

	return token, nil
}

func (s *authService) ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) error {
	if req.ResetToken == "" || req.ResetCode == "" {
		return fmt.Errorf("%w: reset token and code are required", domain.ErrValidation)
	}
	if len(req.NewPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}

	claims, err := auth.ParseCode(req.ResetToken, s.config.Auth.ResetSecret)
	if err != nil {
		return err
	}
	if claims.Code != req.ResetCode {
		return fmt.Errorf("%w: reset code does not match", domain.ErrValidation)
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: user", domain.ErrNotFound)
	}

	passwordHash, err := argon2id.CreateHash(req.NewPassword, argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// Any live session was established under the old credential.
	if err := s.sessionRepo.Delete(ctx, user.ID); err != nil {
		logger.WarnContext(ctx, "Failed to revoke session after password reset", "error", err, "user_id", user.ID)
	}

	return nil
}

func (s *authService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *authService) UpdateUserRole(ctx context.Context, req *domain.UpdateRoleRequest) error {
	if !domain.IsValidRole(req.Role) {
		return fmt.Errorf("%w: invalid role %q", domain.ErrValidation, req.Role)
	}

	if err := s.userRepo.UpdateRole(ctx, req.UserID, req.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: user", domain.ErrNotFound)
		}
		return fmt.Errorf("failed to update user role: %w", err)
	}

	// The cached snapshot carries the old role until it expires; drop it
	// so the change takes effect immediately.
	if err := s.sessionRepo.Delete(ctx, req.UserID); err != nil {
		logger.WarnContext(ctx, "Failed to revoke session after role change", "error", err, "user_id", req.UserID)
	}

	return nil
}

// atoiCode converts a generated 4-digit code for email templates; the
// issuer only ever produces digits.
func atoiCode(code string) int {
	n, _ := strconv.Atoi(code)
	return n
}
