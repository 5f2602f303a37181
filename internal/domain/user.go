package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Valid user roles
const (
	RoleAdmin    = "admin"
	RoleUser     = "user"
	RoleLandlord = "landlord"
)

var validRoles = map[string]bool{
	RoleAdmin:    true,
	RoleUser:     true,
	RoleLandlord: true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

// Failed-login policy: failures are counted over a trailing 24h
// window. Crossing LockThreshold applies a 24h lock; crossing
// SuspendThreshold suspends the account outright (lock cleared,
// reinstatement is manual).
const (
	FailureWindow    = 24 * time.Hour
	LockDuration     = 24 * time.Hour
	LockThreshold    = 3
	SuspendThreshold = 6
)

type User struct {
	ID           int64      `json:"id"`
	FirstName    string     `json:"firstname"`
	LastName     string     `json:"lastname"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	IsVerified   bool       `json:"is_verified"`
	SuspendedAt  *time.Time `json:"suspended_at,omitempty"`

	LoginAttempts         int         `json:"-"`
	LockUntil             *time.Time  `json:"-"`
	FailedLoginTimestamps []time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsSuspended() bool {
	return u.SuspendedAt != nil
}

// CheckLocked fails when a lock window is still open. It runs before
// password comparison on every login attempt.
func (u *User) CheckLocked(now time.Time) error {
	if u.LockUntil != nil && u.LockUntil.After(now) {
		return ErrAccountLocked
	}
	return nil
}

// LoginPenalty is the outcome of recording a failed login.
type LoginPenalty int

const (
	PenaltyNone LoginPenalty = iota
	PenaltyLocked
	PenaltySuspended
)

// RecordFailedLogin appends the failure, counts failures inside the
// trailing window and applies the lock or suspension escalation. The
// caller persists the user afterwards.
func (u *User) RecordFailedLogin(now time.Time) LoginPenalty {
	u.FailedLoginTimestamps = append(u.FailedLoginTimestamps, now)
	u.LoginAttempts++

	cutoff := now.Add(-FailureWindow)
	recent := make([]time.Time, 0, len(u.FailedLoginTimestamps))
	for _, ts := range u.FailedLoginTimestamps {
		if !ts.Before(cutoff) {
			recent = append(recent, ts)
		}
	}
	// Failures older than the window never count again; drop them.
	u.FailedLoginTimestamps = recent

	switch {
	case len(recent) >= SuspendThreshold:
		u.LockUntil = nil
		u.LoginAttempts = 0
		suspendedAt := now
		u.SuspendedAt = &suspendedAt
		return PenaltySuspended
	case len(recent) >= LockThreshold:
		lockUntil := now.Add(LockDuration)
		u.LockUntil = &lockUntil
		u.LoginAttempts = 0
		return PenaltyLocked
	default:
		return PenaltyNone
	}
}

// RecordSuccessfulLogin clears all failure state unconditionally.
func (u *User) RecordSuccessfulLogin() {
	u.LoginAttempts = 0
	u.LockUntil = nil
	u.FailedLoginTimestamps = nil
}

type RegisterRequest struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         *UserInfo `json:"user"`
}

type UserInfo struct {
	ID         int64  `json:"id"`
	FirstName  string `json:"firstname"`
	LastName   string `json:"lastname"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	IsVerified bool   `json:"is_verified"`
}

type ActivationRequest struct {
	ActivationToken string `json:"activation_token"`
	ActivationCode  string `json:"activation_code"`
}

type ResetPasswordRequest struct {
	ResetToken  string `json:"reset_token"`
	ResetCode   string `json:"reset_code"`
	NewPassword string `json:"new_password"`
}

type UpdateRoleRequest struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
}

func (r *RegisterRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r *RegisterRequest) Validate() error {
	if r.FirstName == "" {
		return fmt.Errorf("%w: first name is required", ErrValidation)
	}
	if r.LastName == "" {
		return fmt.Errorf("%w: last name is required", ErrValidation)
	}
	if r.Email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if !isValidEmail(r.Email) {
		return fmt.Errorf("%w: invalid email format", ErrValidation)
	}
	if len(r.Password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	return nil
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *LoginRequest) Validate() error {
	if r.Email == "" || r.Password == "" {
		return fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	return nil
}

// ToUserInfo strips security state and the credential hash.
func (u *User) ToUserInfo() *UserInfo {
	return &UserInfo{
		ID:         u.ID,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
	}
}

func isValidEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}
