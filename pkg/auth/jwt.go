package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired indicates the token was valid but its expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid indicates a malformed token or a failed signature check.
	ErrTokenInvalid = errors.New("invalid token")
)

const audience = "lettings-api"

// ActivationTokenTTL bounds activation and password-reset tokens. The
// 4-digit code they embed travels out-of-band by email; both halves
// must match on verification.
const ActivationTokenTTL = 24 * time.Hour

// SessionClaims identify a logged-in user on access and refresh tokens.
type SessionClaims struct {
	UserID int64 `json:"id"`
	jwt.RegisteredClaims
}

// CodeClaims carry a one-time numeric code for account activation
// (keyed by email, the account may not be active yet) or password
// reset (keyed by user id).
type CodeClaims struct {
	Email  string `json:"email,omitempty"`
	UserID int64  `json:"id,omitempty"`
	Code   string `json:"code"`
	jwt.RegisteredClaims
}

func NewAccessToken(userID int64, secret string, ttl time.Duration) (string, error) {
	return signSession(userID, secret, ttl)
}

func NewRefreshToken(userID int64, secret string, ttl time.Duration) (string, error) {
	return signSession(userID, secret, ttl)
}

func signSession(userID int64, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{audience},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// NewActivationToken issues a 24h token binding an email address to a
// fresh 4-digit code. The code is returned so the caller can deliver
// it out-of-band.
func NewActivationToken(email, secret string) (token, code string, err error) {
	code, err = generateCode()
	if err != nil {
		return "", "", err
	}
	token, err = signCode(CodeClaims{Email: email, Code: code}, secret)
	return token, code, err
}

// NewResetToken issues a 24h password-reset token bound to a user id
// and a fresh 4-digit code.
func NewResetToken(userID int64, secret string) (token, code string, err error) {
	code, err = generateCode()
	if err != nil {
		return "", "", err
	}
	token, err = signCode(CodeClaims{UserID: userID, Code: code}, secret)
	return token, code, err
}

func signCode(claims CodeClaims, secret string) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ActivationTokenTTL)),
		Audience:  []string{audience},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseSession validates an access or refresh token and returns its claims.
func ParseSession(tokenString, secret string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := parseInto(tokenString, secret, claims); err != nil {
		return nil, err
	}
	if claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseCode validates an activation or reset token and returns its claims.
func ParseCode(tokenString, secret string) (*CodeClaims, error) {
	claims := &CodeClaims{}
	if err := parseInto(tokenString, secret, claims); err != nil {
		return nil, err
	}
	if claims.Code == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

func parseInto(tokenString, secret string, claims jwt.Claims) error {
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !tok.Valid {
		return ErrTokenInvalid
	}
	return nil
}

// generateCode draws a 4-digit code uniformly from [1000,9999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}
