// Package identity provides the hidden admin mode: a single admin account
// configured at deployment time, authenticated with a short-lived JWT.
package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Service errors.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Config holds admin credentials and token settings.
type Config struct {
	Username      string
	PasswordHash  string // bcrypt hash
	JWTSecret     string
	TokenDuration time.Duration
}

// Service authenticates the admin and issues access tokens.
type Service struct {
	config Config
}

// NewService creates a new identity service.
func NewService(config Config) (*Service, error) {
	if config.Username == "" {
		return nil, errors.New("identity: admin username is required")
	}
	if config.PasswordHash == "" {
		return nil, errors.New("identity: admin password hash is required")
	}
	if config.JWTSecret == "" {
		return nil, errors.New("identity: jwt secret is required")
	}
	if config.TokenDuration <= 0 {
		config.TokenDuration = time.Hour
	}
	return &Service{config: config}, nil
}

// Login verifies the admin credentials and returns a signed access token.
func (s *Service) Login(_ context.Context, username, password string) (token string, expiresAt time.Time, err error) {
	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(s.config.Username)) == 1
	passwordErr := bcrypt.CompareHashAndPassword([]byte(s.config.PasswordHash), []byte(password))
	if !usernameMatch || passwordErr != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	expiresAt = time.Now().Add(s.config.TokenDuration)
	claims := jwt.RegisteredClaims{
		Subject:   s.config.Username,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// ValidateToken checks a bearer token and returns the admin subject.
// Implements httputil.TokenValidator.
func (s *Service) ValidateToken(_ context.Context, tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject != s.config.Username {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
