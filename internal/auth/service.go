// Package auth issues and verifies the bearer tokens carrying a Principal.
package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/velora-pos/velora/internal/shared"
	"github.com/velora-pos/velora/internal/users"
)

// UserStore is the account lookup the service needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (users.User, error)
	GetByID(ctx context.Context, id int64) (users.User, error)
}

// Claims is the JWT payload.
type Claims struct {
	Name string      `json:"name"`
	Role shared.Role `json:"role"`
	jwt.RegisteredClaims
}

// Service performs credential checks and token handling.
type Service struct {
	store    UserStore
	secret   []byte
	tokenTTL time.Duration
}

// NewService builds Service.
func NewService(store UserStore, secret string, tokenTTL time.Duration) *Service {
	return &Service{store: store, secret: []byte(secret), tokenTTL: tokenTTL}
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the signed token and its subject.
type LoginResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      users.User `json:"user"`
}

// Login verifies credentials and issues a signed token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResponse, error) {
	u, err := s.store.GetByEmail(ctx, req.Email)
	if err != nil {
		// Hide whether the account exists.
		return LoginResponse{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return LoginResponse{}, shared.ErrInvalidCredentials
	}

	expires := time.Now().Add(s.tokenTTL)
	claims := &Claims{
		Name: u.Name,
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return LoginResponse{}, fmt.Errorf("sign token: %w", err)
	}
	u.PasswordHash = ""
	return LoginResponse{Token: token, ExpiresAt: expires, User: u}, nil
}

// ParseToken verifies a token and rebuilds the Principal it names.
func (s *Service) ParseToken(tokenStr string) (shared.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return shared.Principal{}, shared.ErrInvalidCredentials
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return shared.Principal{}, shared.ErrInvalidCredentials
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || !claims.Role.Valid() {
		return shared.Principal{}, shared.ErrInvalidCredentials
	}
	return shared.Principal{ID: id, Name: claims.Name, Role: claims.Role}, nil
}

// Me returns the full account behind a Principal.
func (s *Service) Me(ctx context.Context, actor shared.Principal) (users.User, error) {
	u, err := s.store.GetByID(ctx, actor.ID)
	if err != nil {
		return users.User{}, err
	}
	u.PasswordHash = ""
	return u, nil
}
