// Package auth validates bearer tokens and resolves the caller's roles.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/procurement/internal/domain/identity"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
)

// Claims represents custom JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
}

// JWTService signs and validates HS256 access tokens
type JWTService struct {
	secret []byte
	issuer string
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}
}

// GenerateToken issues an access token for userID valid for ttl.
// Tokens are normally issued by the identity provider; this exists for
// local development and tests.
func (s *JWTService) GenerateToken(userID, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:   userID,
		Username: username,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateToken validates a JWT token and returns its claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// Authenticator turns a bearer token into a Principal
type Authenticator struct {
	tokens *JWTService
	roles  identity.RoleLookup
}

// NewAuthenticator creates an authenticator
func NewAuthenticator(tokens *JWTService, roles identity.RoleLookup) *Authenticator {
	return &Authenticator{tokens: tokens, roles: roles}
}

// Authenticate validates the token and resolves the user's roles.
// A user without a role assignment is authenticated with an empty role set.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (identity.Principal, error) {
	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		return identity.Principal{}, err
	}

	raw, err := a.roles.RolesFor(ctx, claims.UserID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return identity.Principal{}, fmt.Errorf("resolve roles for %s: %w", claims.UserID, err)
	}
	return identity.Principal{
		UserID: claims.UserID,
		Roles:  identity.ParseRoles(raw),
	}, nil
}
