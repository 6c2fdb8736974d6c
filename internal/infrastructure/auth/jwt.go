// Package auth validates the access tokens issued by the POS login service
// and exposes the tenant and employee they identify.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrMissingTenantID  = errors.New("missing tenant_id in claims")
	ErrMissingUserID    = errors.New("missing user_id in claims")
)

// Claims are the custom JWT claims. UserID is the employee operating the
// point of sale.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
	BranchID string `json:"branch_id,omitempty"`
	Username string `json:"username,omitempty"`
}

// Principal is the parsed identity carried by a valid token
type Principal struct {
	TenantID   uuid.UUID
	EmployeeID uuid.UUID
	BranchID   uuid.UUID // uuid.Nil when the token is not bound to a branch
	Username   string
}

// JWTService signs and validates HS256 access tokens
type JWTService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

// GenerateToken signs an access token for p valid for ttl. Production tokens
// come from the login service; this is used by tests and local tooling.
func (s *JWTService) GenerateToken(p Principal, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   p.EmployeeID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		TenantID: p.TenantID.String(),
		UserID:   p.EmployeeID.String(),
		Username: p.Username,
	}
	if p.BranchID != uuid.Nil {
		claims.BranchID = p.BranchID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateToken verifies signature, lifetime and issuer and returns the
// principal the token identifies
func (s *JWTService) ValidateToken(tokenString string) (*Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	return claims.Principal()
}

// Principal parses the identifiers in c
func (c *Claims) Principal() (*Principal, error) {
	if c.TenantID == "" {
		return nil, ErrMissingTenantID
	}
	if c.UserID == "" {
		return nil, ErrMissingUserID
	}

	tenantID, err := uuid.Parse(c.TenantID)
	if err != nil {
		return nil, ErrInvalidClaims
	}
	employeeID, err := uuid.Parse(c.UserID)
	if err != nil {
		return nil, ErrInvalidClaims
	}

	p := &Principal{TenantID: tenantID, EmployeeID: employeeID, Username: c.Username}
	if c.BranchID != "" {
		if p.BranchID, err = uuid.Parse(c.BranchID); err != nil {
			return nil, ErrInvalidClaims
		}
	}
	return p, nil
}
