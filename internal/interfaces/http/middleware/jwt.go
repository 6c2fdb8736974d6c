package middleware

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/infrastructure/auth"
	"github.com/retailpos/backend/internal/infrastructure/logger"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Identity headers and context keys
const (
	AuthHeaderKey        = "Authorization"
	BearerPrefix         = "Bearer "
	TenantIDHeader       = "X-Tenant-ID"
	EmployeeIDHeader     = "X-User-ID"
	BranchIDHeader       = "X-Branch-ID"
	IdempotencyKeyHeader = "Idempotency-Key"
	PrincipalKey         = "principal"
)

// IdentityConfig configures the Identity middleware.
//
// With a JWTService the caller must present a bearer token. Without one the
// tenant and employee are read from X-Tenant-ID and X-User-ID, which is only
// accepted outside production (config validation enforces it).
type IdentityConfig struct {
	JWTService *auth.JWTService
	SkipPaths  []string
	Logger     *zap.Logger
}

// Identity resolves the tenant and employee of the request and stores the
// principal in the gin context and the logger context
func Identity(cfg IdentityConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		var (
			principal *auth.Principal
			err       error
		)
		if cfg.JWTService != nil {
			principal, err = principalFromToken(c, cfg.JWTService)
		} else {
			principal, err = principalFromHeaders(c)
		}
		if err != nil {
			log.Warn("Request identity rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", GetRequestID(c)),
				zap.Error(err),
			)
			abortUnauthorized(c, err)
			return
		}

		c.Set(PrincipalKey, principal)
		ctx := logger.WithTenantID(c.Request.Context(), principal.TenantID.String())
		ctx = logger.WithEmployeeID(ctx, principal.EmployeeID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func principalFromToken(c *gin.Context, jwtService *auth.JWTService) (*auth.Principal, error) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return nil, auth.ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	if token == "" {
		return nil, auth.ErrInvalidToken
	}
	return jwtService.ValidateToken(token)
}

var errInvalidBranchHeader = errors.New("invalid X-Branch-ID header")

func principalFromHeaders(c *gin.Context) (*auth.Principal, error) {
	tenantID, err := uuid.Parse(c.GetHeader(TenantIDHeader))
	if err != nil || tenantID == uuid.Nil {
		return nil, auth.ErrMissingTenantID
	}
	employeeID, err := uuid.Parse(c.GetHeader(EmployeeIDHeader))
	if err != nil || employeeID == uuid.Nil {
		return nil, auth.ErrMissingUserID
	}
	p := &auth.Principal{TenantID: tenantID, EmployeeID: employeeID}
	if branch := c.GetHeader(BranchIDHeader); branch != "" {
		if p.BranchID, err = uuid.Parse(branch); err != nil {
			return nil, errInvalidBranchHeader
		}
	}
	return p, nil
}

func abortUnauthorized(c *gin.Context, err error) {
	code, message := dto.ErrCodeUnauthorized, "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, message = dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrTokenNotYetValid), errors.Is(err, auth.ErrInvalidClaims):
		code, message = dto.ErrCodeTokenInvalid, "Invalid token"
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}

// GetPrincipal returns the principal stored by Identity
func GetPrincipal(c *gin.Context) (*auth.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok && p != nil
}
