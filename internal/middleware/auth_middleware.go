package middleware

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/yigit/unisphere-scheduler/internal/app/models"
	"github.com/yigit/unisphere-scheduler/internal/app/models/dto"
	"github.com/yigit/unisphere-scheduler/internal/pkg/apperrors"
	"github.com/yigit/unisphere-scheduler/internal/pkg/auth"
)

// Context keys set by JWTAuth
const (
	ContextUserID   = "userID"
	ContextEmail    = "email"
	ContextRoleType = "roleType"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	jwtService *auth.JWTService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
	}
}

// JWTAuth rejects requests without a valid bearer token and stores the claims in the context
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			// Swagger UI sometimes passes the token as a query parameter
			header = c.Query("token")
		}
		if header == "" {
			abortAuth(c, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Authentication required", "Authorization header missing")
			return
		}

		tokenString, err := auth.ExtractBearerToken(header)
		if err != nil {
			abortAuth(c, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Authentication required", "Invalid token format")
			return
		}

		claims, err := m.jwtService.ValidateAndExtractClaims(tokenString)
		switch {
		case err == nil:
		case errors.Is(err, apperrors.ErrTokenExpired):
			abortAuth(c, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Authentication failed", "Token has expired")
			return
		case errors.Is(err, apperrors.ErrInvalidFormat):
			abortAuth(c, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Authentication failed", "Invalid token format")
			return
		default:
			abortAuth(c, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Authentication failed", "Invalid token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRoleType, claims.RoleType)
		c.Next()
	}
}

// RoleRequired lets the request through only for one of the allowed roles
func (m *AuthMiddleware) RoleRequired(allowed ...models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(ContextRoleType)
		if !exists {
			abortAuth(c, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Authentication required", "User role not found")
			return
		}

		if roleStr, ok := role.(string); !ok || !slices.Contains(allowed, models.RoleType(roleStr)) {
			abortAuth(c, http.StatusForbidden, dto.ErrorCodeForbidden, "Access denied", "You don't have sufficient permissions for this operation")
			return
		}
		c.Next()
	}
}

func abortAuth(c *gin.Context, status int, code dto.ErrorCode, message, details string) {
	detail := dto.NewErrorDetail(code, message).
		WithDetails(details).
		WithSeverity(dto.ErrorSeverityError)
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}
