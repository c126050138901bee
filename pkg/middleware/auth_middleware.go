package middleware

import (
	"errors"
	"strings"

	"storefront-service/internal/auth"
	"storefront-service/internal/domain"
	apperrors "storefront-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by the auth middlewares
const (
	UserIDContextKey   = "user_id"
	RoleContextKey     = "role"
	CustomerContextKey = "customer"
)

// AuthMiddleware validates the bearer token and requires one of roles.
// With no roles any valid token is accepted.
func AuthMiddleware(jwtManager *auth.JWTManager, logger *zap.Logger, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn("Missing authorization header",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			abortWith(c, apperrors.NewUnauthorized("missing authorization header", "Header: Authorization"))
			return
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			logger.Warn("Invalid authorization header format",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
			)
			abortWith(c, apperrors.NewUnauthorized("invalid authorization header format", "Expected: Bearer <token>"))
			return
		}

		claims, err := jwtManager.ValidateToken(tokenString)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortWith(c, apperrors.NewUnauthorized("token expired", "Token has expired, please login again"))
				return
			}
			logger.Warn("Invalid token",
				zap.String("path", c.Request.URL.Path),
				zap.String("method", c.Request.Method),
				zap.Error(err),
			)
			abortWith(c, apperrors.NewUnauthorized("invalid token", ""))
			return
		}

		if len(roles) > 0 && !hasRole(claims.Role, roles) {
			logger.Warn("Role not allowed",
				zap.String("user_id", claims.Subject),
				zap.String("role", claims.Role),
				zap.String("path", c.Request.URL.Path),
			)
			abortWith(c, apperrors.NewForbidden("insufficient permissions"))
			return
		}

		setPrincipal(c, claims)
		logger.Debug("Token validated",
			zap.String("user_id", claims.Subject),
			zap.String("role", claims.Role),
			zap.String("path", c.Request.URL.Path),
		)
		c.Next()
	}
}

// CustomerAuth accepts any signed-in user. Admins keep their own cart too.
func CustomerAuth(jwtManager *auth.JWTManager, logger *zap.Logger) gin.HandlerFunc {
	return AuthMiddleware(jwtManager, logger, auth.RoleCustomer, auth.RoleAdmin)
}

// AdminAuth accepts admin tokens only
func AdminAuth(jwtManager *auth.JWTManager, logger *zap.Logger) gin.HandlerFunc {
	return AuthMiddleware(jwtManager, logger, auth.RoleAdmin)
}

// OptionalAuth attaches the caller when a valid token is present and lets
// everyone else through as a guest
func OptionalAuth(jwtManager *auth.JWTManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if ok {
			if claims, err := jwtManager.ValidateToken(tokenString); err == nil {
				setPrincipal(c, claims)
			} else {
				logger.Debug("Ignoring invalid token on optional route",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
			}
		}
		c.Next()
	}
}

// CurrentCustomer returns the authenticated caller, if any
func CurrentCustomer(c *gin.Context) (domain.Customer, bool) {
	value, exists := c.Get(CustomerContextKey)
	if !exists {
		return domain.Customer{}, false
	}
	customer, ok := value.(domain.Customer)
	return customer, ok
}

// CurrentRole returns the role of the authenticated caller
func CurrentRole(c *gin.Context) string {
	return c.GetString(RoleContextKey)
}

func setPrincipal(c *gin.Context, claims *auth.JWTClaims) {
	c.Set(UserIDContextKey, claims.Subject)
	c.Set(RoleContextKey, claims.Role)
	c.Set(CustomerContextKey, claims.Customer())
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func hasRole(role string, allowed []string) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

func abortWith(c *gin.Context, err *apperrors.StandardError) {
	c.AbortWithStatusJSON(err.HTTPStatus(), err)
}
