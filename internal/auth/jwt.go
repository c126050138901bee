package auth

import (
	"errors"
	"time"

	"storefront-service/internal/domain"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrInvalidRole  = errors.New("invalid role")
)

// Roles carried in the token
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// ValidRole reports whether role is one the service understands
func ValidRole(role string) bool {
	return role == RoleCustomer || role == RoleAdmin
}

// JWTClaims represents the JWT claims
type JWTClaims struct {
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
	Phone string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

// Customer returns the capability the core operates with
func (c *JWTClaims) Customer() domain.Customer {
	return domain.Customer{
		ID:    c.Subject,
		Name:  c.Name,
		Phone: c.Phone,
	}
}

// JWTManager handles JWT token generation and validation
type JWTManager struct {
	secretKey []byte
	ttl       time.Duration
	logger    *zap.Logger
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secretKey string, ttl time.Duration, logger *zap.Logger) *JWTManager {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &JWTManager{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		logger:    logger,
	}
}

// TTL returns the lifetime of issued tokens
func (j *JWTManager) TTL() time.Duration {
	return j.ttl
}

// GenerateToken generates a signed token for a user
func (j *JWTManager) GenerateToken(userID, role, name, phone string) (string, time.Time, error) {
	if !ValidRole(role) {
		return "", time.Time{}, ErrInvalidRole
	}

	now := time.Now()
	expiresAt := now.Add(j.ttl)

	claims := JWTClaims{
		Role:  role,
		Name:  name,
		Phone: phone,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "storefront-service",
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		j.logger.Error("Failed to generate token", zap.Error(err))
		return "", time.Time{}, err
	}

	j.logger.Info("Token generated",
		zap.String("user_id", userID),
		zap.String("role", role),
		zap.Time("expires_at", expiresAt),
	)

	return tokenString, expiresAt, nil
}

// ValidateToken validates a JWT token and returns the claims
func (j *JWTManager) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return j.secretKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			j.logger.Warn("Token expired", zap.Error(err))
			return nil, ErrExpiredToken
		}
		j.logger.Warn("Invalid token", zap.Error(err))
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid || claims.Subject == "" || !ValidRole(claims.Role) {
		j.logger.Warn("Invalid token claims")
		return nil, ErrInvalidToken
	}

	return claims, nil
}
