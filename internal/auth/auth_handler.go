package auth

import (
	"net/http"
	"time"

	"storefront-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler issues tokens outside production. Real sessions are issued by
// the storefront's account service.
type AuthHandler struct {
	jwtManager *JWTManager
	logger     *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(jwtManager *JWTManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// TokenRequest represents the token issuance request
type TokenRequest struct {
	UserID string `json:"userId" binding:"required" example:"6650f1c2a1b2c3d4e5f60718"`
	Role   string `json:"role" binding:"required,oneof=customer admin" example:"customer"`
	Name   string `json:"name" example:"Dewi Lestari"`
	Phone  string `json:"phone" example:"081234567890"`
}

// TokenResponse represents the token issuance response
type TokenResponse struct {
	Success   bool      `json:"success" example:"true"`
	Token     string    `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Type      string    `json:"type" example:"Bearer"`
	ExpiresIn int       `json:"expires_in" example:"3600"`
	ExpiresAt time.Time `json:"expires_at" example:"2024-01-15T12:00:00Z"`
}

// IssueToken handles POST /api/v1/auth/token
// @Summary      Issue a development token
// @Description  Issues a signed token for a user id and role. Only available outside production.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      TokenRequest   true  "Token claims"
// @Success      200      {object}  TokenResponse  "Token issued"
// @Failure      400      {object}  errors.StandardError  "Invalid request"
// @Router       /auth/token [post]
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid token request", zap.Error(err))
		c.Error(errors.NewValidationError("invalid request", "userId or role"))
		c.Abort()
		return
	}

	token, expiresAt, err := h.jwtManager.GenerateToken(req.UserID, req.Role, req.Name, req.Phone)
	if err != nil {
		h.logger.Error("Failed to generate token", zap.Error(err))
		c.Error(errors.NewInternalError("failed to generate token"))
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		Success:   true,
		Token:     token,
		Type:      "Bearer",
		ExpiresIn: int(h.jwtManager.TTL().Seconds()),
		ExpiresAt: expiresAt,
	})
}
