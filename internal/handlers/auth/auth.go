// internal/handlers/auth/auth.go
package auth

import (
	"net/http"
	"time"

	authdomain "mealdesk-service/internal/domain/auth"
	"mealdesk-service/internal/middleware"
	"mealdesk-service/internal/pkg/response"
	authservice "mealdesk-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service  *authservice.Service
	tokenTTL time.Duration
	logger   *zap.Logger
}

func NewHandler(service *authservice.Service, tokenTTL time.Duration, logger *zap.Logger) *Handler {
	return &Handler{service: service, tokenTTL: tokenTTL, logger: logger}
}

// Login authenticates a staff member.
func (h *Handler) Login(c *gin.Context) {
	var req authdomain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid login request", err)
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.FromError(c, "login failed", err)
		return
	}

	response.Success(c, http.StatusOK, "logged in", resp)
}

// Refresh issues a new access token from a refresh token.
func (h *Handler) Refresh(c *gin.Context) {
	var req authdomain.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid refresh request", err)
		return
	}

	resp, err := h.service.Refresh(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.FromError(c, "refresh failed", err)
		return
	}

	response.Success(c, http.StatusOK, "token refreshed", resp)
}

// Logout invalidates the current session.
func (h *Handler) Logout(c *gin.Context) {
	identityID := middleware.MustGetIdentityID(c)
	jti := middleware.MustGetJTI(c)

	if err := h.service.Logout(c.Request.Context(), identityID, jti, h.tokenTTL); err != nil {
		response.FromError(c, "logout failed", err)
		return
	}

	response.Success(c, http.StatusOK, "logged out", nil)
}

// Me returns the authenticated identity's profile.
func (h *Handler) Me(c *gin.Context) {
	identityID := middleware.MustGetIdentityID(c)

	profile, err := h.service.Me(c.Request.Context(), identityID)
	if err != nil {
		response.FromError(c, "failed to load profile", err)
		return
	}

	response.Success(c, http.StatusOK, "profile", profile)
}
