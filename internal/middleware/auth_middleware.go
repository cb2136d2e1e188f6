// internal/middleware/auth_middleware.go
package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"mealdesk-service/internal/pkg/jwt"
	"mealdesk-service/internal/pkg/response"
	"mealdesk-service/internal/pkg/session"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	verifier *jwt.Verifier
	sessions *session.Manager
}

func NewAuthMiddleware(verifier *jwt.Verifier, sessions *session.Manager) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, sessions: sessions}
}

// Auth validates the bearer token and its redis session, then seeds the
// request context with the staff identity.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "missing authorization token", nil)
			return
		}

		claims, err := m.verifier.VerifyAccessToken(token)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "invalid or expired token", err)
			return
		}

		blacklisted, err := m.sessions.IsTokenBlacklisted(c.Request.Context(), claims.ID)
		if err != nil || blacklisted {
			response.Error(c, http.StatusUnauthorized, "token revoked", nil)
			return
		}

		if _, err := m.sessions.GetSession(c.Request.Context(), claims.IdentityID, claims.ID); err != nil {
			response.Error(c, http.StatusUnauthorized, "session expired", nil)
			return
		}

		c.Set("identity_id", claims.IdentityID)
		c.Set("jti", claims.ID)
		c.Set("roles", claims.Roles)
		c.Set("branch_id", claims.BranchID)

		c.Next()
	}
}

// RequireRole requires the user to hold at least one of the given roles.
// MUST be used after Auth().
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRoles := GetRoles(c)
		if len(userRoles) == 0 {
			response.Error(c, http.StatusForbidden, "no roles found - authentication required", nil)
			return
		}

		for _, userRole := range userRoles {
			for _, required := range roles {
				if userRole == required {
					c.Next()
					return
				}
			}
		}

		err := errors.New("user does not have required role")
		response.Error(c, http.StatusForbidden, "insufficient permissions", err, map[string]interface{}{
			"required_roles": roles,
			"user_roles":     userRoles,
		})
	}
}

// RequireBranchAccess checks the :branchId path param against the token's
// branch scope. Super admins pass for any branch. MUST be used after Auth().
func (m *AuthMiddleware) RequireBranchAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		if HasRole(c, "super_admin") {
			c.Next()
			return
		}

		branchID, err := strconv.ParseInt(c.Param("branchId"), 10, 64)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid branch id", err)
			return
		}

		if GetBranchID(c) != branchID {
			response.Error(c, http.StatusForbidden, "branch access denied", nil)
			return
		}
		c.Next()
	}
}

// AdminOnly returns middlewares for admin-only routes (Auth + RequireRole)
func (m *AuthMiddleware) AdminOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireRole("admin", "super_admin"),
	}
}

// KitchenOnly returns middlewares for kitchen screens and staff apps.
func (m *AuthMiddleware) KitchenOnly() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		m.Auth(),
		m.RequireRole("kitchen", "admin", "super_admin"),
	}
}

// extractToken extracts Bearer token from Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	// Fallback to query param, used by websocket upgrades
	if token := c.Query("token"); token != "" {
		return token
	}

	return ""
}

// Helper function to get identity ID from context
func GetIdentityID(c *gin.Context) (int64, bool) {
	identityID, exists := c.Get("identity_id")
	if !exists {
		return 0, false
	}

	id, ok := identityID.(int64)
	return id, ok
}

// Helper function to get JTI from context
func GetJTI(c *gin.Context) (string, bool) {
	jti, exists := c.Get("jti")
	if !exists {
		return "", false
	}

	jtiStr, ok := jti.(string)
	return jtiStr, ok
}

// GetBranchID returns the branch scope of the token, 0 for super admins.
func GetBranchID(c *gin.Context) int64 {
	branchID, exists := c.Get("branch_id")
	if !exists {
		return 0
	}

	id, ok := branchID.(int64)
	if !ok {
		return 0
	}
	return id
}

// Helper function to check if user has role
func HasRole(c *gin.Context, role string) bool {
	for _, r := range GetRoles(c) {
		if r == role {
			return true
		}
	}
	return false
}
