// internal/handlers/websocket/websocket.go
package websocket

import (
	"net/http"
	"strings"

	"mealdesk-service/internal/pkg/response"
	ws "mealdesk-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking for production
		// For now, allow all origins
		return true
	},
}

type Handler struct {
	hub    *ws.Hub
	logger *zap.Logger
}

func NewHandler(hub *ws.Hub, logger *zap.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger,
	}
}

// HandleConnection upgrades the connection and registers it with the hub.
// A token query param marks a staff connection; without one the client is an
// anonymous customer that can only join order rooms it names by token.
func (h *Handler) HandleConnection(c *gin.Context) {
	var auth *ws.ClientAuth

	if token := extractToken(c); token != "" {
		staffAuth, err := h.hub.AuthenticateStaff(c.Request.Context(), token)
		if err != nil {
			h.logger.Warn("websocket staff authentication failed",
				zap.Error(err),
				zap.String("ip", c.ClientIP()),
			)
			response.Error(c, http.StatusUnauthorized, "authentication failed", err)
			return
		}
		auth = staffAuth
	}

	initialRooms := parseRooms(c.Query("rooms"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	client := ws.NewClient(h.hub, conn, auth, initialRooms)
	h.hub.Register <- client

	if auth != nil {
		h.logger.Info("websocket staff client connected",
			zap.Int64("identity_id", auth.IdentityID),
			zap.Int64("branch_id", auth.BranchID),
			zap.Strings("roles", auth.Roles),
		)
	}

	go client.WritePump()
	go client.ReadPump()
}

// GetStats returns per-room client counts, admin only.
func (h *Handler) GetStats(c *gin.Context) {
	response.Success(c, http.StatusOK, "websocket stats", h.hub.RoomStats())
}

func extractToken(c *gin.Context) string {
	// Query parameter first; browsers cannot set headers on websocket dials.
	if token := c.Query("token"); token != "" {
		return token
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	return ""
}

func parseRooms(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	rooms := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			rooms = append(rooms, p)
		}
	}
	return rooms
}
