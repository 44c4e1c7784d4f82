package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"soak_console/internal/models"
	"soak_console/internal/service"
)

const (
	ctxUserID = "userId"
	ctxRole   = "role"
)

func (h *Handler) userIdMiddleware(c *gin.Context) {
	token, msg := bearerToken(c)
	if msg != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": msg,
		})
		return
	}

	op, err := h.services.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}

	// store in Gin context
	c.Set(ctxUserID, op.UserID)
	c.Set(ctxRole, op.Role)
	c.Next()
}

// bearerToken reads the Authorization header. Browsers cannot set headers on a
// WebSocket handshake, so ?token= is accepted when the header is absent.
func bearerToken(c *gin.Context) (string, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if t := c.Query("token"); t != "" {
			return t, ""
		}
		return "", "missing Authorization header"
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", "invalid Authorization header format"
	}
	return parts[1], ""
}

// operator returns the caller stored by userIdMiddleware. A missing role reads as viewer.
func operator(c *gin.Context) service.Operator {
	op := service.Operator{Role: models.RoleViewer}
	if v, ok := c.Get(ctxUserID); ok {
		op.UserID, _ = v.(int)
	}
	if v, ok := c.Get(ctxRole); ok {
		if r, ok := v.(models.Role); ok && r.Valid() {
			op.Role = r
		}
	}
	return op
}
