package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"storefront/internal/stores/rediscache"
	"storefront/internal/users"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// CheckLink reports whether a Discord id is linked to a storefront account.
// The storefront polls this while the OAuth tab is open, so results are
// cached briefly.
func (h *Handler) CheckLink(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	discordID := c.Query("discordId")
	if discordID == "" {
		c.JSON(http.StatusOK, gin.H{"isLinked": false})
		return
	}

	if h.cache != nil {
		if user, err := h.cache.GetLinkedUser(c.Request.Context(), discordID); err == nil {
			c.JSON(http.StatusOK, linkedResponse(user))
			return
		} else if !errors.Is(err, rediscache.ErrCacheMiss) {
			slog.Error("link cache lookup failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
	}

	user, err := h.u.GetByDiscordID(c.Request.Context(), discordID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"isLinked": false})
			return
		}
		slog.Error("failed to look up link status", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"isLinked": false})
		return
	}

	if h.cache != nil {
		if err := h.cache.SetLinkedUser(c.Request.Context(), user); err != nil {
			slog.Error("failed to cache link status", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
	}

	c.JSON(http.StatusOK, linkedResponse(user))
}

func linkedResponse(u users.User) gin.H {
	return gin.H{
		"isLinked": true,
		"user": gin.H{
			"id":              u.ID,
			"discordId":       u.DiscordID,
			"discordUsername": u.DiscordUsername,
			"discordAvatar":   u.DiscordAvatar,
		},
	}
}
