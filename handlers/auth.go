package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	"storefront/internal/auth"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// DiscordRedirect sends the browser to Discord's authorization page. An
// optional ?redirect= is carried through the flow inside the signed state.
func (h *Handler) DiscordRedirect(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if err := h.oauth.Validate(); err != nil {
		slog.Error("oauth not configured", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Discord OAuth is not configured"})
		return
	}

	state := ""
	if redirect := c.Query("redirect"); redirect != "" {
		signed, err := auth.SignState(h.stateKey, redirect)
		if err != nil {
			slog.Error("failed to sign oauth state", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to start Discord link"})
			return
		}
		state = signed
	}

	c.Redirect(http.StatusTemporaryRedirect, h.oauth.AuthorizeURL(state))
}

// DiscordCallback finishes the authorization-code exchange, upserts the user
// keyed by Discord id, and redirects back to the storefront with the linked
// identity in the query string.
func (h *Handler) DiscordCallback(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	if errParam := c.Query("error"); errParam != "" {
		c.Redirect(http.StatusTemporaryRedirect, h.linkRedirect("", url.Values{"error": {errParam}}))
		return
	}

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusTemporaryRedirect, h.linkRedirect("", url.Values{"error": {"no_code"}}))
		return
	}

	token, err := h.oauth.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		slog.Error("discord token exchange failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.Redirect(http.StatusTemporaryRedirect, h.linkRedirect("", url.Values{"error": {"token_exchange_failed"}}))
		return
	}

	discordUser, err := h.oauth.FetchUser(c.Request.Context(), token.AccessToken)
	if err != nil {
		slog.Error("discord user fetch failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.Redirect(http.StatusTemporaryRedirect, h.linkRedirect("", url.Values{"error": {"user_fetch_failed"}}))
		return
	}

	user, err := h.u.UpsertByDiscordID(c.Request.Context(), discordUser.ID, discordUser.Username, discordUser.Avatar)
	if err != nil {
		slog.Error("failed to upsert linked user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.Redirect(http.StatusTemporaryRedirect, h.linkRedirect("", url.Values{"error": {"link_failed"}}))
		return
	}

	if h.cache != nil {
		if err := h.cache.InvalidateLink(c.Request.Context(), user.DiscordID); err != nil {
			slog.Error("failed to invalidate link cache", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
	}

	// Identity travels in the redirect query string rather than a session.
	q := url.Values{
		"success":         {"true"},
		"discordId":       {user.DiscordID},
		"discordUsername": {user.DiscordUsername},
	}
	if user.DiscordAvatar != "" {
		q.Set("discordAvatar", user.DiscordAvatar)
	}

	target := ""
	if state := c.Query("state"); state != "" {
		if redirect, err := auth.ParseState(h.stateKey, state); err == nil {
			target = redirect
		}
	}

	slog.Info("discord account linked",
		slog.String(logkey.TraceID, traceId), slog.String(logkey.DiscordID, user.DiscordID))
	c.Redirect(http.StatusTemporaryRedirect, h.linkRedirect(target, q))
}

// linkRedirect builds the storefront URL the callback returns the browser
// to. target falls back to the link-discord page.
func (h *Handler) linkRedirect(target string, q url.Values) string {
	if target == "" {
		target = "/link-discord"
	}
	return h.baseURL + target + "?" + q.Encode()
}
