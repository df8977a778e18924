// Package ticketapi is the bot's internal HTTP surface: ticket creation for
// the storefront API, protected by a shared-secret bearer token.
package ticketapi

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"storefront/internal/orders"
	"storefront/internal/poller"
	"storefront/internal/ticket"
	"storefront/middleware"
	"storefront/pkg/ctxmanage"
	"storefront/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// CreateTicketRequest is the wire format of the internal ticket endpoint.
type CreateTicketRequest struct {
	OrderID        int64         `json:"orderId" validate:"required,gt=0"`
	OrderNumber    string        `json:"orderNumber" validate:"required"`
	DiscordID      string        `json:"discordId" validate:"required"`
	Items          []orders.Item `json:"items"`
	TotalAmount    float64       `json:"totalAmount" validate:"gte=0"`
	PaymentMethods []string      `json:"paymentMethods"`
}

type Handler struct {
	tickets  poller.TicketCreator
	store    poller.OrderStore
	validate *validator.Validate
}

func NewHandler(tickets poller.TicketCreator, store poller.OrderStore) *Handler {
	return &Handler{
		tickets:  tickets,
		store:    store,
		validate: validator.New(),
	}
}

// API builds the internal gin engine served by the bot process.
func API(secret string, tickets poller.TicketCreator, store poller.OrderStore) *gin.Engine {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	h := NewHandler(tickets, store)
	r.Use(middleware.Logger(), gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/")
	{
		v1.Use(middleware.BearerAuth(secret))
		v1.POST("/tickets", h.CreateTicket)
	}
	return r
}

// CreateTicket opens a ticket channel for an already-persisted order and
// records the channel id on it.
func (h *Handler) CreateTicket(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("invalid ticket request body", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			slog.Error("ticket request validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing " + vErrs[0].Field()})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	channelID, err := h.tickets.CreateTicket(c.Request.Context(), ticket.Request{
		OrderID:        req.OrderID,
		OrderNumber:    req.OrderNumber,
		BuyerDiscordID: req.DiscordID,
		Items:          req.Items,
		TotalAmount:    req.TotalAmount,
	})
	if err != nil {
		slog.Error("failed to create ticket channel",
			slog.String(logkey.TraceID, traceId),
			slog.Int64(logkey.OrderID, req.OrderID),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Create channel failed"})
		return
	}

	// Guarded set-once write: a second ticket for the same order is never
	// recorded over the first.
	updated, err := h.store.SetTicketChannel(c.Request.Context(), req.OrderID, channelID)
	if err != nil {
		slog.Error("failed to record ticket channel",
			slog.String(logkey.TraceID, traceId),
			slog.Int64(logkey.OrderID, req.OrderID),
			slog.String(logkey.ERROR, err.Error()))
	} else if !updated {
		slog.Warn("order already had a ticket channel",
			slog.String(logkey.TraceID, traceId), slog.Int64(logkey.OrderID, req.OrderID))
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"ticketId":    channelID,
		"channelId":   channelID,
		"channelName": ticket.ChannelName(req.OrderNumber),
	})
}
