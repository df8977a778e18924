// Package handlers is the storefront's public HTTP API: checkout, the
// product catalog and Discord account linking.
package handlers

import (
	"context"
	"net/http"
	"os"

	"storefront/internal/auth"
	"storefront/internal/orders"
	"storefront/internal/poller"
	"storefront/internal/products"
	"storefront/internal/users"
	"storefront/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// UserStore is the slice of the user store the handlers need.
type UserStore interface {
	GetByDiscordID(ctx context.Context, discordID string) (users.User, error)
	UpsertByDiscordID(ctx context.Context, discordID, username, avatar string) (users.User, error)
}

// OrderStore is the slice of the order store the handlers need.
type OrderStore interface {
	CreateOrder(ctx context.Context, userID int64, orderNumber string, items []orders.Item, totalAmount float64) (orders.Order, error)
	SetTicketChannel(ctx context.Context, orderID int64, channelID string) (bool, error)
}

// LinkCache caches link-status lookups. May be nil when Redis is not
// configured.
type LinkCache interface {
	GetLinkedUser(ctx context.Context, discordID string) (users.User, error)
	SetLinkedUser(ctx context.Context, u users.User) error
	InvalidateLink(ctx context.Context, discordID string) error
}

// Producer publishes order events. May be nil when Kafka is not configured.
type Producer interface {
	ProduceMessage(ctx context.Context, topic string, key, value []byte) error
}

type Handler struct {
	u        UserStore
	o        OrderStore
	catalog  *products.Catalog
	tickets  poller.TicketCreator
	cache    LinkCache
	k        Producer
	oauth    auth.Config
	stateKey string
	baseURL  string
	validate *validator.Validate
}

// Deps bundles everything the API needs. tickets, cache and k are optional.
type Deps struct {
	Users    UserStore
	Orders   OrderStore
	Catalog  *products.Catalog
	Tickets  poller.TicketCreator
	Cache    LinkCache
	Kafka    Producer
	OAuth    auth.Config
	StateKey string
	BaseURL  string
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		u:        d.Users,
		o:        d.Orders,
		catalog:  d.Catalog,
		tickets:  d.Tickets,
		cache:    d.Cache,
		k:        d.Kafka,
		oauth:    d.OAuth,
		stateKey: d.StateKey,
		baseURL:  d.BaseURL,
		validate: validator.New(),
	}
}

// API builds the storefront gin engine.
func API(d Deps) *gin.Engine {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	h := NewHandler(d)
	r.Use(middleware.Logger(), gin.Recovery())

	r.GET("/ping", healthCheck)
	r.POST("/checkout", h.Checkout)

	p := r.Group("/products")
	{
		p.GET("/list", h.ListProducts)
		p.GET("/view/:name", h.GetProduct)
	}

	a := r.Group("/auth")
	{
		a.GET("/discord", h.DiscordRedirect)
		a.GET("/discord/callback", h.DiscordCallback)
		a.GET("/check-link", h.CheckLink)
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
