package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/orders"
	"storefront/internal/products"
	"storefront/internal/ticket"
	"storefront/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	user      users.User
	getErr    error
	upserted  []string
	upsertErr error
}

func (f *fakeUserStore) GetByDiscordID(ctx context.Context, discordID string) (users.User, error) {
	if f.getErr != nil {
		return users.User{}, f.getErr
	}
	return f.user, nil
}

func (f *fakeUserStore) UpsertByDiscordID(ctx context.Context, discordID, username, avatar string) (users.User, error) {
	f.upserted = append(f.upserted, discordID)
	if f.upsertErr != nil {
		return users.User{}, f.upsertErr
	}
	return users.User{ID: 1, DiscordID: discordID, DiscordUsername: username, DiscordAvatar: avatar}, nil
}

type fakeOrderStore struct {
	createErr   error
	created     []orders.Order
	setChannels map[int64]string
}

func (f *fakeOrderStore) CreateOrder(ctx context.Context, userID int64, orderNumber string, items []orders.Item, totalAmount float64) (orders.Order, error) {
	if f.createErr != nil {
		return orders.Order{}, f.createErr
	}
	order := orders.Order{
		ID:          int64(len(f.created) + 1),
		UserID:      userID,
		OrderNumber: orderNumber,
		Items:       items,
		TotalAmount: totalAmount,
		Status:      orders.StatusPending,
	}
	f.created = append(f.created, order)
	return order, nil
}

func (f *fakeOrderStore) SetTicketChannel(ctx context.Context, orderID int64, channelID string) (bool, error) {
	if f.setChannels == nil {
		f.setChannels = make(map[int64]string)
	}
	f.setChannels[orderID] = channelID
	return true, nil
}

type fakeTickets struct {
	created []ticket.Request
	err     error
}

func (f *fakeTickets) CreateTicket(ctx context.Context, req ticket.Request) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created = append(f.created, req)
	return "200000000000000001", nil
}

func testRouter(t *testing.T, d Deps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if d.Catalog == nil {
		catalog, err := products.Load()
		require.NoError(t, err)
		d.Catalog = catalog
	}
	return API(d)
}

func postCheckout(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/checkout", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCheckout(t *testing.T) {
	userStore := &fakeUserStore{user: users.User{ID: 7, DiscordID: "100000000000000001"}}
	orderStore := &fakeOrderStore{}
	tickets := &fakeTickets{}
	r := testRouter(t, Deps{Users: userStore, Orders: orderStore, Tickets: tickets})

	w := postCheckout(t, r, `{
		"discordId": "100000000000000001",
		"items": [{"name": "Sword", "price": 10, "quantity": 2}],
		"totalAmount": 20
	}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool `json:"success"`
		Order   struct {
			ID          int64   `json:"id"`
			OrderNumber string  `json:"orderNumber"`
			TotalAmount float64 `json:"totalAmount"`
		} `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Regexp(t, `^ORD-[0-9A-Z]+-[0-9A-Z]{5}$`, resp.Order.OrderNumber)
	assert.Equal(t, 20.0, resp.Order.TotalAmount)

	require.Len(t, orderStore.created, 1)
	assert.Equal(t, int64(7), orderStore.created[0].UserID)
	require.Len(t, tickets.created, 1)
	assert.Equal(t, "100000000000000001", tickets.created[0].BuyerDiscordID)
	assert.Equal(t, "200000000000000001", orderStore.setChannels[1])
}

func TestCheckoutMissingDiscordID(t *testing.T) {
	orderStore := &fakeOrderStore{}
	r := testRouter(t, Deps{Users: &fakeUserStore{}, Orders: orderStore})

	w := postCheckout(t, r, `{"items": [{"name": "Sword", "price": 10, "quantity": 1}], "totalAmount": 10}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, orderStore.created)
}

func TestCheckoutEmptyItems(t *testing.T) {
	orderStore := &fakeOrderStore{}
	r := testRouter(t, Deps{Users: &fakeUserStore{}, Orders: orderStore})

	w := postCheckout(t, r, `{"discordId": "100000000000000001", "items": [], "totalAmount": 0}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, orderStore.created)
}

func TestCheckoutNegativeTotal(t *testing.T) {
	orderStore := &fakeOrderStore{}
	r := testRouter(t, Deps{Users: &fakeUserStore{}, Orders: orderStore})

	w := postCheckout(t, r, `{
		"discordId": "100000000000000001",
		"items": [{"name": "Sword", "price": 10, "quantity": 1}],
		"totalAmount": -1
	}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, orderStore.created, "no order may be created for an invalid total")
}

func TestCheckoutNaNTotal(t *testing.T) {
	orderStore := &fakeOrderStore{}
	r := testRouter(t, Deps{Users: &fakeUserStore{}, Orders: orderStore})

	// NaN is not valid JSON, binding rejects the body outright
	w := postCheckout(t, r, `{
		"discordId": "100000000000000001",
		"items": [{"name": "Sword", "price": 10, "quantity": 1}],
		"totalAmount": NaN
	}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, orderStore.created)
}

func TestCheckoutTotalMismatch(t *testing.T) {
	orderStore := &fakeOrderStore{}
	r := testRouter(t, Deps{Users: &fakeUserStore{}, Orders: orderStore})

	w := postCheckout(t, r, `{
		"discordId": "100000000000000001",
		"items": [{"name": "Sword", "price": 10, "quantity": 2}],
		"totalAmount": 15
	}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, orderStore.created)
}

func TestCheckoutUnlinkedUser(t *testing.T) {
	userStore := &fakeUserStore{getErr: users.ErrNotFound}
	orderStore := &fakeOrderStore{}
	r := testRouter(t, Deps{Users: userStore, Orders: orderStore})

	w := postCheckout(t, r, `{
		"discordId": "100000000000000001",
		"items": [{"name": "Sword", "price": 10, "quantity": 1}],
		"totalAmount": 10
	}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "link your Discord account")
	assert.Empty(t, orderStore.created)
}

func TestCheckoutSucceedsWhenTicketFails(t *testing.T) {
	userStore := &fakeUserStore{user: users.User{ID: 7, DiscordID: "100000000000000001"}}
	orderStore := &fakeOrderStore{}
	tickets := &fakeTickets{err: fmt.Errorf("discord down")}
	r := testRouter(t, Deps{Users: userStore, Orders: orderStore, Tickets: tickets})

	w := postCheckout(t, r, `{
		"discordId": "100000000000000001",
		"items": [{"name": "Sword", "price": 10, "quantity": 1}],
		"totalAmount": 10
	}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	require.Len(t, orderStore.created, 1)
	assert.Empty(t, orderStore.setChannels, "no channel is recorded when ticket creation fails")
}
