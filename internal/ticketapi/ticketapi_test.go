package ticketapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/orders"
	"storefront/internal/ticket"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "internal-secret"

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

type fakeStore struct {
	updated  bool
	setCalls []int64
}

func (f *fakeStore) PendingWithoutTicket(ctx context.Context, limit int) ([]orders.PendingOrder, error) {
	return nil, nil
}

func (f *fakeStore) SetTicketChannel(ctx context.Context, orderID int64, channelID string) (bool, error) {
	f.setCalls = append(f.setCalls, orderID)
	return f.updated, nil
}

func postTickets(t *testing.T, r *gin.Engine, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/tickets", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func validBody() string {
	return `{
		"orderId": 42,
		"orderNumber": "ORD-TEST-1",
		"discordId": "100000000000000001",
		"items": [{"name": "Sword", "price": 10, "quantity": 2}],
		"totalAmount": 20
	}`
}

func TestCreateTicket(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tickets := &fakeTickets{}
	store := &fakeStore{updated: true}
	r := API(testSecret, tickets, store)

	w := postTickets(t, r, testSecret, validBody())

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		OK          bool   `json:"ok"`
		TicketID    string `json:"ticketId"`
		ChannelName string `json:"channelName"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "200000000000000001", resp.TicketID)
	assert.Equal(t, "ticket-ord-test-1", resp.ChannelName)

	require.Len(t, tickets.created, 1)
	assert.Equal(t, int64(42), tickets.created[0].OrderID)
	assert.Equal(t, []int64{42}, store.setCalls)
}

func TestCreateTicketRequiresBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tickets := &fakeTickets{}
	r := API(testSecret, tickets, &fakeStore{updated: true})

	w := postTickets(t, r, "", validBody())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postTickets(t, r, "wrong-secret", validBody())
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Empty(t, tickets.created)
}

func TestCreateTicketValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tickets := &fakeTickets{}
	r := API(testSecret, tickets, &fakeStore{updated: true})

	w := postTickets(t, r, testSecret, `{"orderNumber": "ORD-TEST-1", "discordId": "100000000000000001"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "OrderID")

	w = postTickets(t, r, testSecret, `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, tickets.created)
}

func TestCreateTicketChannelFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tickets := &fakeTickets{err: fmt.Errorf("discord down")}
	store := &fakeStore{}
	r := API(testSecret, tickets, store)

	w := postTickets(t, r, testSecret, validBody())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, store.setCalls)
}

func TestPingIsUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := API(testSecret, &fakeTickets{}, &fakeStore{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
