// Package botclient calls the bot's internal ticket endpoint from the
// storefront API, discovering the instance through Consul and authenticating
// with the shared secret.
package botclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront/internal/consul"
	"storefront/internal/payment"
	"storefront/internal/ticket"

	consulapi "github.com/hashicorp/consul/api"
)

// ServiceName is the Consul service the bot registers its internal API as.
const ServiceName = "tickets"

type Client struct {
	consul *consulapi.Client
	secret string
	http   *http.Client
}

func New(consulClient *consulapi.Client, secret string) (*Client, error) {
	if consulClient == nil {
		return nil, fmt.Errorf("consul client is nil")
	}
	return &Client{
		consul: consulClient,
		secret: secret,
		http:   &http.Client{Timeout: 15 * time.Second},
	}, nil
}

type createTicketRequest struct {
	OrderID        int64    `json:"orderId"`
	OrderNumber    string   `json:"orderNumber"`
	DiscordID      string   `json:"discordId"`
	Items          any      `json:"items"`
	TotalAmount    float64  `json:"totalAmount"`
	PaymentMethods []string `json:"paymentMethods"`
}

type createTicketResponse struct {
	OK        bool   `json:"ok"`
	TicketID  string `json:"ticketId"`
	ChannelID string `json:"channelId"`
}

// CreateTicket asks the bot to open a ticket channel and returns its id.
func (c *Client) CreateTicket(ctx context.Context, req ticket.Request) (string, error) {
	address, port, err := consul.GetServiceAddress(c.consul, ServiceName)
	if err != nil {
		return "", fmt.Errorf("ticket service unavailable: %w", err)
	}

	payload, err := json.Marshal(createTicketRequest{
		OrderID:        req.OrderID,
		OrderNumber:    req.OrderNumber,
		DiscordID:      req.BuyerDiscordID,
		Items:          req.Items,
		TotalAmount:    req.TotalAmount,
		PaymentMethods: payment.Methods(),
	})
	if err != nil {
		return "", fmt.Errorf("error marshaling ticket request: %w", err)
	}

	url := fmt.Sprintf("http://%s:%d/tickets", address, port)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("error calling ticket service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ticket service returned %d: %s", resp.StatusCode, string(body))
	}

	var out createTicketResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("error decoding ticket response: %w", err)
	}
	if !out.OK || out.TicketID == "" {
		return "", fmt.Errorf("ticket service did not return a ticket id")
	}
	return out.TicketID, nil
}
