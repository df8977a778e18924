package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"storefront/internal/orders"
	"storefront/internal/stores/kafka"
	"storefront/pkg/logkey"

	"github.com/bwmarrin/discordgo"
)

// OrderStore is the slice of the order store the handler needs.
type OrderStore interface {
	GetByID(ctx context.Context, orderID int64) (orders.Order, error)
	SetPaymentMethod(ctx context.Context, orderID int64, method string) error
}

// Producer publishes payment-selection events. May be nil when Kafka is not
// configured.
type Producer interface {
	ProduceMessage(ctx context.Context, topic string, key, value []byte) error
}

// Session is the slice of the Discord client the handler needs.
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Handler struct {
	store OrderStore
	k     Producer
}

func NewHandler(store OrderStore, k Producer) (*Handler, error) {
	if store == nil {
		return nil, fmt.Errorf("order store is nil")
	}
	return &Handler{store: store, k: k}, nil
}

// HandleButton processes a payment button click. Invalid input gets a
// user-visible error and no store mutation; a valid click persists the
// method (re-selection overwrites), disables the buttons best-effort, and
// posts the payment instructions into the ticket channel.
func (h *Handler) HandleButton(ctx context.Context, s Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	method, orderID, ok := ParseCustomID(customID)
	if !ok {
		// Not a payment button, nothing for us to do.
		return
	}

	// Ephemeral ack first, Discord gives us three seconds to respond.
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		slog.Error("failed to ack payment button", slog.String(logkey.ERROR, err.Error()))
		return
	}

	if !IsAllowed(method) {
		h.replyError(s, i, "❌ Payment method not supported.")
		return
	}

	if i.GuildID == "" {
		h.replyError(s, i, "❌ This must be used inside a server ticket channel.")
		return
	}

	order, err := h.store.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			h.replyError(s, i, "❌ Order not found.")
			return
		}
		slog.Error("failed to load order for payment selection",
			slog.Int64(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
		h.replyError(s, i, "❌ An error occurred while processing your selection.")
		return
	}

	channel, err := s.Channel(i.ChannelID, discordgo.WithContext(ctx))
	if err != nil || channel == nil || channel.Type != discordgo.ChannelTypeGuildText {
		h.replyError(s, i, "❌ Cannot send message in this channel.")
		return
	}

	if err := h.store.SetPaymentMethod(ctx, orderID, method); err != nil {
		slog.Error("failed to persist payment method",
			slog.Int64(logkey.OrderID, orderID), slog.String(logkey.Method, method),
			slog.String(logkey.ERROR, err.Error()))
		h.replyError(s, i, "❌ An error occurred while processing your selection.")
		return
	}

	h.publishSelection(ctx, order.ID, method)
	h.disableButtons(ctx, s, i, orderID)

	if err := h.postInstructions(ctx, s, i.ChannelID, method, orderID); err != nil {
		slog.Error("failed to post payment instructions",
			slog.Int64(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
		h.replyError(s, i, "❌ An error occurred while processing your selection.")
		return
	}

	content := fmt.Sprintf("✅ Payment method selected: **%s**\n\nPayment details have been posted in this ticket.", MethodLabel(method))
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		slog.Error("failed to edit payment reply", slog.String(logkey.ERROR, err.Error()))
	}

	slog.Info("payment method selected",
		slog.Int64(logkey.OrderID, orderID),
		slog.String(logkey.OrderNumber, order.OrderNumber),
		slog.String(logkey.Method, method))
}

// postInstructions sends the payment image for the chosen method into the
// ticket channel, or a textual fallback when the image is missing.
func (h *Handler) postInstructions(ctx context.Context, s Session, channelID, method string, orderID int64) error {
	imagePath := ImagePath(method)

	f, err := os.Open(imagePath)
	if err != nil {
		// Missing image must not fail silently: tell the buyer what to do.
		fallback := fmt.Sprintf(
			"⚠️ **Payment method selected:** %s\nOrder ID: **%d**\n\nPayment instructions are currently unavailable. Please contact staff for payment details.",
			MethodLabel(method), orderID)
		_, sendErr := s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{Content: fallback}, discordgo.WithContext(ctx))
		return sendErr
	}
	defer f.Close()

	_, err = s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: fmt.Sprintf(
			"💳 **Payment method selected:** %s\nPlease pay using the details in the image below.\nOrder ID: **%d**",
			MethodLabel(method), orderID),
		Files: []*discordgo.File{{Name: filepath.Base(imagePath), Reader: f}},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to send payment image: %w", err)
	}
	return nil
}

// disableButtons edits the original summary message to grey out the payment
// row. Best-effort: a failed edit only gets logged.
func (h *Handler) disableButtons(ctx context.Context, s Session, i *discordgo.InteractionCreate, orderID int64) {
	if i.Message == nil {
		return
	}
	components := []discordgo.MessageComponent{Buttons(orderID, true)}
	_, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    i.ChannelID,
		ID:         i.Message.ID,
		Components: &components,
	}, discordgo.WithContext(ctx))
	if err != nil {
		slog.Error("failed to disable payment buttons",
			slog.Int64(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
	}
}

func (h *Handler) publishSelection(ctx context.Context, orderID int64, method string) {
	if h.k == nil {
		return
	}
	event, err := json.Marshal(kafka.PaymentSelectedEvent{
		OrderID:       orderID,
		PaymentMethod: method,
		SelectedAt:    time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to marshal payment-selected event", slog.String(logkey.ERROR, err.Error()))
		return
	}
	key := []byte(fmt.Sprintf("%d", orderID))
	if err := h.k.ProduceMessage(ctx, kafka.TopicPaymentSelected, key, event); err != nil {
		slog.Error("failed to produce payment-selected event", slog.String(logkey.ERROR, err.Error()))
	}
}

func (h *Handler) replyError(s Session, i *discordgo.InteractionCreate, msg string) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &msg}); err != nil {
		slog.Error("failed to send payment error reply", slog.String(logkey.ERROR, err.Error()))
	}
}
