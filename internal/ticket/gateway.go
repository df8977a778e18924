// Package ticket wraps the Discord calls that turn an order into a private
// ticket channel: channel creation with permission overwrites and the order
// summary message carrying the payment buttons.
package ticket

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/orders"
	"storefront/internal/payment"

	"github.com/bwmarrin/discordgo"
)

// Config identifies the guild surface tickets are created on. GuildID,
// CategoryID and BotUserID are required; the staff/owner ids are optional
// and validated only when set.
type Config struct {
	GuildID     string
	CategoryID  string
	BotUserID   string
	StaffRoleID string
	OwnerRoleID string
	OwnerUserID string
}

func (c Config) Validate() error {
	if !IsSnowflake(c.GuildID) {
		return fmt.Errorf("guild id is not a valid snowflake: %q", c.GuildID)
	}
	if !IsSnowflake(c.CategoryID) {
		return fmt.Errorf("ticket category id is not a valid snowflake: %q", c.CategoryID)
	}
	if !IsSnowflake(c.BotUserID) {
		return fmt.Errorf("bot user id is not a valid snowflake: %q", c.BotUserID)
	}
	if c.StaffRoleID != "" && !IsSnowflake(c.StaffRoleID) {
		return fmt.Errorf("staff role id is not a valid snowflake: %q", c.StaffRoleID)
	}
	if c.OwnerRoleID != "" && !IsSnowflake(c.OwnerRoleID) {
		return fmt.Errorf("owner role id is not a valid snowflake: %q", c.OwnerRoleID)
	}
	if c.OwnerUserID != "" && !IsSnowflake(c.OwnerUserID) {
		return fmt.Errorf("owner user id is not a valid snowflake: %q", c.OwnerUserID)
	}
	return nil
}

// StaffMention returns the mention string pinged in new tickets. Owner role
// wins over owner user, which wins over the staff role. Empty when none is
// configured.
func (c Config) StaffMention() string {
	switch {
	case c.OwnerRoleID != "":
		return "<@&" + c.OwnerRoleID + ">"
	case c.OwnerUserID != "":
		return "<@" + c.OwnerUserID + ">"
	case c.StaffRoleID != "":
		return "<@&" + c.StaffRoleID + ">"
	}
	return ""
}

// Session is the slice of the Discord client the gateway needs.
type Session interface {
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Gateway struct {
	session Session
	cfg     Config
}

func NewGateway(session Session, cfg Config) (*Gateway, error) {
	if session == nil {
		return nil, fmt.Errorf("session is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ticket config: %w", err)
	}
	return &Gateway{session: session, cfg: cfg}, nil
}

// Request carries everything the gateway needs to open a ticket.
type Request struct {
	OrderID        int64
	OrderNumber    string
	BuyerDiscordID string
	Items          []orders.Item
	TotalAmount    float64
}

// CreateTicket creates the private ticket channel and posts the order
// summary with the payment buttons. It returns the new channel id. Nothing
// here retries; the caller owns retry policy.
func (g *Gateway) CreateTicket(ctx context.Context, req Request) (string, error) {
	if req.OrderNumber == "" {
		return "", fmt.Errorf("order number is empty")
	}
	if !IsSnowflake(req.BuyerDiscordID) {
		return "", fmt.Errorf("buyer discord id is not a valid snowflake: %q", req.BuyerDiscordID)
	}

	channel, err := g.session.GuildChannelCreateComplex(g.cfg.GuildID, discordgo.GuildChannelCreateData{
		Name:                 ChannelName(req.OrderNumber),
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             g.cfg.CategoryID,
		PermissionOverwrites: g.overwrites(req.BuyerDiscordID),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to create ticket channel: %w", err)
	}

	message := &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{g.summaryEmbed(req)},
		Components: []discordgo.MessageComponent{payment.Buttons(req.OrderID, false)},
	}
	if mention := g.cfg.StaffMention(); mention != "" {
		message.Content = mention
	}
	if _, err := g.session.ChannelMessageSendComplex(channel.ID, message, discordgo.WithContext(ctx)); err != nil {
		return "", fmt.Errorf("failed to send ticket summary: %w", err)
	}

	return channel.ID, nil
}

// overwrites builds the permission set applied atomically at channel
// creation: everyone hidden, buyer and bot in, staff/owner in when
// configured.
func (g *Gateway) overwrites(buyerID string) []*discordgo.PermissionOverwrite {
	memberBase := int64(discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory)

	overwrites := []*discordgo.PermissionOverwrite{
		{
			// The @everyone role shares the guild's id.
			ID:   g.cfg.GuildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    buyerID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: memberBase,
		},
		{
			ID:    g.cfg.BotUserID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: memberBase | discordgo.PermissionManageChannels,
		},
	}

	if g.cfg.StaffRoleID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    g.cfg.StaffRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: memberBase,
		})
	}

	if g.cfg.OwnerRoleID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    g.cfg.OwnerRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: memberBase | discordgo.PermissionManageChannels,
		})
	} else if g.cfg.OwnerUserID != "" {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    g.cfg.OwnerUserID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: memberBase | discordgo.PermissionManageChannels,
		})
	}

	return overwrites
}

func (g *Gateway) summaryEmbed(req Request) *discordgo.MessageEmbed {
	var lines []string
	for i, item := range req.Items {
		line := item.Price * float64(item.Quantity)
		lines = append(lines, fmt.Sprintf("%d. **%s** x%d - %s", i+1, item.Name, item.Quantity, FormatCurrency(line)))
	}
	itemsList := strings.Join(lines, "\n")
	if itemsList == "" {
		itemsList = "No items"
	}

	return &discordgo.MessageEmbed{
		Color:       0x116466,
		Title:       fmt.Sprintf("🧾 Order: %s", req.OrderNumber),
		Description: fmt.Sprintf("Customer: <@%s>", req.BuyerDiscordID),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "📦 Items", Value: itemsList},
			{Name: "💰 Total", Value: FormatCurrency(req.TotalAmount), Inline: true},
			{Name: "📅 Date", Value: time.Now().Format("2006-01-02 15:04"), Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "Select a payment method below"},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
