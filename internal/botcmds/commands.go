// Package botcmds implements the staff slash commands: export_users and
// notify_new_server.
package botcmds

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"storefront/internal/users"
	"storefront/pkg/logkey"

	"github.com/bwmarrin/discordgo"
)

const (
	CommandExportUsers     = "export_users"
	CommandNotifyNewServer = "notify_new_server"
)

// Discord caps message content at 2000 characters; longer exports go out as
// a file attachment.
const messageLimit = 2000

// UserStore is the slice of the user store the commands need.
type UserStore interface {
	ListLinked(ctx context.Context) ([]users.User, error)
}

// Session is the slice of the Discord client the commands need.
type Session interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Definitions returns the application commands the bot registers on startup.
func Definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        CommandExportUsers,
			Description: "Export all linked users",
		},
		{
			Name:        CommandNotifyNewServer,
			Description: "DM every linked user an invite to the new server",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "invite_link",
					Description: "Invite link for the new server",
					Required:    true,
				},
			},
		},
	}
}

type Handler struct {
	store UserStore
}

func NewHandler(store UserStore) (*Handler, error) {
	if store == nil {
		return nil, fmt.Errorf("user store is nil")
	}
	return &Handler{store: store}, nil
}

// HandleExportUsers replies (ephemerally) with every linked user, as a file
// attachment when the list outgrows a single message.
func (h *Handler) HandleExportUsers(ctx context.Context, s Session, i *discordgo.InteractionCreate) {
	if err := deferEphemeral(s, i); err != nil {
		slog.Error("failed to ack export_users", slog.String(logkey.ERROR, err.Error()))
		return
	}

	list, err := h.store.ListLinked(ctx)
	if err != nil {
		slog.Error("failed to list users for export", slog.String(logkey.ERROR, err.Error()))
		editReply(s, i, "❌ Failed to export users")
		return
	}

	var lines []string
	for idx, u := range list {
		lines = append(lines, fmt.Sprintf("%d. %s (%s) - Linked: %s",
			idx+1, u.DiscordUsername, u.DiscordID, u.LinkedAt.Format("2006-01-02")))
	}
	userList := strings.Join(lines, "\n")
	content := fmt.Sprintf("**Exported Users (%d total)**\n```\n%s\n```", len(list), userList)

	if len(content) > messageLimit {
		shortContent := fmt.Sprintf("📋 Exported %d users", len(list))
		_, err = s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Content: &shortContent,
			Files:   []*discordgo.File{{Name: "users.txt", Reader: bytes.NewReader([]byte(userList))}},
		})
		if err != nil {
			slog.Error("failed to send user export file", slog.String(logkey.ERROR, err.Error()))
		}
		return
	}

	editReply(s, i, content)
}

// HandleNotifyNewServer DMs every linked user a migration notice carrying
// the invite link and reports success/fail counts to the invoker.
func (h *Handler) HandleNotifyNewServer(ctx context.Context, s Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	inviteLink := ""
	for _, opt := range data.Options {
		if opt.Name == "invite_link" {
			inviteLink = opt.StringValue()
		}
	}

	if err := deferEphemeral(s, i); err != nil {
		slog.Error("failed to ack notify_new_server", slog.String(logkey.ERROR, err.Error()))
		return
	}

	list, err := h.store.ListLinked(ctx)
	if err != nil {
		slog.Error("failed to list users for notify", slog.String(logkey.ERROR, err.Error()))
		editReply(s, i, "❌ Failed to send notifications")
		return
	}

	message := "🔔 **Important Notice**\n\n" +
		"Our server has been migrated to a new location.\n\n" +
		"New Server Invite: " + inviteLink + "\n\n" +
		"Your account data has been preserved."

	successCount, failCount := 0, 0
	for _, u := range list {
		channel, err := s.UserChannelCreate(u.DiscordID)
		if err == nil {
			_, err = s.ChannelMessageSend(channel.ID, message)
		}
		if err != nil {
			failCount++
			slog.Error("failed to DM user",
				slog.String(logkey.DiscordID, u.DiscordID), slog.String(logkey.ERROR, err.Error()))
			continue
		}
		successCount++
	}

	editReply(s, i, fmt.Sprintf("📨 Done!\n✅ Success: %d\n❌ Failed: %d", successCount, failCount))
}

func deferEphemeral(s Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

func editReply(s Session, i *discordgo.InteractionCreate, content string) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{Content: &content}); err != nil {
		slog.Error("failed to edit command reply", slog.String(logkey.ERROR, err.Error()))
	}
}
