package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"storefront/internal/botclient"
	"storefront/internal/botcmds"
	"storefront/internal/consul"
	"storefront/internal/orders"
	"storefront/internal/payment"
	"storefront/internal/poller"
	"storefront/internal/stores/kafka"
	"storefront/internal/stores/postgres"
	"storefront/internal/ticket"
	"storefront/internal/ticketapi"
	"storefront/internal/users"
	"storefront/pkg/logkey"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("bot startup failed", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func run() error {
	db, err := postgres.OpenDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return err
	}

	userConf, err := users.NewConf(db)
	if err != nil {
		return err
	}
	orderConf, err := orders.NewConf(db)
	if err != nil {
		return err
	}

	session, err := discordgo.New("Bot " + mustEnv("DISCORD_BOT_TOKEN"))
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open discord gateway: %w", err)
	}
	defer session.Close()
	slog.Info("bot is ready", slog.String("User", session.State.User.Username))

	gateway, err := ticket.NewGateway(session, ticket.Config{
		GuildID:     mustEnv("DISCORD_GUILD_ID"),
		CategoryID:  mustEnv("DISCORD_TICKET_CATEGORY_ID"),
		BotUserID:   session.State.User.ID,
		StaffRoleID: os.Getenv("DISCORD_STAFF_ROLE_ID"),
		OwnerRoleID: os.Getenv("DISCORD_OWNER_ROLE_ID"),
		OwnerUserID: os.Getenv("DISCORD_OWNER_USER_ID"),
	})
	if err != nil {
		return err
	}

	// Kafka is optional; selection events are best-effort anyway.
	var k *kafka.Conf
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		k, err = kafka.NewConf(brokers)
		if err != nil {
			return err
		}
		defer k.Close()
	} else {
		slog.Warn("KAFKA_BROKERS not set, payment events disabled")
	}

	paymentHandler, err := payment.NewHandler(orderConf, producerOrNil(k))
	if err != nil {
		return err
	}
	commandHandler, err := botcmds.NewHandler(userConf)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionMessageComponent:
			paymentHandler.HandleButton(ctx, s, i)
		case discordgo.InteractionApplicationCommand:
			switch i.ApplicationCommandData().Name {
			case botcmds.CommandExportUsers:
				commandHandler.HandleExportUsers(ctx, s, i)
			case botcmds.CommandNotifyNewServer:
				commandHandler.HandleNotifyNewServer(ctx, s, i)
			}
		}
	})

	if err := registerCommands(session); err != nil {
		// Command registration failing (missing scope, 403) should not take
		// the bot down; tickets and buttons still work.
		slog.Error("failed to register slash commands", slog.String(logkey.ERROR, err.Error()))
	}

	interval := 10 * time.Second
	if v := os.Getenv("ORDER_POLL_INTERVAL_SECONDS"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			interval = time.Duration(seconds) * time.Second
		}
	}
	p := poller.New(orderConf, gateway, interval, 5)
	go p.Run(ctx)

	// Internal ticket API, discovered by the storefront through Consul.
	apiPort := 8090
	if v := os.Getenv("BOT_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			apiPort = port
		}
	}
	go func() {
		r := ticketapi.API(mustEnv("BOT_API_SECRET"), gateway, orderConf)
		slog.Info("bot internal api listening", slog.Int("Port", apiPort))
		if err := r.Run(fmt.Sprintf(":%d", apiPort)); err != nil {
			slog.Error("bot internal api stopped", slog.String(logkey.ERROR, err.Error()))
		}
	}()

	if err := registerWithConsul(apiPort); err != nil {
		slog.Error("consul registration failed", slog.String(logkey.ERROR, err.Error()))
	}

	<-ctx.Done()
	slog.Info("shutting down bot")
	return nil
}

func registerCommands(session *discordgo.Session) error {
	appID := session.State.User.ID
	guildID := os.Getenv("DISCORD_GUILD_ID")
	for _, cmd := range botcmds.Definitions() {
		if _, err := session.ApplicationCommandCreate(appID, guildID, cmd); err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
	}
	return nil
}

func registerWithConsul(port int) error {
	client, err := consul.NewClient()
	if err != nil {
		return err
	}
	address := os.Getenv("BOT_API_ADDRESS")
	if address == "" {
		address = "localhost"
	}
	return consul.RegisterService(client, botclient.ServiceName, botclient.ServiceName+"-1", address, port)
}

func mustEnv(name string) string {
	v := os.Getenv(name)
	if v == "" {
		slog.Error("missing required env", slog.String("Name", name))
		os.Exit(1)
	}
	return v
}

// producerOrNil keeps a typed-nil *kafka.Conf from sneaking into the
// Producer interface.
func producerOrNil(k *kafka.Conf) payment.Producer {
	if k == nil {
		return nil
	}
	return k
}
