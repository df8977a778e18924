package main

import (
	"log/slog"
	"os"

	"storefront/handlers"
	"storefront/internal/auth"
	"storefront/internal/botclient"
	"storefront/internal/consul"
	"storefront/internal/orders"
	"storefront/internal/products"
	"storefront/internal/stores/kafka"
	"storefront/internal/stores/postgres"
	"storefront/internal/stores/rediscache"
	"storefront/internal/users"
	"storefront/pkg/logkey"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("api startup failed", slog.String(logkey.ERROR, err.Error()))
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

	catalog, err := products.Load()
	if err != nil {
		return err
	}

	consulClient, err := consul.NewClient()
	if err != nil {
		return err
	}
	tickets, err := botclient.New(consulClient, mustEnv("BOT_API_SECRET"))
	if err != nil {
		return err
	}

	deps := handlers.Deps{
		Users:   userConf,
		Orders:  orderConf,
		Catalog: catalog,
		Tickets: tickets,
		OAuth: auth.Config{
			ClientID:     os.Getenv("DISCORD_OAUTH_CLIENT_ID"),
			ClientSecret: os.Getenv("DISCORD_OAUTH_CLIENT_SECRET"),
			RedirectURI:  os.Getenv("DISCORD_OAUTH_REDIRECT_URI"),
		},
		StateKey: mustEnv("OAUTH_STATE_SECRET"),
		BaseURL:  mustEnv("BASE_URL"),
	}

	// Kafka and Redis are optional; the storefront degrades gracefully
	// without them.
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		k, err := kafka.NewConf(brokers)
		if err != nil {
			return err
		}
		defer k.Close()
		deps.Kafka = k
	} else {
		slog.Warn("KAFKA_BROKERS not set, order events disabled")
	}

	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		cache, err := rediscache.NewConf(redisAddr, os.Getenv("REDIS_PASSWORD"))
		if err != nil {
			return err
		}
		deps.Cache = cache
	} else {
		slog.Warn("REDIS_ADDR not set, link cache disabled")
	}

	r := handlers.API(deps)

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	slog.Info("storefront api listening", slog.String("Port", port))
	return r.Run(":" + port)
}

func mustEnv(name string) string {
	v := os.Getenv(name)
	if v == "" {
		slog.Error("missing required env", slog.String("Name", name))
		os.Exit(1)
	}
	return v
}
