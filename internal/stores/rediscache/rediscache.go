// Package rediscache caches Discord link-status lookups so the storefront's
// polling of /auth/check-link does not hammer the database.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/users"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when no cached entry exists for the Discord id.
var ErrCacheMiss = errors.New("cache miss")

const linkTTL = 60 * time.Second

type Conf struct {
	client *redis.Client
}

func NewConf(addr, password string) (*Conf, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Conf{client: client}, nil
}

func linkKey(discordID string) string {
	return "link:" + discordID
}

// GetLinkedUser returns the cached user for a Discord id.
func (c *Conf) GetLinkedUser(ctx context.Context, discordID string) (users.User, error) {
	data, err := c.client.Get(ctx, linkKey(discordID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return users.User{}, ErrCacheMiss
		}
		return users.User{}, fmt.Errorf("failed to get link cache: %w", err)
	}
	var u users.User
	if err := json.Unmarshal(data, &u); err != nil {
		return users.User{}, fmt.Errorf("failed to unmarshal cached user: %w", err)
	}
	return u, nil
}

// SetLinkedUser caches a linked user for a short TTL.
func (c *Conf) SetLinkedUser(ctx context.Context, u users.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := c.client.Set(ctx, linkKey(u.DiscordID), data, linkTTL).Err(); err != nil {
		return fmt.Errorf("failed to set link cache: %w", err)
	}
	return nil
}

// InvalidateLink drops the cached entry, used right after an OAuth upsert so
// the storefront sees the fresh profile.
func (c *Conf) InvalidateLink(ctx context.Context, discordID string) error {
	if err := c.client.Del(ctx, linkKey(discordID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate link cache: %w", err)
	}
	return nil
}
