// Package users persists storefront accounts keyed by their linked Discord
// identity.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no user exists for the given Discord id.
var ErrNotFound = errors.New("user not found")

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// UpsertByDiscordID creates the user on first link and refreshes the profile
// fields on every later link. discord_id stays the unique key.
func (c *Conf) UpsertByDiscordID(ctx context.Context, discordID, username, avatar string) (User, error) {
	query := `
		INSERT INTO users (discord_id, discord_username, discord_avatar, linked_at, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW(), NOW())
		ON CONFLICT (discord_id) DO UPDATE
		SET discord_username = EXCLUDED.discord_username,
		    discord_avatar = EXCLUDED.discord_avatar,
		    updated_at = NOW()
		RETURNING id, discord_id, discord_username, COALESCE(discord_avatar, ''), linked_at, created_at, updated_at
	`
	var u User
	err := c.db.QueryRowContext(ctx, query, discordID, username, nullable(avatar)).Scan(
		&u.ID, &u.DiscordID, &u.DiscordUsername, &u.DiscordAvatar, &u.LinkedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return User{}, fmt.Errorf("failed to upsert user: %w", err)
	}
	return u, nil
}

// GetByDiscordID looks a user up by their Discord snowflake.
func (c *Conf) GetByDiscordID(ctx context.Context, discordID string) (User, error) {
	query := `
		SELECT id, discord_id, discord_username, COALESCE(discord_avatar, ''), linked_at, created_at, updated_at
		FROM users
		WHERE discord_id = $1
	`
	var u User
	err := c.db.QueryRowContext(ctx, query, discordID).Scan(
		&u.ID, &u.DiscordID, &u.DiscordUsername, &u.DiscordAvatar, &u.LinkedAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// ListLinked returns every user with a linked Discord identity, oldest first.
func (c *Conf) ListLinked(ctx context.Context) ([]User, error) {
	query := `
		SELECT id, discord_id, discord_username, COALESCE(discord_avatar, ''), linked_at, created_at, updated_at
		FROM users
		ORDER BY linked_at
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var list []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.DiscordID, &u.DiscordUsername, &u.DiscordAvatar,
			&u.LinkedAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return list, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
