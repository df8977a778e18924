package users

import "time"

// User is a storefront account linked to a Discord identity.
type User struct {
	ID              int64     `json:"id"`
	DiscordID       string    `json:"discord_id"`       // Discord snowflake, unique across users
	DiscordUsername string    `json:"discord_username"` // Display name at link time
	DiscordAvatar   string    `json:"discord_avatar"`   // Avatar hash, may be empty
	LinkedAt        time.Time `json:"linked_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
