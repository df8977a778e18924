package ticket

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	snowflakeRe   = regexp.MustCompile(`^\d{17,20}$`)
	channelNameRe = regexp.MustCompile(`[^a-z0-9-]`)
)

// IsSnowflake reports whether v looks like a Discord id (17-20 digits).
func IsSnowflake(v string) bool {
	return snowflakeRe.MatchString(v)
}

// ChannelName derives the ticket channel name from an order number:
// lowercased, every character outside [a-z0-9-] replaced by '-', truncated
// to 90 characters. Deterministic so retries land on the same name.
func ChannelName(orderNumber string) string {
	name := "ticket-" + strings.ToLower(orderNumber)
	name = channelNameRe.ReplaceAllString(name, "-")
	if len(name) > 90 {
		name = name[:90]
	}
	return name
}

// FormatCurrency renders an amount the way ticket messages show money.
func FormatCurrency(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}
