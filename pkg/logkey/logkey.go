// Package logkey holds the keys used for structured logging so they stay
// consistent across handlers, stores and background tasks.
package logkey

const (
	TraceID = "Trace ID"
	ERROR   = "Error"

	OrderID     = "OrderID"
	OrderNumber = "OrderNumber"
	DiscordID   = "DiscordID"
	ChannelID   = "ChannelID"
	Method      = "Method"
)
