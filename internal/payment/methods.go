// Package payment owns the payment-method selection flow: the button custom
// ids, the allow-list of payment rails, and the payment-instructions images.
package payment

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// The three supported payment rails.
const (
	MethodPaypal   = "paypal"
	MethodLitecoin = "ltc"
	MethodApplePay = "applepay"
)

var methodLabels = map[string]string{
	MethodPaypal:   "PayPal",
	MethodLitecoin: "Litecoin (LTC)",
	MethodApplePay: "Apple Pay",
}

// Methods returns the allowed payment methods in button order.
func Methods() []string {
	return []string{MethodPaypal, MethodLitecoin, MethodApplePay}
}

// IsAllowed reports whether method is one of the supported rails.
func IsAllowed(method string) bool {
	_, ok := methodLabels[method]
	return ok
}

// MethodLabel returns the human label for a method, falling back to the raw
// value for anything outside the allow-list.
func MethodLabel(method string) string {
	if label, ok := methodLabels[method]; ok {
		return label
	}
	return method
}

// customIDRe matches the button identifier format payment_{method}_{orderId}.
var customIDRe = regexp.MustCompile(`^payment_(\w+)_(\d+)$`)

// CustomID encodes a method and order id into a button identifier.
func CustomID(method string, orderID int64) string {
	return "payment_" + method + "_" + strconv.FormatInt(orderID, 10)
}

// ParseCustomID decodes a button identifier. The method is lowercased but
// not checked against the allow-list; ok is false for anything that does not
// match the format or whose order id is not a positive integer.
func ParseCustomID(customID string) (method string, orderID int64, ok bool) {
	m := customIDRe.FindStringSubmatch(customID)
	if m == nil {
		return "", 0, false
	}
	orderID, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil || orderID <= 0 {
		return "", 0, false
	}
	return strings.ToLower(m[1]), orderID, true
}

// Buttons builds the row of payment buttons for an order.
func Buttons(orderID int64, disabled bool) discordgo.ActionsRow {
	return discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    methodLabels[MethodPaypal],
				Style:    discordgo.PrimaryButton,
				CustomID: CustomID(MethodPaypal, orderID),
				Emoji:    &discordgo.ComponentEmoji{Name: "💳"},
				Disabled: disabled,
			},
			discordgo.Button{
				Label:    methodLabels[MethodLitecoin],
				Style:    discordgo.SuccessButton,
				CustomID: CustomID(MethodLitecoin, orderID),
				Emoji:    &discordgo.ComponentEmoji{Name: "🪙"},
				Disabled: disabled,
			},
			discordgo.Button{
				Label:    methodLabels[MethodApplePay],
				Style:    discordgo.SecondaryButton,
				CustomID: CustomID(MethodApplePay, orderID),
				Emoji:    &discordgo.ComponentEmoji{Name: "🍎"},
				Disabled: disabled,
			},
		},
	}
}

// ImagePath resolves the payment-instructions image for a method. A
// PAYMENT_<METHOD>_IMAGE environment value overrides the default
// public/payments-images/<method>.png, both relative to the working
// directory.
func ImagePath(method string) string {
	envKey := "PAYMENT_" + strings.ToUpper(method) + "_IMAGE"
	if configured := strings.TrimSpace(os.Getenv(envKey)); configured != "" {
		return filepath.Join(".", strings.TrimLeft(configured, "/"))
	}
	return filepath.Join("public", "payments-images", method+".png")
}
