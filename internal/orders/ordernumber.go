package orders

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const orderNumberAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateOrderNumber builds a human order number from the current time plus
// a short random suffix, e.g. ORD-M4K2V1Q8-7F3QZ. Collisions are treated as
// negligible; the unique constraint on the column is the backstop.
func GenerateOrderNumber() string {
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 36)

	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = orderNumberAlphabet[rand.IntN(len(orderNumberAlphabet))]
	}

	return strings.ToUpper(fmt.Sprintf("ORD-%s-%s", timestamp, suffix))
}
