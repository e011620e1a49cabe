package tools

import (
	"context"
	"log/slog"
	"strings"
)

// Purchase is one line of a customer's order history.
type Purchase struct {
	ID      int
	Product string
}

// samplePurchases is returned for every customer; there is no lookup yet.
var samplePurchases = []Purchase{
	{ID: 1, Product: "computer mouse"},
	{ID: 2, Product: "screen protector"},
	{ID: 3, Product: "usb charging cable"},
}

// SendTextToUser returns text unchanged; the HTTP reply is the delivery channel.
func SendTextToUser(text string) string {
	return text
}

// GetCustomerInfo summarizes the purchases on record. The email is accepted
// but does not select the data.
func GetCustomerInfo(ctx context.Context, logger *slog.Logger, email string) string {
	if logger != nil {
		logger.DebugContext(ctx, "looking up customer", slog.String("email", email))
	}

	products := make([]string, 0, len(samplePurchases))
	for _, p := range samplePurchases {
		products = append(products, p.Product)
	}
	return "Customer purchased: " + strings.Join(products, ", ")
}
