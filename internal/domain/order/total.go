package order

import "github.com/shopspring/decimal"

// GrandTotal returns the sum of price × quantity across all line items.
// Pure decimal arithmetic; no rounding drift across accumulation.
func GrandTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.Subtotal())
	}
	return total
}
