package order

import (
	"fmt"
	"sort"
	"strings"
)

// InsufficientStockError indicates a requested quantity exceeds the product's
// currently available quantity. Name and Available feed the human-readable
// response detail.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"item quantity cannot exceed current product quantity, current %s quantity: %d",
		e.Name, e.Available,
	)
}

// ProductNotFoundError indicates a requested line references a product that
// does not exist. The whole order fails; lines are never silently skipped.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// FieldErrors is a structured set of field-level validation failures,
// keyed by field path.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(e[f])
	}
	return b.String()
}
