package order

import "fmt"

// Quantity bounds for a single line item.
const (
	MinQuantity = 1
	MaxQuantity = 5
)

// Validate checks the fully assembled order against the data-model invariants:
// owner present, at least one line item, per-line snapshot completeness and
// quantity bounds, status membership, and grand total consistency. It returns
// a FieldErrors map describing every violated rule, or nil when the order is
// valid.
//
// The rule set is fixed and evaluated eagerly before persistence; a non-nil
// result must abort the enclosing transaction.
func Validate(o *Order) FieldErrors {
	errs := FieldErrors{}

	if o.CreatedBy == "" {
		errs["createdBy"] = "createdBy is required"
	}

	if len(o.Items) == 0 {
		errs["orderItems"] = "order must contain at least one item"
	}

	for i, li := range o.Items {
		field := func(name string) string {
			return fmt.Sprintf("orderItems[%d].%s", i, name)
		}
		if li.ProductID == "" {
			errs[field("productId")] = "productId is required"
		}
		if li.Name == "" {
			errs[field("name")] = "name is required"
		}
		if li.Price.IsNegative() {
			errs[field("price")] = "price cannot be negative"
		}
		if li.Quantity < MinQuantity {
			errs[field("quantity")] = fmt.Sprintf("quantity cannot be less than %d", MinQuantity)
		}
		if li.Quantity > MaxQuantity {
			errs[field("quantity")] = fmt.Sprintf("quantity cannot be more than %d", MaxQuantity)
		}
	}

	if _, err := ParseStatus(string(o.Status)); err != nil {
		errs["status"] = err.Error()
	}

	if len(o.Items) > 0 && !o.GrandTotal.Equal(GrandTotal(o.Items)) {
		errs["grandTotal"] = "grand total does not match order items"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
