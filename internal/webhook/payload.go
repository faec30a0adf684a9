package webhook

import (
	"bytes"
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// UnknownTitle stands in for the product title when the order has none.
const UnknownTitle = "unknown"

var validate = validator.New()

// Order is the subset of a Shopify order webhook this service reads.
// Everything else in the document is ignored.
type Order struct {
	ID        OrderID     `json:"id"`
	Email     *string     `json:"email"`
	Customer  *Customer   `json:"customer"`
	LineItems []*LineItem `json:"line_items"`
}

type Customer struct {
	Email *string `json:"email"`
}

type LineItem struct {
	Title *string `json:"title"`
}

// OrderID accepts the order id as a JSON number or string.
type OrderID string

func (id *OrderID) UnmarshalJSON(b []byte) error {
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = OrderID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return errors.Wrap(err, "order id")
		}
		*id = OrderID(n.String())
	}
	return nil
}

// ResolvedEmail is the top-level email, or the customer's email when the
// top-level one is missing or empty.
func (o *Order) ResolvedEmail() string {
	var customer *string
	if o.Customer != nil {
		customer = o.Customer.Email
	}
	return firstNonEmpty(o.Email, customer)
}

// ResolvedTitle is the first line item's title, or UnknownTitle.
func (o *Order) ResolvedTitle() string {
	if len(o.LineItems) > 0 && o.LineItems[0] != nil {
		if t := firstNonEmpty(o.LineItems[0].Title); t != "" {
			return t
		}
	}
	return UnknownTitle
}

// ParseOrder decodes a verified body. The document must be a JSON object
// whose known fields have the expected types. Only the resolved email is
// checked for format; an unused fallback address may be anything.
func ParseOrder(body []byte) (*Order, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("payload is not a JSON object")
	}
	var o Order
	if err := json.Unmarshal(trimmed, &o); err != nil {
		return nil, errors.Wrap(err, "decode order")
	}
	if err := validate.Var(o.ResolvedEmail(), "omitempty,email"); err != nil {
		return nil, errors.Wrap(err, "validate email")
	}
	return &o, nil
}

func firstNonEmpty(vals ...*string) string {
	for _, v := range vals {
		if v != nil && *v != "" {
			return *v
		}
	}
	return ""
}
