package model

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem field name constants
const (
	ItemFieldDescription = "description"
	ItemFieldQuantity    = "quantity"
	ItemFieldRate        = "rate"
)

// Default tax rate applied to a fresh invoice, percent.
const DefaultTaxRate = "10"

// LineItem is one billable row of an invoice. Quantity and Rate keep
// the raw text the client sent; Amount is always derived from their
// coerced values and is never set independently.
type LineItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    string          `json:"quantity"`
	Rate        string          `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// Invoice is the draft being edited in a session. Subtotal, TaxAmount
// and Total are derived from Items and TaxRate; they carry full
// precision and are only rounded at render time.
type Invoice struct {
	InvoiceNumber string          `json:"invoice_number"`
	Date          string          `json:"date"`
	FromName      string          `json:"from_name"`
	FromEmail     string          `json:"from_email"`
	ToName        string          `json:"to_name"`
	ToEmail       string          `json:"to_email"`
	Items         []LineItem      `json:"items"`
	TaxRate       string          `json:"tax_rate"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Total         decimal.Decimal `json:"total"`
}

// NewLineItem returns an empty line item with a fresh unique id,
// quantity 1 and rate 0.
func NewLineItem() LineItem {
	return LineItem{
		ID:       uuid.NewString(),
		Quantity: "1",
		Rate:     "0",
		Amount:   decimal.Zero,
	}
}

// NewInvoice returns a draft with a single empty line item and the
// default tax rate.
func NewInvoice(invoiceNumber, date string) Invoice {
	return Invoice{
		InvoiceNumber: invoiceNumber,
		Date:          date,
		Items:         []LineItem{NewLineItem()},
		TaxRate:       DefaultTaxRate,
		Subtotal:      decimal.Zero,
		TaxAmount:     decimal.Zero,
		Total:         decimal.Zero,
	}
}

// Numeric coerces a raw numeric field for derived computation.
// Non-numeric or empty input counts as zero; the raw text stays on the
// record for display.
func Numeric(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return d
}
