package render

import (
	"invoicebuilder/internal/model"

	"github.com/shopspring/decimal"
)

// Op identifies a draw instruction kind.
type Op string

const (
	OpText Op = "text"
	OpRule Op = "rule"
	OpPage Op = "page"
)

// Text alignment. Right-aligned text hangs left from X.
const (
	AlignLeft  = "left"
	AlignRight = "right"
)

// Instruction is one positioned drawing step on the A4 canvas.
// Coordinates are millimeters from the top-left corner. Rules are
// horizontal, drawn at Y from X to X2.
type Instruction struct {
	Op    Op      `json:"op"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	X2    float64 `json:"x2,omitempty"`
	Text  string  `json:"text,omitempty"`
	Size  float64 `json:"size,omitempty"`
	Align string  `json:"align,omitempty"`
}

// Fixed template geometry, millimeters on an A4 page.
const (
	marginLeft  = 14.0
	marginRight = 196.0
	colQty      = 110.0
	colRate     = 140.0
	colAmount   = 190.0
	topY        = 20.0
	bottomY     = 270.0

	// divider spacing plus the subtotal, tax and total rows
	totalsHeight = 24.0

	titleSize    = 18.0
	bodySize     = 11.0
	emphasisSize = 12.0
)

// Placeholders for missing name fields. Emails intentionally have
// none; an empty email renders empty.
const (
	placeholderFrom = "Sender Name"
	placeholderTo   = "Client Name"
	placeholderDesc = "-"
)

type layout struct {
	out []Instruction
	y   float64
}

func (l *layout) text(x float64, s string, size float64, align string) {
	l.out = append(l.out, Instruction{Op: OpText, X: x, Y: l.y, Text: s, Size: size, Align: align})
}

func (l *layout) rule(x, x2 float64) {
	l.out = append(l.out, Instruction{Op: OpRule, X: x, Y: l.y, X2: x2})
}

// itemHeader emits the line-item column headers and their rule.
func (l *layout) itemHeader() {
	l.text(marginLeft, "Description", bodySize, AlignLeft)
	l.text(colQty, "Qty", bodySize, AlignRight)
	l.text(colRate, "Rate", bodySize, AlignRight)
	l.text(colAmount, "Amount", bodySize, AlignRight)
	l.y += 4
	l.rule(marginLeft, marginRight)
	l.y += 6
}

func (l *layout) newPage() {
	l.out = append(l.out, Instruction{Op: OpPage})
	l.y = topY
}

// breakPage starts a new page and repeats the column headers when the
// cursor would run past the bottom bound mid-table.
func (l *layout) breakPage() {
	if l.y <= bottomY {
		return
	}
	l.newPage()
	l.itemHeader()
}

// Layout maps an invoice snapshot onto the fixed template, producing
// the ordered instruction sequence shared by the preview and the PDF
// export. It is pure: same snapshot, same instructions, no side
// effects on the invoice.
func Layout(inv model.Invoice) []Instruction {
	l := &layout{y: topY}

	l.text(marginLeft, "INVOICE", titleSize, AlignLeft)
	l.y += 8

	l.text(marginLeft, "Invoice #: "+inv.InvoiceNumber, bodySize, AlignLeft)
	l.text(marginRight, "Date: "+inv.Date, bodySize, AlignRight)
	l.y += 10

	l.text(marginLeft, "From:", emphasisSize, AlignLeft)
	l.text(colQty, "To:", emphasisSize, AlignLeft)
	l.y += 6

	l.text(marginLeft, fallback(inv.FromName, placeholderFrom), bodySize, AlignLeft)
	l.text(colQty, fallback(inv.ToName, placeholderTo), bodySize, AlignLeft)
	l.y += 5

	l.text(marginLeft, inv.FromEmail, bodySize, AlignLeft)
	l.text(colQty, inv.ToEmail, bodySize, AlignLeft)
	l.y += 10

	l.itemHeader()

	for _, item := range inv.Items {
		l.breakPage()
		l.text(marginLeft, fallback(item.Description, placeholderDesc), bodySize, AlignLeft)
		l.text(colQty, item.Quantity, bodySize, AlignRight)
		l.text(colRate, money(model.Numeric(item.Rate)), bodySize, AlignRight)
		l.text(colAmount, money(item.Amount), bodySize, AlignRight)
		l.y += 6
	}

	l.y += 6
	if l.y+totalsHeight > bottomY {
		// keep the totals block on one page
		l.newPage()
	}
	l.rule(colQty, marginRight)
	l.y += 6

	l.text(colRate, "Subtotal:", bodySize, AlignLeft)
	l.text(colAmount, money(inv.Subtotal), bodySize, AlignRight)
	l.y += 6

	l.text(colRate, "Tax ("+inv.TaxRate+"%):", bodySize, AlignLeft)
	l.text(colAmount, money(inv.TaxAmount), bodySize, AlignRight)
	l.y += 6

	l.text(colRate, "Total:", emphasisSize, AlignLeft)
	l.text(colAmount, money(inv.Total), emphasisSize, AlignRight)

	return l.out
}

func fallback(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}

// money formats a currency amount to exactly two decimals. Rounding to
// cents happens here and nowhere earlier.
func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
