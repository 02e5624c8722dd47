package render

import (
	"encoding/json"
	"testing"

	"invoicebuilder/internal/model"
	"invoicebuilder/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInvoice(t *testing.T) model.Invoice {
	t.Helper()
	s := store.New(model.NewInvoice("INV-1001", "2026-08-31"))
	_, err := s.UpdateItem(0, model.ItemFieldDescription, "Widget")
	require.NoError(t, err)
	_, err = s.UpdateItem(0, model.ItemFieldQuantity, "2")
	require.NoError(t, err)
	_, err = s.UpdateItem(0, model.ItemFieldRate, "10.00")
	require.NoError(t, err)
	return s.Snapshot()
}

func texts(instructions []Instruction) []string {
	out := make([]string, 0, len(instructions))
	for _, in := range instructions {
		if in.Op == OpText {
			out = append(out, in.Text)
		}
	}
	return out
}

func findText(instructions []Instruction, text string) (Instruction, bool) {
	for _, in := range instructions {
		if in.Op == OpText && in.Text == text {
			return in, true
		}
	}
	return Instruction{}, false
}

func TestLayoutSectionOrder(t *testing.T) {
	out := Layout(testInvoice(t))
	require.NotEmpty(t, out)

	assert.Equal(t, OpText, out[0].Op)
	assert.Equal(t, "INVOICE", out[0].Text)
	assert.Equal(t, titleSize, out[0].Size)

	all := texts(out)
	order := []string{
		"INVOICE",
		"Invoice #: INV-1001",
		"Date: 2026-08-31",
		"From:",
		"To:",
		"Description",
		"Qty",
		"Rate",
		"Amount",
		"Widget",
		"Subtotal:",
		"Tax (10%):",
		"Total:",
	}
	last := -1
	for _, want := range order {
		found := -1
		for i := last + 1; i < len(all); i++ {
			if all[i] == want {
				found = i
				break
			}
		}
		require.GreaterOrEqual(t, found, 0, "missing or out of order: %q", want)
		last = found
	}
}

func TestLayoutIsIdempotent(t *testing.T) {
	inv := testInvoice(t)

	first := Layout(inv)
	second := Layout(inv)
	assert.Equal(t, first, second)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b, "same snapshot must produce byte-identical instructions")
}

func TestLayoutFormatsTotalsToTwoDecimals(t *testing.T) {
	out := Layout(testInvoice(t))

	subtotal, ok := findText(out, "$20.00")
	require.True(t, ok)
	assert.Equal(t, colAmount, subtotal.X)
	assert.Equal(t, AlignRight, subtotal.Align)

	_, ok = findText(out, "$2.00")
	assert.True(t, ok, "tax amount row")

	total, ok := findText(out, "$22.00")
	require.True(t, ok, "total row")
	assert.Equal(t, emphasisSize, total.Size)

	label, ok := findText(out, "Total:")
	require.True(t, ok)
	assert.Equal(t, emphasisSize, label.Size)
}

func TestLayoutRoundsOnlyAtRenderTime(t *testing.T) {
	s := store.New(model.NewInvoice("INV-1001", "2026-08-31"))
	_, err := s.UpdateItem(0, model.ItemFieldRate, "9.995")
	require.NoError(t, err)

	inv := s.Snapshot()
	require.Equal(t, "9.995", inv.Items[0].Amount.String(), "model keeps the unrounded product")

	out := Layout(inv)
	_, ok := findText(out, "$10.00")
	assert.True(t, ok, "rendered amount rounds to two decimals")
}

func TestLayoutPlaceholders(t *testing.T) {
	inv := model.NewInvoice("INV-1001", "2026-08-31")
	out := Layout(inv)

	from, ok := findText(out, "Sender Name")
	require.True(t, ok)
	assert.Equal(t, marginLeft, from.X)

	_, ok = findText(out, "Client Name")
	assert.True(t, ok)

	// Empty description renders a dash; empty emails render empty, no
	// placeholder.
	_, ok = findText(out, "-")
	assert.True(t, ok)
	empty := 0
	for _, in := range out {
		if in.Op == OpText && in.Text == "" {
			empty++
		}
	}
	assert.Equal(t, 2, empty, "both email slots render as empty text")
}

func TestLayoutUsesNamesWhenPresent(t *testing.T) {
	inv := model.NewInvoice("INV-1001", "2026-08-31")
	inv.FromName = "Acme Co"
	inv.ToName = "Globex"
	inv.FromEmail = "billing@acme.test"
	inv.ToEmail = "ap@globex.test"

	out := Layout(inv)
	for _, want := range []string{"Acme Co", "Globex", "billing@acme.test", "ap@globex.test"} {
		_, ok := findText(out, want)
		assert.True(t, ok, "missing %q", want)
	}
	_, ok := findText(out, "Sender Name")
	assert.False(t, ok)
	_, ok = findText(out, "Client Name")
	assert.False(t, ok)
}

func TestLayoutRendersRawQuantityAndCoercedRate(t *testing.T) {
	s := store.New(model.NewInvoice("INV-1001", "2026-08-31"))
	_, err := s.UpdateItem(0, model.ItemFieldQuantity, "2.5")
	require.NoError(t, err)
	_, err = s.UpdateItem(0, model.ItemFieldRate, "abc")
	require.NoError(t, err)

	out := Layout(s.Snapshot())

	qty, ok := findText(out, "2.5")
	require.True(t, ok, "quantity renders as entered")
	assert.Equal(t, colQty, qty.X)
	assert.Equal(t, AlignRight, qty.Align)

	rate, ok := findText(out, "$0.00")
	require.True(t, ok, "malformed rate renders as zero")
	assert.Equal(t, colRate, rate.X)
}

func TestLayoutPaginatesLongInvoices(t *testing.T) {
	s := store.New(model.NewInvoice("INV-1001", "2026-08-31"))
	for i := 0; i < 59; i++ {
		s.AddItem()
	}
	inv := s.Snapshot()
	require.Len(t, inv.Items, 60)

	out := Layout(inv)

	pages := 0
	for i, in := range out {
		if in.Op != OpPage {
			continue
		}
		pages++
		require.Less(t, i+1, len(out))
		next := out[i+1]
		if next.Op == OpText {
			// A mid-table break repeats the column headers at the top.
			assert.Equal(t, "Description", next.Text)
			assert.Equal(t, topY, next.Y)
		}
	}
	assert.Greater(t, pages, 0, "60 rows cannot fit a single page")

	for _, in := range out {
		if in.Op == OpText || in.Op == OpRule {
			assert.LessOrEqual(t, in.Y, bottomY+6, "cursor escaped the page bounds at %q", in.Text)
		}
	}
}

func TestLayoutDoesNotMutateInvoice(t *testing.T) {
	inv := testInvoice(t)
	before, err := json.Marshal(inv)
	require.NoError(t, err)

	Layout(inv)

	after, err := json.Marshal(inv)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
