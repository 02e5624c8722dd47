package store

import (
	"fmt"
	"sync"

	"invoicebuilder/internal/model"

	"github.com/shopspring/decimal"
)

// FieldUpdate carries a partial set of top-level invoice changes.
// Nil pointers leave the corresponding field untouched.
type FieldUpdate struct {
	InvoiceNumber *string
	Date          *string
	FromName      *string
	FromEmail     *string
	ToName        *string
	ToEmail       *string
	TaxRate       *string
	Items         *[]model.LineItem
}

// Store owns one invoice draft and re-derives subtotal, tax amount and
// total before any mutation commits, so a snapshot never exposes stale
// totals.
type Store struct {
	mu  sync.Mutex
	inv model.Invoice
}

// New wraps an invoice in a store. Totals are derived immediately so
// the first snapshot is already consistent.
func New(inv model.Invoice) *Store {
	s := &Store{inv: inv}
	for i := range s.inv.Items {
		s.inv.Items[i].Amount = itemAmount(s.inv.Items[i])
	}
	s.recompute()
	return s
}

// Snapshot returns a deep copy of the current invoice.
func (s *Store) Snapshot() model.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copy()
}

// UpdateFields merges a partial update into the invoice. Totals are
// recomputed only when the update carries items or a tax rate, even if
// the tax rate equals the previous value.
func (s *Store) UpdateFields(u FieldUpdate) model.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.InvoiceNumber != nil {
		s.inv.InvoiceNumber = *u.InvoiceNumber
	}
	if u.Date != nil {
		s.inv.Date = *u.Date
	}
	if u.FromName != nil {
		s.inv.FromName = *u.FromName
	}
	if u.FromEmail != nil {
		s.inv.FromEmail = *u.FromEmail
	}
	if u.ToName != nil {
		s.inv.ToName = *u.ToName
	}
	if u.ToEmail != nil {
		s.inv.ToEmail = *u.ToEmail
	}

	dirty := false
	if u.Items != nil {
		items := make([]model.LineItem, len(*u.Items))
		copy(items, *u.Items)
		for i := range items {
			items[i].Amount = itemAmount(items[i])
		}
		s.inv.Items = items
		dirty = true
	}
	if u.TaxRate != nil {
		s.inv.TaxRate = *u.TaxRate
		dirty = true
	}
	if dirty {
		s.recompute()
	}

	return s.copy()
}

// AddItem appends a fresh empty line item and recomputes totals.
func (s *Store) AddItem() model.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inv.Items = append(s.inv.Items, model.NewLineItem())
	s.recompute()
	return s.copy()
}

// RemoveItem removes the item at index. An invoice keeps at least one
// item: removal at the floor is a silent no-op, as is an out-of-range
// index.
func (s *Store) RemoveItem(index int) model.Invoice {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.inv.Items) < 2 || index < 0 || index >= len(s.inv.Items) {
		return s.copy()
	}

	s.inv.Items = append(s.inv.Items[:index], s.inv.Items[index+1:]...)
	s.recompute()
	return s.copy()
}

// UpdateItem sets one field on the item at index. Quantity or rate
// changes re-derive the item amount with non-numeric input coerced to
// zero; invoice totals are recomputed afterward in every case.
func (s *Store) UpdateItem(index int, field, value string) (model.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.inv.Items) {
		return model.Invoice{}, fmt.Errorf("item index %d out of range", index)
	}

	item := &s.inv.Items[index]
	switch field {
	case model.ItemFieldDescription:
		item.Description = value
	case model.ItemFieldQuantity:
		item.Quantity = value
	case model.ItemFieldRate:
		item.Rate = value
	default:
		return model.Invoice{}, fmt.Errorf("unknown item field %q", field)
	}

	if field == model.ItemFieldQuantity || field == model.ItemFieldRate {
		item.Amount = itemAmount(*item)
	}
	s.recompute()

	return s.copy(), nil
}

func (s *Store) copy() model.Invoice {
	cp := s.inv
	cp.Items = make([]model.LineItem, len(s.inv.Items))
	copy(cp.Items, s.inv.Items)
	return cp
}

func itemAmount(item model.LineItem) decimal.Decimal {
	return model.Numeric(item.Quantity).Mul(model.Numeric(item.Rate))
}

// recompute derives subtotal, tax amount and total from the current
// items and tax rate. Callers hold the lock.
func (s *Store) recompute() {
	subtotal := decimal.Zero
	for _, item := range s.inv.Items {
		subtotal = subtotal.Add(item.Amount)
	}
	taxAmount := subtotal.Mul(model.Numeric(s.inv.TaxRate)).Div(decimal.NewFromInt(100))

	s.inv.Subtotal = subtotal
	s.inv.TaxAmount = taxAmount
	s.inv.Total = subtotal.Add(taxAmount)
}
