package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"invoicebuilder/internal/model"
	"invoicebuilder/internal/render"
	"invoicebuilder/internal/session"
	"invoicebuilder/internal/store"
	ws "invoicebuilder/internal/websocket"

	"github.com/google/uuid"
)

// --- DTOs ---

// LineItemInput is one row of a wholesale items replacement. Quantity
// and rate arrive as raw text; amounts are always re-derived, a
// client-supplied amount is ignored.
type LineItemInput struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Rate        string `json:"rate"`
}

// UpdateInvoiceRequest is a partial top-level update. Absent fields
// stay untouched; totals are recomputed only when items or tax_rate is
// present.
type UpdateInvoiceRequest struct {
	InvoiceNumber *string          `json:"invoice_number"`
	Date          *string          `json:"date"`
	FromName      *string          `json:"from_name"`
	FromEmail     *string          `json:"from_email"`
	ToName        *string          `json:"to_name"`
	ToEmail       *string          `json:"to_email"`
	TaxRate       *string          `json:"tax_rate"`
	Items         *[]LineItemInput `json:"items"`
}

type UpdateItemRequest struct {
	Field string `json:"field" binding:"required,oneof=description quantity rate"`
	Value string `json:"value"`
}

type LineItemResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Rate        string `json:"rate"`
	Amount      string `json:"amount"`
}

// InvoiceResponse mirrors the draft. Derived amounts are unrounded
// decimal strings; two-decimal formatting is the renderer's job.
type InvoiceResponse struct {
	InvoiceNumber string             `json:"invoice_number"`
	Date          string             `json:"date"`
	FromName      string             `json:"from_name"`
	FromEmail     string             `json:"from_email"`
	ToName        string             `json:"to_name"`
	ToEmail       string             `json:"to_email"`
	Items         []LineItemResponse `json:"items"`
	TaxRate       string             `json:"tax_rate"`
	Subtotal      string             `json:"subtotal"`
	TaxAmount     string             `json:"tax_amount"`
	Total         string             `json:"total"`
}

type SessionResponse struct {
	ID        string          `json:"id"`
	CreatedAt string          `json:"created_at"`
	Invoice   InvoiceResponse `json:"invoice"`
}

// snapshotEvent is the websocket envelope pushed to preview
// subscribers after every committed mutation.
type snapshotEvent struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Invoice   InvoiceResponse `json:"invoice"`
}

// --- Interface ---

type EditorService interface {
	CreateSession(ctx context.Context) (SessionResponse, error)
	ListSessions(ctx context.Context, page, limit int) ([]SessionResponse, int64, error)
	CloseSession(ctx context.Context, id string) error
	GetInvoice(ctx context.Context, id string) (InvoiceResponse, error)
	UpdateInvoice(ctx context.Context, id string, req UpdateInvoiceRequest) (InvoiceResponse, error)
	AddItem(ctx context.Context, id string) (InvoiceResponse, error)
	RemoveItem(ctx context.Context, id string, index int) (InvoiceResponse, error)
	UpdateItem(ctx context.Context, id string, index int, req UpdateItemRequest) (InvoiceResponse, error)
	Preview(ctx context.Context, id string) ([]render.Instruction, error)
	ExportPDF(ctx context.Context, id string) (string, []byte, error)
}

type editorService struct {
	sessions session.Manager
	hub      *ws.Hub
}

func NewEditorService(sessions session.Manager, hub *ws.Hub) EditorService {
	return &editorService{
		sessions: sessions,
		hub:      hub,
	}
}

// --- Implementation ---

func (s *editorService) CreateSession(ctx context.Context) (SessionResponse, error) {
	sess, err := s.sessions.Create(ctx)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("failed to create session: %w", err)
	}
	return toSessionResponse(sess), nil
}

func (s *editorService) ListSessions(ctx context.Context, page, limit int) ([]SessionResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	sessions, total, err := s.sessions.List(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	result := make([]SessionResponse, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, toSessionResponse(sess))
	}
	return result, total, nil
}

func (s *editorService) CloseSession(ctx context.Context, id string) error {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid session id: %w", err)
	}
	return s.sessions.Close(ctx, sessionID)
}

func (s *editorService) GetInvoice(ctx context.Context, id string) (InvoiceResponse, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return InvoiceResponse{}, err
	}
	return toInvoiceResponse(sess.Store.Snapshot()), nil
}

func (s *editorService) UpdateInvoice(ctx context.Context, id string, req UpdateInvoiceRequest) (InvoiceResponse, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return InvoiceResponse{}, err
	}

	update := store.FieldUpdate{
		InvoiceNumber: req.InvoiceNumber,
		Date:          req.Date,
		FromName:      req.FromName,
		FromEmail:     req.FromEmail,
		ToName:        req.ToName,
		ToEmail:       req.ToEmail,
		TaxRate:       req.TaxRate,
	}
	if req.Items != nil {
		items := make([]model.LineItem, 0, len(*req.Items))
		for _, in := range *req.Items {
			itemID := in.ID
			if itemID == "" {
				itemID = uuid.NewString()
			}
			items = append(items, model.LineItem{
				ID:          itemID,
				Description: in.Description,
				Quantity:    in.Quantity,
				Rate:        in.Rate,
			})
		}
		update.Items = &items
	}

	inv := sess.Store.UpdateFields(update)
	s.notify(sess, inv)
	return toInvoiceResponse(inv), nil
}

func (s *editorService) AddItem(ctx context.Context, id string) (InvoiceResponse, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return InvoiceResponse{}, err
	}

	inv := sess.Store.AddItem()
	s.notify(sess, inv)
	return toInvoiceResponse(inv), nil
}

func (s *editorService) RemoveItem(ctx context.Context, id string, index int) (InvoiceResponse, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return InvoiceResponse{}, err
	}

	// Removal below the one-item floor is a silent no-op, the snapshot
	// comes back unchanged.
	inv := sess.Store.RemoveItem(index)
	s.notify(sess, inv)
	return toInvoiceResponse(inv), nil
}

func (s *editorService) UpdateItem(ctx context.Context, id string, index int, req UpdateItemRequest) (InvoiceResponse, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return InvoiceResponse{}, err
	}

	inv, err := sess.Store.UpdateItem(index, req.Field, req.Value)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to update item: %w", err)
	}
	s.notify(sess, inv)
	return toInvoiceResponse(inv), nil
}

func (s *editorService) Preview(ctx context.Context, id string) ([]render.Instruction, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return render.Layout(sess.Store.Snapshot()), nil
}

func (s *editorService) ExportPDF(ctx context.Context, id string) (string, []byte, error) {
	sess, err := s.lookup(ctx, id)
	if err != nil {
		return "", nil, err
	}

	inv := sess.Store.Snapshot()
	data, err := render.WritePDF(render.Layout(inv))
	if err != nil {
		return "", nil, fmt.Errorf("failed to export pdf: %w", err)
	}
	return render.Filename(inv.InvoiceNumber), data, nil
}

// --- Helpers ---

func (s *editorService) lookup(ctx context.Context, id string) (*session.Session, error) {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid session id: %w", err)
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// notify pushes the post-mutation snapshot to the session's preview
// subscribers. The snapshot already carries recomputed totals, so
// subscribers never see a stale derivation.
func (s *editorService) notify(sess *session.Session, inv model.Invoice) {
	if s.hub == nil {
		return
	}

	payload, err := json.Marshal(snapshotEvent{
		Type:      "invoice.updated",
		SessionID: sess.ID.String(),
		Invoice:   toInvoiceResponse(inv),
	})
	if err != nil {
		log.Printf("failed to marshal snapshot event: %v", err)
		return
	}
	s.hub.Broadcast <- ws.Message{SessionID: sess.ID.String(), Data: payload}
}

// --- Mapping ---

func toSessionResponse(sess *session.Session) SessionResponse {
	return SessionResponse{
		ID:        sess.ID.String(),
		CreatedAt: sess.CreatedAt.Format(time.RFC3339),
		Invoice:   toInvoiceResponse(sess.Store.Snapshot()),
	}
}

func toInvoiceResponse(inv model.Invoice) InvoiceResponse {
	items := make([]LineItemResponse, 0, len(inv.Items))
	for _, item := range inv.Items {
		items = append(items, LineItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.Rate,
			Amount:      item.Amount.String(),
		})
	}

	return InvoiceResponse{
		InvoiceNumber: inv.InvoiceNumber,
		Date:          inv.Date,
		FromName:      inv.FromName,
		FromEmail:     inv.FromEmail,
		ToName:        inv.ToName,
		ToEmail:       inv.ToEmail,
		Items:         items,
		TaxRate:       inv.TaxRate,
		Subtotal:      inv.Subtotal.String(),
		TaxAmount:     inv.TaxAmount.String(),
		Total:         inv.Total.String(),
	}
}
