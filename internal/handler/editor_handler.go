package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"invoicebuilder/internal/service"
	"invoicebuilder/internal/session"
	"invoicebuilder/pkg/pagination"
	"invoicebuilder/pkg/response"

	"github.com/gin-gonic/gin"
)

type EditorHandler struct {
	editorService service.EditorService
}

func NewEditorHandler(editorService service.EditorService) *EditorHandler {
	return &EditorHandler{
		editorService: editorService,
	}
}

func (h *EditorHandler) RegisterRoutes(router *gin.RouterGroup) {
	sessions := router.Group("/api/sessions")
	{
		sessions.POST("", h.CreateSession)
		sessions.GET("", h.ListSessions)
		sessions.GET("/:id", h.GetInvoice)
		sessions.DELETE("/:id", h.CloseSession)
		sessions.PATCH("/:id/invoice", h.UpdateInvoice)
		sessions.POST("/:id/items", h.AddItem)
		sessions.PATCH("/:id/items/:index", h.UpdateItem)
		sessions.DELETE("/:id/items/:index", h.RemoveItem)
		sessions.GET("/:id/preview", h.Preview)
		sessions.GET("/:id/pdf", h.ExportPDF)
	}
}

// CreateSession opens a new editing session with a default draft
// @Summary      Create editing session
// @Description  Opens a new editing session holding a fresh invoice draft
// @Tags         sessions
// @Produce      json
// @Success      201  {object}  response.Response{data=service.SessionResponse}
// @Router       /api/sessions [post]
func (h *EditorHandler) CreateSession(c *gin.Context) {
	sess, err := h.editorService.CreateSession(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, sess))
}

// ListSessions returns a paginated list of open editing sessions
// @Summary      List editing sessions
// @Description  Retrieves a paginated list of open editing sessions
// @Tags         sessions
// @Produce      json
// @Param        page   query     int  false  "Page number (default 1)"
// @Param        limit  query     int  false  "Number of sessions per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      500    {object}  response.Response
// @Router       /api/sessions [get]
func (h *EditorHandler) ListSessions(c *gin.Context) {
	params := pagination.Parse(c)

	sessions, total, err := h.editorService.ListSessions(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// GetInvoice returns the current invoice snapshot of a session
// @Summary      Get invoice snapshot
// @Description  Returns the current invoice draft with derived totals
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/sessions/{id} [get]
func (h *EditorHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.editorService.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// CloseSession ends an editing session and discards its draft
// @Summary      Close editing session
// @Description  Ends an editing session; the draft is discarded
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/sessions/{id} [delete]
func (h *EditorHandler) CloseSession(c *gin.Context) {
	if err := h.editorService.CloseSession(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, nil))
}

// UpdateInvoice merges a partial field update into the draft
// @Summary      Update invoice fields
// @Description  Merges a partial set of top-level field changes; totals are recomputed when items or tax_rate change
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Session ID"
// @Param        payload  body      service.UpdateInvoiceRequest   true  "Partial Invoice Update"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/sessions/{id}/invoice [patch]
func (h *EditorHandler) UpdateInvoice(c *gin.Context) {
	var req service.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.editorService.UpdateInvoice(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// AddItem appends an empty line item to the draft
// @Summary      Add line item
// @Description  Appends a new empty line item (quantity 1, rate 0) and recomputes totals
// @Tags         items
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/sessions/{id}/items [post]
func (h *EditorHandler) AddItem(c *gin.Context) {
	invoice, err := h.editorService.AddItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// UpdateItem sets one field on a line item
// @Summary      Update line item
// @Description  Sets description, quantity or rate on the item at index; amounts and totals are re-derived
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        id       path      string                      true  "Session ID"
// @Param        index    path      int                         true  "Item index"
// @Param        payload  body      service.UpdateItemRequest   true  "Item Field Update"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/sessions/{id}/items/{index} [patch]
func (h *EditorHandler) UpdateItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid item index: "+c.Param("index")))
		return
	}

	var req service.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.editorService.UpdateItem(c.Request.Context(), c.Param("id"), index, req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// RemoveItem removes a line item, keeping at least one
// @Summary      Remove line item
// @Description  Removes the item at index; removing the last remaining item is a no-op
// @Tags         items
// @Produce      json
// @Param        id     path      string  true  "Session ID"
// @Param        index  path      int     true  "Item index"
// @Success      200    {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /api/sessions/{id}/items/{index} [delete]
func (h *EditorHandler) RemoveItem(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid item index: "+c.Param("index")))
		return
	}

	invoice, err := h.editorService.RemoveItem(c.Request.Context(), c.Param("id"), index)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// Preview returns the draw instructions for the current draft
// @Summary      Preview invoice layout
// @Description  Returns the ordered draw instructions the PDF export is built from
// @Tags         render
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  response.Response{data=[]render.Instruction}
// @Failure      404  {object}  response.Response
// @Router       /api/sessions/{id}/preview [get]
func (h *EditorHandler) Preview(c *gin.Context) {
	instructions, err := h.editorService.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, instructions))
}

// ExportPDF renders the current draft to a PDF document
// @Summary      Export invoice PDF
// @Description  Renders the current draft to a PDF named after the invoice number; pass inline=true to view instead of download
// @Tags         render
// @Produce      application/pdf
// @Param        id      path      string  true   "Session ID"
// @Param        inline  query     bool    false  "Serve inline instead of as attachment"
// @Success      200     {file}    file
// @Failure      404     {object}  response.Response
// @Router       /api/sessions/{id}/pdf [get]
func (h *EditorHandler) ExportPDF(c *gin.Context) {
	filename, data, err := h.editorService.ExportPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	disposition := "attachment"
	if c.Query("inline") == "true" {
		disposition = "inline"
	}

	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%s", disposition, filename))
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, "application/pdf", data)
}

// fail maps service errors: unknown sessions are 404, everything else
// is a 400 from malformed caller input.
func (h *EditorHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
}
