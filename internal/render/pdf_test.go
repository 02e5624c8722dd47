package render

import (
	"bytes"
	"testing"

	"invoicebuilder/internal/model"
	"invoicebuilder/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePDF(t *testing.T) {
	data, err := WritePDF(Layout(testInvoice(t)))
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "output is a PDF document")
}

func TestWritePDFMultiPage(t *testing.T) {
	s := store.New(model.NewInvoice("INV-2000", "2026-08-31"))
	for i := 0; i < 99; i++ {
		s.AddItem()
	}

	data, err := WritePDF(Layout(s.Snapshot()))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "Invoice-INV-1001.pdf", Filename("INV-1001"))
	assert.Equal(t, "Invoice-.pdf", Filename(""))
}
