package render

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const pdfFont = "Arial"

// WritePDF serializes a layout instruction sequence into a PDF byte
// stream. The instructions fully determine the document; this function
// adds nothing beyond the page frame.
func WritePDF(instructions []Instruction) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	pdf.SetFont(pdfFont, "", bodySize)

	for _, in := range instructions {
		switch in.Op {
		case OpText:
			pdf.SetFontSize(in.Size)
			x := in.X
			if in.Align == AlignRight {
				x -= pdf.GetStringWidth(in.Text)
			}
			pdf.Text(x, in.Y, in.Text)
		case OpRule:
			pdf.Line(in.X, in.Y, in.X2, in.Y)
		case OpPage:
			pdf.AddPage()
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename returns the deterministic export name for an invoice.
func Filename(invoiceNumber string) string {
	return fmt.Sprintf("Invoice-%s.pdf", invoiceNumber)
}
