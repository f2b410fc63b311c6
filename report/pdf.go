package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Page geometry in millimetres (A4, 2 cm margins).
const (
	pageMargin   = 20.0
	contentWidth = 210.0 - 2*pageMargin
	rowHeight    = 7.0
	lineHeight   = 5.0
	fontFamily   = "Helvetica"
)

type rgb struct{ r, g, b int }

var (
	colorTitle       = rgb{26, 84, 144}
	colorEnvironment = rgb{34, 139, 34}
	colorStripe      = rgb{235, 235, 235}
	colorMuted       = rgb{128, 128, 128}
	colorText        = rgb{0, 0, 0}
	colorWhite       = rgb{255, 255, 255}
)

// subscripts outside cp1252 are flattened before translation.
var pdfReplacer = strings.NewReplacer("₂", "2")

// EncodePDF lays the document out on A4 pages and returns the PDF bytes.
// The creation date is the document's GeneratedAt, not the encode time.
func EncodePDF(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("insulation-engine", true)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetModificationDate(doc.GeneratedAt)
	pdf.AliasNbPages("")
	pdf.SetCatalogSort(true)

	translate := pdf.UnicodeTranslatorFromDescriptor("")
	tr := func(s string) string { return translate(pdfReplacer.Replace(s)) }

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "I", 8)
		setText(pdf, colorMuted)
		footer := fmt.Sprintf("Page %d/{nb}", pdf.PageNo())
		if doc.Reference != "" {
			footer = "Ref. " + doc.Reference + "   " + footer
		}
		pdf.CellFormat(0, 10, footer, "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	for _, s := range doc.Sections {
		switch s.Kind {
		case SectionHeader:
			writeHeader(pdf, tr, s)
		case SectionDisclaimer:
			writeDisclaimer(pdf, tr, s)
		default:
			writeSection(pdf, tr, s)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("encode pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func setText(pdf *fpdf.Fpdf, c rgb) { pdf.SetTextColor(c.r, c.g, c.b) }
func setFill(pdf *fpdf.Fpdf, c rgb) { pdf.SetFillColor(c.r, c.g, c.b) }

func writeHeader(pdf *fpdf.Fpdf, tr func(string) string, s Section) {
	pdf.SetFont(fontFamily, "B", 24)
	setText(pdf, colorTitle)
	pdf.CellFormat(0, 14, tr(s.Heading), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(fontFamily, "", 10)
	setText(pdf, colorText)
	for _, p := range s.Paragraphs {
		pdf.CellFormat(0, lineHeight, tr(p), "", 1, "L", false, 0, "")
	}
	pdf.Ln(lineHeight)
}

func writeSection(pdf *fpdf.Fpdf, tr func(string) string, s Section) {
	pdf.SetFont(fontFamily, "B", 14)
	setText(pdf, colorTitle)
	pdf.CellFormat(0, 10, tr(s.Heading), "", 1, "L", false, 0, "")

	if s.Table != nil {
		accent := colorTitle
		if s.Kind == SectionEnvironmental {
			accent = colorEnvironment
		}
		writeTable(pdf, tr, *s.Table, accent)
	}

	pdf.SetFont(fontFamily, "", 10)
	setText(pdf, colorText)
	for _, p := range s.Paragraphs {
		pdf.MultiCell(0, lineHeight, tr(p), "", "L", false)
	}

	if len(s.Notes) > 0 {
		pdf.Ln(2)
		pdf.SetFont(fontFamily, "I", 9)
		for _, n := range s.Notes {
			pdf.MultiCell(0, lineHeight, tr(n), "", "L", false)
		}
	}
	pdf.Ln(lineHeight)
}

func writeTable(pdf *fpdf.Fpdf, tr func(string) string, t Table, accent rgb) {
	if len(t.Columns) == 0 {
		return
	}
	width := contentWidth / float64(len(t.Columns))

	pdf.SetFont(fontFamily, "B", 11)
	setText(pdf, colorWhite)
	setFill(pdf, accent)
	for i, c := range t.Columns {
		pdf.CellFormat(width, rowHeight+1, tr(c), "1", 0, cellAlign(i, len(t.Columns)), true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(fontFamily, "", 10)
	setText(pdf, colorText)
	for r, row := range t.Rows {
		if r%2 == 1 {
			setFill(pdf, colorStripe)
		} else {
			setFill(pdf, colorWhite)
		}
		for i := range t.Columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pdf.CellFormat(width, rowHeight, tr(cell), "1", 0, cellAlign(i, len(t.Columns)), true, 0, "")
		}
		pdf.Ln(-1)
	}
}

// cellAlign left-aligns labels, right-aligns values in two-column tables
// and centres comparison columns.
func cellAlign(col, cols int) string {
	switch {
	case col == 0:
		return "L"
	case cols == 2:
		return "R"
	default:
		return "C"
	}
}

func writeDisclaimer(pdf *fpdf.Fpdf, tr func(string) string, s Section) {
	pdf.SetFont(fontFamily, "B", 8)
	setText(pdf, colorMuted)
	pdf.CellFormat(0, 4, tr(s.Heading+":"), "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 8)
	for _, p := range s.Paragraphs {
		pdf.MultiCell(0, 4, tr(p), "", "L", false)
	}
}
