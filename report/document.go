/*
Package report projects a calculation result into a human-readable document.

PURPOSE:
  The engine produces numbers; this package decides how they are shown.
  Build turns an engine.Result into a Document (an ordered list of titled
  sections holding tables or prose), and the encoders turn a Document into
  bytes: a paginated A4 PDF or a styled terminal rendering.

  Nothing here recomputes an engine figure. The only arithmetic is
  presentational: the U-value reduction percentage and the tree
  equivalence.

KEY CONCEPTS IN THIS FILE (document.go):
  - Document:    Title, timestamp, reference and ordered sections
  - Section:     One titled block (table, paragraphs, footnotes)
  - SectionKind: Identifies a section independent of its heading text

SECTION ORDER (fixed):
  Header, Input Summary, Technical Analysis, Financial Analysis,
  Environmental Impact, Methodology, Disclaimer

SEE ALSO:
  - render.go:   Renderer.Build / Renderer.Render
  - validate.go: Malformed result detection and JSON decoding
  - pdf.go:      PDF encoder
  - text.go:     Terminal encoder
*/
package report

import "time"

// SectionKind identifies the role of a section in the document.
type SectionKind string

const (
	SectionHeader        SectionKind = "header"
	SectionInputSummary  SectionKind = "input_summary"
	SectionTechnical     SectionKind = "technical_analysis"
	SectionFinancial     SectionKind = "financial_analysis"
	SectionEnvironmental SectionKind = "environmental_impact"
	SectionMethodology   SectionKind = "methodology"
	SectionDisclaimer    SectionKind = "disclaimer"
)

// SectionOrder is the order every document's sections appear in.
func SectionOrder() []SectionKind {
	return []SectionKind{
		SectionHeader,
		SectionInputSummary,
		SectionTechnical,
		SectionFinancial,
		SectionEnvironmental,
		SectionMethodology,
		SectionDisclaimer,
	}
}

// Document is the rendered report before encoding.
type Document struct {
	Title       string
	GeneratedAt time.Time
	Reference   string
	Sections    []Section
}

// Section returns the first section of the given kind.
func (d Document) Section(kind SectionKind) (Section, bool) {
	for _, s := range d.Sections {
		if s.Kind == kind {
			return s, true
		}
	}
	return Section{}, false
}

// Section is one titled block. Any of Table, Paragraphs and Notes may be
// empty; encoders render them in that order.
type Section struct {
	Kind       SectionKind
	Heading    string
	Table      *Table
	Paragraphs []string
	Notes      []string
}

// Table is a grid of preformatted cells. Every row has len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]string
}
