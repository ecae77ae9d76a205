package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Field is a labelled value printed in a document summary block.
type Field struct {
	Label string
	Value string
}

// Section is a titled table inside a document.
type Section struct {
	Title string
	Data  Dataset
}

// Document describes a multi-section report.
type Document struct {
	Title       string
	Subtitle    string
	Summary     []Field
	Sections    []Section
	GeneratedAt time.Time
}

// PDFExporter renders documents into A4 PDFs.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF with a header, a summary block and one table per section.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if doc.Title == "" {
		return nil, fmt.Errorf("pdf requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "C", false, 0, "")
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 7, tr(doc.Subtitle), "", 1, "C", false, 0, "")
	}
	generated := doc.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 6, generated.UTC().Format("2006-01-02 15:04 MST"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if len(doc.Summary) > 0 {
		for _, field := range doc.Summary {
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(55, 7, tr(field.Label), "", 0, "", false, 0, "")
			pdf.SetFont("Arial", "", 10)
			pdf.CellFormat(0, 7, tr(field.Value), "", 1, "", false, 0, "")
		}
		pdf.Ln(4)
	}

	for _, section := range doc.Sections {
		if len(section.Data.Headers) == 0 {
			continue
		}
		if section.Title != "" {
			pdf.SetFont("Arial", "B", 12)
			pdf.CellFormat(0, 8, tr(section.Title), "", 1, "", false, 0, "")
		}
		colWidth := 180.0 / float64(len(section.Data.Headers))
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, header := range section.Data.Headers {
			pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		if len(section.Data.Rows) == 0 {
			pdf.CellFormat(180, 7, tr("Sin registros"), "1", 1, "C", false, 0, "")
		}
		for _, row := range section.Data.Rows {
			for _, header := range section.Data.Headers {
				pdf.CellFormat(colWidth, 7, tr(truncate(row[header], colWidth)), "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(5)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// truncate keeps cell text roughly inside its column at the body font size.
func truncate(value string, width float64) string {
	limit := int(width / 1.9)
	runes := []rune(value)
	if limit < 4 || len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}
