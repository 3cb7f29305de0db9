package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Section таблица с заголовком внутри PDF документа
type Section struct {
	Title string
	Data  Dataset
}

// PDF рисует документ из нескольких таблиц. Пустая таблица выводится строкой "no records".
func PDF(title string, subtitle string, sections []Section) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
	if subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(5)

	for _, section := range sections {
		if len(section.Data.Headers) == 0 {
			return nil, fmt.Errorf("section %q requires at least one header", section.Title)
		}

		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, tr(section.Title), "", 1, "L", false, 0, "")

		colWidth := 190.0 / float64(len(section.Data.Headers))
		pdf.SetFont("Arial", "B", 10)
		for _, header := range section.Data.Headers {
			pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		if len(section.Data.Rows) == 0 {
			pdf.CellFormat(190, 7, "no records", "1", 1, "C", false, 0, "")
		}
		for _, row := range section.Data.Rows {
			for i := range section.Data.Headers {
				value := ""
				if i < len(row) {
					value = row[i]
				}
				pdf.CellFormat(colWidth, 7, tr(value), "1", 0, "", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(4)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
