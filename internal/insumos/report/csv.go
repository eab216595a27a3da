package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var csvHeader = []string{"Descrição", "Número de série", "Local", "Validade", "Situação", "Imagem"}

// CSVRenderer writes reports as semicolon separated Windows-1252 text, the
// format spreadsheet tools in pt-BR locales open without an import wizard.
type CSVRenderer struct{}

func (CSVRenderer) ContentType() string { return "text/csv; charset=windows-1252" }

func (CSVRenderer) Extension() string { return "csv" }

// Render writes the report to w. Characters outside Windows-1252 are
// replaced, not rejected.
func (CSVRenderer) Render(w io.Writer, r *Report) error {
	encoder := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	tw := transform.NewWriter(w, encoder)

	cw := csv.NewWriter(tw)
	cw.Comma = ';'
	cw.UseCRLF = true

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range r.Rows {
		record := []string{
			row.Description,
			serialText(row.SerialNumber),
			row.Location,
			formatDate(row.ExpiryDate),
			statusLabel(row.SortStatus),
			row.Image,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return tw.Close()
}
