package report

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"io"

	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatHTML:
		return FormatHTML, nil
	case FormatCSV, FormatXLSX:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unsupported report format %q", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/html; charset=utf-8"
	}
}

// Table is a titled grid of already formatted cells.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

func (t *Table) Filename(f Format) string {
	return fmt.Sprintf("%s.%s", t.Title, f)
}

func (t *Table) Write(w io.Writer, f Format) error {
	switch f {
	case FormatCSV:
		return t.WriteCSV(w)
	case FormatXLSX:
		return t.WriteXLSX(w)
	default:
		return t.WriteHTML(w)
	}
}

var htmlTable = template.Must(template.New("table").Parse(`<table class="table table-striped table-hover">
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range .Rows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
`))

func (t *Table) WriteHTML(w io.Writer) error {
	return htmlTable.Execute(w, t)
}

func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

const sheetName = "Report"

func (t *Table) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	rows := append([][]string{t.Headers}, t.Rows...)
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}

	_, err := f.WriteTo(w)
	return err
}
