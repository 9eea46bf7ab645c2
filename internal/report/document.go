// Package report turns user records into the filtered table view and the
// printable user report.
package report

import (
	"strconv"
	"time"

	"github.com/jjudge-oj/useradmin/types"
)

const (
	// FileName is the name under which the report is downloaded.
	FileName = "user_report.pdf"

	// ContentType is the MIME type of the rendered report.
	ContentType = "application/pdf"

	// Title is the first line of every report.
	Title = "Gallery User Report"

	// Placeholder replaces absent attribute values.
	Placeholder = "N/A"
)

// Columns are the report table headings, in order.
var Columns = []string{"#", "Name", "Email", "Country", "Phone"}

// RGB is a fill or text color.
type RGB struct {
	R, G, B int
}

// TableStyle is the fixed presentation of a report. All distances are in
// millimetres and font sizes in points.
type TableStyle struct {
	TitleFontSize float64
	TitleX        float64
	TitleY        float64
	BodyFontSize  float64
	GeneratedY    float64
	TableStartY   float64
	CellPadding   float64
	HeaderFill    RGB
	HeaderText    RGB
	AlternateFill RGB
	ColumnWidths  []float64
}

// DefaultStyle is the style every report is rendered with.
var DefaultStyle = TableStyle{
	TitleFontSize: 18,
	TitleX:        14,
	TitleY:        20,
	BodyFontSize:  10,
	GeneratedY:    28,
	TableStartY:   36,
	CellPadding:   4,
	HeaderFill:    RGB{0, 0, 0},
	HeaderText:    RGB{255, 255, 255},
	AlternateFill: RGB{240, 240, 240},
	ColumnWidths:  []float64{16, 40, 56, 30, 40},
}

// Document is a renderer-independent report: a title, a generation line
// and a table.
type Document struct {
	Title       string     `json:"title"`
	GeneratedAt time.Time  `json:"generated_at"`
	Generated   string     `json:"generated"`
	Columns     []string   `json:"columns"`
	Rows        [][]string `json:"rows"`
	Style       TableStyle `json:"-"`
}

// BuildReport lays out records in chronological order, numbering rows
// from 1. An empty input produces a header-only table.
func BuildReport(records []types.User, generatedAt time.Time) Document {
	ordered := SortByCreatedAt(records, Ascending)
	rows := make([][]string, 0, len(ordered))
	for i, u := range ordered {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			orPlaceholder(u.Name),
			orPlaceholder(u.Email),
			orPlaceholder(u.Country),
			orPlaceholder(u.Phone),
		})
	}

	columns := make([]string, len(Columns))
	copy(columns, Columns)

	return Document{
		Title:       Title,
		GeneratedAt: generatedAt,
		Generated:   "Generated: " + FormatGenerated(generatedAt),
		Columns:     columns,
		Rows:        rows,
		Style:       DefaultStyle,
	}
}

// FormatGenerated formats t as an en-US date followed by a 12-hour time,
// for example "1/2/2024 3:04:05 PM".
func FormatGenerated(t time.Time) string {
	return t.Format("1/2/2006 3:04:05 PM")
}

func orPlaceholder(value string) string {
	if value == "" {
		return Placeholder
	}
	return value
}
