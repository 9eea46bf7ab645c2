package report

import (
	"errors"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	fontFamily = "Helvetica"
	pageMargin = 14.0
	lineFactor = 1.15
	ellipsis   = "..."
)

// WritePDF renders doc as an A4 portrait PDF. The header row is repeated
// on every page the table spills onto.
//
// Text is set in the core Helvetica font, which only covers Windows-1252.
// Any other character (Greek, Cyrillic, CJK, emoji) is printed as "?".
func WritePDF(w io.Writer, doc Document) error {
	style := doc.Style
	if len(style.ColumnWidths) == 0 {
		style = DefaultStyle
	}
	if len(style.ColumnWidths) != len(doc.Columns) {
		return errors.New("report: column widths do not match columns")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.SetCreator("useradmin", true)
	pdf.SetTitle(doc.Title, true)
	if !doc.GeneratedAt.IsZero() {
		pdf.SetCreationDate(doc.GeneratedAt)
		pdf.SetModificationDate(doc.GeneratedAt)
	}
	pdf.AddPage()

	cp1252 := pdf.UnicodeTranslatorFromDescriptor("")
	tr := func(s string) string { return cp1252(replaceUnencodable(s)) }

	pdf.SetFont(fontFamily, "", style.TitleFontSize)
	pdf.Text(style.TitleX, style.TitleY, tr(doc.Title))

	pdf.SetFont(fontFamily, "", style.BodyFontSize)
	pdf.Text(style.TitleX, style.GeneratedY, tr(doc.Generated))

	t := &tableWriter{
		pdf:   pdf,
		style: style,
		tr:    tr,
		rowH:  pdf.PointConvert(style.BodyFontSize)*lineFactor + 2*style.CellPadding,
		y:     style.TableStartY,
	}
	pdf.SetCellMargin(style.CellPadding)

	t.header(doc.Columns)
	for i, row := range doc.Rows {
		if t.y+t.rowH > t.bottom() {
			pdf.AddPage()
			t.y = pageMargin
			t.header(doc.Columns)
		}
		t.body(row, i%2 == 1)
	}

	return pdf.Output(w)
}

type tableWriter struct {
	pdf   *fpdf.Fpdf
	style TableStyle
	tr    func(string) string
	rowH  float64
	y     float64
}

func (t *tableWriter) bottom() float64 {
	_, pageH := t.pdf.GetPageSize()
	return pageH - pageMargin
}

func (t *tableWriter) header(columns []string) {
	fill, text := t.style.HeaderFill, t.style.HeaderText
	t.pdf.SetFont(fontFamily, "B", t.style.BodyFontSize)
	t.pdf.SetFillColor(fill.R, fill.G, fill.B)
	t.pdf.SetTextColor(text.R, text.G, text.B)
	t.row(columns, true)
}

func (t *tableWriter) body(cells []string, alternate bool) {
	fill := t.style.AlternateFill
	t.pdf.SetFont(fontFamily, "", t.style.BodyFontSize)
	t.pdf.SetFillColor(fill.R, fill.G, fill.B)
	t.pdf.SetTextColor(0, 0, 0)
	t.row(cells, alternate)
}

func (t *tableWriter) row(cells []string, fill bool) {
	t.pdf.SetXY(pageMargin, t.y)
	for i, width := range t.style.ColumnWidths {
		var cell string
		if i < len(cells) {
			cell = t.fit(t.tr(cells[i]), width-2*t.style.CellPadding)
		}
		t.pdf.CellFormat(width, t.rowH, cell, "", 0, "LM", fill, 0, "")
	}
	t.y += t.rowH
}

// fit shortens text with a trailing ellipsis until it fits in width.
func (t *tableWriter) fit(text string, width float64) string {
	if t.pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if t.pdf.GetStringWidth(candidate) <= width {
			return candidate
		}
	}
	return ""
}

// cp1252Extras are the printable runes Windows-1252 maps into 0x80-0x9F.
const cp1252Extras = "€‚ƒ„…†‡ˆ‰Š‹ŒŽ‘’“”•–—˜™š›œžŸ"

// replaceUnencodable swaps every rune the core fonts cannot draw for "?".
func replaceUnencodable(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r < 0x80, r >= 0xA0 && r <= 0xFF:
			return r
		case strings.ContainsRune(cp1252Extras, r):
			return r
		}
		return '?'
	}, s)
}
