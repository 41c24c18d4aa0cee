package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// ptToMM converts a font size in points to millimetres.
const ptToMM = 25.4 / 72

// lineSpacing is the line height as a multiple of the font size.
const lineSpacing = 1.15

// PDFEncoder renders a title block followed by a table that paginates
// across A4 pages, repeating the header row on each page.
type PDFEncoder struct {
	style DocumentStyle
	now   func() time.Time
}

// NewPDFEncoder creates a document encoder using style.
func NewPDFEncoder(style DocumentStyle) *PDFEncoder {
	return &PDFEncoder{style: style, now: time.Now}
}

// Format implements Encoder.
func (e *PDFEncoder) Format() Format { return FormatPDF }

// Encode implements Encoder.
func (e *PDFEncoder) Encode(ctx context.Context, t Table) ([]byte, error) {
	if err := t.prepare(ctx); err != nil {
		return nil, err
	}

	orientation := "P"
	if len(t.Fields) > e.style.LandscapeAbove {
		orientation = "L"
	}

	generated := e.now()
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetCreationDate(generated)
	pdf.SetTitle(e.style.Title, true)
	pdf.SetMargins(e.style.Margin, e.style.Margin, e.style.Margin)
	pdf.SetAutoPageBreak(false, e.style.Margin)

	r := &tableRenderer{
		pdf:   pdf,
		style: e.style,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
	}

	pdf.AddPage()
	pdf.SetFont(e.style.FontFamily, "", e.style.TitleSize)
	pdf.Text(e.style.Margin, 20, r.tr(e.style.Title))
	pdf.SetFont(e.style.FontFamily, "", e.style.SubtitleSize)
	pdf.Text(e.style.Margin, 30, r.tr("Generated on: "+generated.Format(e.style.TimeLayout)))

	if len(t.Fields) > 0 {
		r.render(t)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return buf.Bytes(), nil
}

type tableRenderer struct {
	pdf   *fpdf.Fpdf
	style DocumentStyle
	tr    func(string) string

	colW   float64
	lineH  float64
	y      float64
	bottom float64
}

func (r *tableRenderer) render(t Table) {
	pageW, pageH := r.pdf.GetPageSize()
	r.colW = (pageW - 2*r.style.Margin) / float64(len(t.Fields))
	r.lineH = r.style.FontSize * ptToMM * lineSpacing
	r.y = r.style.TableTop
	r.bottom = pageH - r.style.Margin

	header := r.split(headerLabels(t.Fields), true)

	newPage := func() {
		r.pdf.AddPage()
		r.y = r.style.Margin
		if t.IncludeHeaders {
			r.draw(header, 0, lineCount(header), true, false)
		}
	}

	if t.IncludeHeaders {
		r.draw(header, 0, lineCount(header), true, false)
	}

	// Lines a body row may use on a page that starts with the header.
	pageLines := r.fit(r.style.Margin)
	if t.IncludeHeaders {
		pageLines = r.fit(r.style.Margin + r.blockHeight(lineCount(header)))
	}

	for i, rec := range t.Rows {
		cells := r.split(t.cells(rec), false)
		n := lineCount(cells)
		alt := i%2 == 1

		// A row that fits on one page never splits. Taller rows fill the
		// rest of the current page and continue on the next ones.
		fresh := false
		for from := 0; from < n; {
			fit := r.fit(r.y)
			if !fresh && (fit < 1 || (from == 0 && fit < n && n <= pageLines)) {
				newPage()
				fresh = true
				continue
			}
			to := min(n, from+max(fit, 1))
			r.draw(cells, from, to, false, alt)
			from = to
			fresh = false
		}
	}
}

// headerLabels titles the document's header row, e.g. "created_at" becomes
// "Created At".
func headerLabels(fields []string) []string {
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = FieldLabel(f)
	}
	return labels
}

// fit returns how many text lines of a body row fit between y and the
// bottom margin.
func (r *tableRenderer) fit(y float64) int {
	return int((r.bottom - y - 2*r.style.CellPadding) / r.lineH)
}

func (r *tableRenderer) blockHeight(lines int) float64 {
	return float64(lines)*r.lineH + 2*r.style.CellPadding
}

// split wraps every cell to the column width.
func (r *tableRenderer) split(cells []string, bold bool) [][]string {
	style := ""
	if bold {
		style = "B"
	}
	r.pdf.SetFont(r.style.FontFamily, style, r.style.FontSize)

	out := make([][]string, len(cells))
	for i, c := range cells {
		lines := r.pdf.SplitText(r.tr(c), r.colW-2*r.style.CellPadding)
		if len(lines) == 0 {
			lines = []string{""}
		}
		out[i] = lines
	}
	return out
}

func lineCount(cells [][]string) int {
	n := 1
	for _, c := range cells {
		n = max(n, len(c))
	}
	return n
}

// draw renders lines [from, to) of a wrapped row at the current y and
// advances it.
func (r *tableRenderer) draw(cells [][]string, from, to int, head, alt bool) {
	h := r.blockHeight(to - from)

	var fill, text RGB
	style := ""
	switch {
	case head:
		fill, text = mustRGB(r.style.HeadFill), mustRGB(r.style.HeadText)
		style = "B"
	case alt:
		fill, text = mustRGB(r.style.AltFill), mustRGB(r.style.BodyText)
	default:
		fill, text = RGB{255, 255, 255}, mustRGB(r.style.BodyText)
	}

	r.pdf.SetFont(r.style.FontFamily, style, r.style.FontSize)
	r.pdf.SetFillColor(fill.R, fill.G, fill.B)
	r.pdf.SetTextColor(text.R, text.G, text.B)

	for col, lines := range cells {
		x := r.style.Margin + float64(col)*r.colW
		r.pdf.Rect(x, r.y, r.colW, h, "F")
		for i := from; i < to && i < len(lines); i++ {
			r.pdf.SetXY(x+r.style.CellPadding, r.y+r.style.CellPadding+float64(i-from)*r.lineH)
			r.pdf.CellFormat(r.colW-2*r.style.CellPadding, r.lineH, lines[i], "", 0, "L", false, 0, "")
		}
	}
	r.y += h
}
