package export

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// defaultSheet is the sheet excelize creates with a new workbook.
const defaultSheet = "Sheet1"

// dateNumFmt is the built-in "m/d/yy h:mm" number format.
const dateNumFmt = 22

// dateDisplayLayout renders a date the way dateNumFmt shows it.
const dateDisplayLayout = "1/2/06 15:04"

// XLSXEncoder writes a single-sheet workbook with a styled header row and
// banded data rows.
type XLSXEncoder struct {
	style SheetStyle
}

// NewXLSXEncoder creates a spreadsheet encoder using style.
func NewXLSXEncoder(style SheetStyle) *XLSXEncoder {
	return &XLSXEncoder{style: style}
}

// Format implements Encoder.
func (e *XLSXEncoder) Format() Format { return FormatXLSX }

// Encode implements Encoder.
func (e *XLSXEncoder) Encode(ctx context.Context, t Table) ([]byte, error) {
	if err := t.prepare(ctx); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := e.style.SheetName
	if err := f.SetSheetName(defaultSheet, sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := e.newStyles(f)
	if err != nil {
		return nil, err
	}

	row := 1
	if t.IncludeHeaders {
		for col, name := range t.Fields {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, name); err != nil {
				return nil, err
			}
		}
		header := func(int) int { return styles.header }
		if err := e.styleRow(f, sheet, row, len(t.Fields), header); err != nil {
			return nil, err
		}
		if err := f.SetRowHeight(sheet, row, e.style.HeaderHeight); err != nil {
			return nil, err
		}
		row++
	}

	for i, rec := range t.Rows {
		band := styles.even
		if i%2 == 1 {
			band = styles.odd
		}
		dates := make([]bool, len(t.Fields))
		for col, name := range t.Fields {
			v := rec.Value(name)
			dates[col] = v.Kind() == KindDate
			if v.IsAbsent() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v.Raw()); err != nil {
				return nil, err
			}
		}
		cellStyle := func(col int) int {
			if dates[col] {
				return band.date
			}
			return band.text
		}
		if err := e.styleRow(f, sheet, row, len(t.Fields), cellStyle); err != nil {
			return nil, err
		}
		if err := f.SetRowHeight(sheet, row, e.style.RowHeight); err != nil {
			return nil, err
		}
		row++
	}

	for col, width := range ColumnWidths(t, e.style.WidthPadding, e.style.MaxWidth) {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, name, name, float64(width)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ColumnWidths returns one width per field: the longer of the field name and
// its longest displayed value, plus padding, capped at limit.
func ColumnWidths(t Table, padding, limit int) []int {
	widths := make([]int, len(t.Fields))
	for col, name := range t.Fields {
		w := utf8.RuneCountInString(name)
		for _, rec := range t.Rows {
			if n := displayWidth(rec.Value(name)); n > w {
				w = n
			}
		}
		widths[col] = min(w+padding, limit)
	}
	return widths
}

// displayWidth counts the characters a cell shows. Dates are measured in
// the date number format, not as stored text.
func displayWidth(v Value) int {
	if v.Kind() == KindDate {
		return utf8.RuneCountInString(v.t.Format(dateDisplayLayout))
	}
	return utf8.RuneCountInString(v.Text())
}

type bandStyle struct {
	text int
	date int
}

type sheetStyles struct {
	header int
	even   bandStyle
	odd    bandStyle
}

func (e *XLSXEncoder) newStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: e.style.HeaderFont},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{e.style.HeaderFill}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder(e.style.HeaderBorder),
	})
	if err != nil {
		return s, fmt.Errorf("header style: %w", err)
	}

	band := func(fill string) (bandStyle, error) {
		base := excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{fill}},
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
			Border:    thinBorder(e.style.DataBorder),
		}
		var b bandStyle
		var err error
		if b.text, err = f.NewStyle(&base); err != nil {
			return b, err
		}
		base.NumFmt = dateNumFmt
		if b.date, err = f.NewStyle(&base); err != nil {
			return b, err
		}
		return b, nil
	}
	if s.even, err = band(e.style.EvenFill); err != nil {
		return s, fmt.Errorf("row style: %w", err)
	}
	if s.odd, err = band(e.style.OddFill); err != nil {
		return s, fmt.Errorf("row style: %w", err)
	}
	return s, nil
}

// styleRow applies styleOf(col) to every cell of row. Columns are zero-based.
func (e *XLSXEncoder) styleRow(f *excelize.File, sheet string, row, cols int, styleOf func(col int) int) error {
	for col := 0; col < cols; col++ {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, styleOf(col)); err != nil {
			return err
		}
	}
	return nil
}

func thinBorder(color string) []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: color, Style: 1},
		{Type: "top", Color: color, Style: 1},
		{Type: "right", Color: color, Style: 1},
		{Type: "bottom", Color: color, Style: 1},
	}
}
