package export

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Style holds the presentation settings of the spreadsheet and document
// encoders. Colors are six-digit hex strings without a leading '#'.
type Style struct {
	Sheet    SheetStyle    `yaml:"sheet"`
	Document DocumentStyle `yaml:"document"`
}

// SheetStyle configures the spreadsheet encoder.
type SheetStyle struct {
	// SheetName is the title of the single worksheet.
	SheetName string `yaml:"sheet_name"`

	HeaderFill   string `yaml:"header_fill"`
	HeaderFont   string `yaml:"header_font"`
	HeaderBorder string `yaml:"header_border"`

	// EvenFill and OddFill band data rows by parity, counting from the
	// first data row as even.
	EvenFill   string `yaml:"even_fill"`
	OddFill    string `yaml:"odd_fill"`
	DataBorder string `yaml:"data_border"`

	// Row heights in points.
	HeaderHeight float64 `yaml:"header_height"`
	RowHeight    float64 `yaml:"row_height"`

	// Column widths in character units: longest text plus WidthPadding,
	// never more than MaxWidth.
	WidthPadding int `yaml:"width_padding"`
	MaxWidth     int `yaml:"max_width"`
}

// DocumentStyle configures the paginated-document encoder. Lengths are in
// millimetres, font sizes in points.
type DocumentStyle struct {
	Title        string  `yaml:"title"`
	FontFamily   string  `yaml:"font_family"`
	TitleSize    float64 `yaml:"title_size"`
	SubtitleSize float64 `yaml:"subtitle_size"`
	FontSize     float64 `yaml:"font_size"`
	Margin       float64 `yaml:"margin"`
	TableTop     float64 `yaml:"table_top"`
	CellPadding  float64 `yaml:"cell_padding"`

	HeadFill string `yaml:"head_fill"`
	HeadText string `yaml:"head_text"`
	BodyText string `yaml:"body_text"`
	AltFill  string `yaml:"alt_fill"`

	// LandscapeAbove switches to landscape pages when the table has more
	// columns than this.
	LandscapeAbove int `yaml:"landscape_above"`

	// TimeLayout formats the generation timestamp under the title.
	TimeLayout string `yaml:"time_layout"`
}

// DefaultStyle returns the brand styling.
func DefaultStyle() Style {
	return Style{
		Sheet: SheetStyle{
			SheetName:    "Export",
			HeaderFill:   "23B245",
			HeaderFont:   "FFFFFF",
			HeaderBorder: "000000",
			EvenFill:     "FFFFFF",
			OddFill:      "F8F9FA",
			DataBorder:   "E5E7EB",
			HeaderHeight: 25,
			RowHeight:    20,
			WidthPadding: 2,
			MaxWidth:     50,
		},
		Document: DocumentStyle{
			Title:          "Data Export",
			FontFamily:     "Helvetica",
			TitleSize:      16,
			SubtitleSize:   10,
			FontSize:       8,
			Margin:         14,
			TableTop:       35,
			CellPadding:    1.5,
			HeadFill:       "23B245",
			HeadText:       "FFFFFF",
			BodyText:       "000000",
			AltFill:        "F5F5F5",
			LandscapeAbove: 6,
			TimeLayout:     "2006-01-02 15:04:05 MST",
		},
	}
}

// ApplyDefaults fills zero fields from DefaultStyle.
func (s *Style) ApplyDefaults() {
	d := DefaultStyle()
	setStr := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	setNum := func(dst *float64, v float64) {
		if *dst == 0 {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if *dst == 0 {
			*dst = v
		}
	}

	setStr(&s.Sheet.SheetName, d.Sheet.SheetName)
	setStr(&s.Sheet.HeaderFill, d.Sheet.HeaderFill)
	setStr(&s.Sheet.HeaderFont, d.Sheet.HeaderFont)
	setStr(&s.Sheet.HeaderBorder, d.Sheet.HeaderBorder)
	setStr(&s.Sheet.EvenFill, d.Sheet.EvenFill)
	setStr(&s.Sheet.OddFill, d.Sheet.OddFill)
	setStr(&s.Sheet.DataBorder, d.Sheet.DataBorder)
	setNum(&s.Sheet.HeaderHeight, d.Sheet.HeaderHeight)
	setNum(&s.Sheet.RowHeight, d.Sheet.RowHeight)
	setInt(&s.Sheet.WidthPadding, d.Sheet.WidthPadding)
	setInt(&s.Sheet.MaxWidth, d.Sheet.MaxWidth)

	setStr(&s.Document.Title, d.Document.Title)
	setStr(&s.Document.FontFamily, d.Document.FontFamily)
	setNum(&s.Document.TitleSize, d.Document.TitleSize)
	setNum(&s.Document.SubtitleSize, d.Document.SubtitleSize)
	setNum(&s.Document.FontSize, d.Document.FontSize)
	setNum(&s.Document.Margin, d.Document.Margin)
	setNum(&s.Document.TableTop, d.Document.TableTop)
	setNum(&s.Document.CellPadding, d.Document.CellPadding)
	setStr(&s.Document.HeadFill, d.Document.HeadFill)
	setStr(&s.Document.HeadText, d.Document.HeadText)
	setStr(&s.Document.BodyText, d.Document.BodyText)
	setStr(&s.Document.AltFill, d.Document.AltFill)
	setInt(&s.Document.LandscapeAbove, d.Document.LandscapeAbove)
	setStr(&s.Document.TimeLayout, d.Document.TimeLayout)
}

// Validate checks colors and sizes.
func (s Style) Validate() error {
	var errs []error

	colors := map[string]string{
		"sheet.header_fill":   s.Sheet.HeaderFill,
		"sheet.header_font":   s.Sheet.HeaderFont,
		"sheet.header_border": s.Sheet.HeaderBorder,
		"sheet.even_fill":     s.Sheet.EvenFill,
		"sheet.odd_fill":      s.Sheet.OddFill,
		"sheet.data_border":   s.Sheet.DataBorder,
		"document.head_fill":  s.Document.HeadFill,
		"document.head_text":  s.Document.HeadText,
		"document.body_text":  s.Document.BodyText,
		"document.alt_fill":   s.Document.AltFill,
	}
	for _, name := range slices.Sorted(maps.Keys(colors)) {
		if _, err := ParseRGB(colors[name]); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if s.Sheet.SheetName == "" || len([]rune(s.Sheet.SheetName)) > 31 {
		errs = append(errs, errors.New("sheet.sheet_name: must be 1-31 characters"))
	}
	if s.Sheet.HeaderHeight <= 0 || s.Sheet.RowHeight <= 0 {
		errs = append(errs, errors.New("sheet: row heights must be positive"))
	}
	if s.Sheet.WidthPadding < 0 || s.Sheet.MaxWidth <= 0 {
		errs = append(errs, errors.New("sheet: width_padding must be >= 0 and max_width > 0"))
	}
	if s.Document.TitleSize <= 0 || s.Document.SubtitleSize <= 0 || s.Document.FontSize <= 0 {
		errs = append(errs, errors.New("document: font sizes must be positive"))
	}
	if s.Document.Margin < 0 || s.Document.CellPadding < 0 || s.Document.TableTop <= 0 {
		errs = append(errs, errors.New("document: margin and padding must be >= 0, table_top > 0"))
	}
	return errors.Join(errs...)
}

// RGB is a color split into 0-255 components.
type RGB struct {
	R, G, B int
}

// ParseRGB parses a six-digit hex color, with or without a leading '#'.
func ParseRGB(hex string) (RGB, error) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("invalid color %q", hex)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q", hex)
	}
	return RGB{R: int(n >> 16 & 0xff), G: int(n >> 8 & 0xff), B: int(n & 0xff)}, nil
}

func mustRGB(hex string) RGB {
	c, err := ParseRGB(hex)
	if err != nil {
		return RGB{}
	}
	return c
}
