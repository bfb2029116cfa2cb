package grid

import (
	"strings"

	"github.com/Tegakist/DSS/pkg/flowsheet/models"
	"github.com/xuri/excelize/v2"
)

// builtinDateFormats lists built-in number format ids that render a
// calendar date. Time-only ids (18-21, 32, 33, 45-47, 55, 56) are excluded.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 34: true, 35: true, 36: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 57: true, 58: true,
}

// IsDateFormat reports whether a number format renders a calendar date.
func IsDateFormat(f models.NumFormat) bool {
	if f.ID != 0 {
		return builtinDateFormats[f.ID]
	}
	return isDateCode(f.Code)
}

// isDateCode inspects the first section of a custom format code, ignoring
// quoted literals, escaped characters and bracketed locale or color tags.
// Elapsed-time tags such as [h] or [mm] count as time tokens.
func isDateCode(code string) bool {
	if code == "" {
		return false
	}
	var b strings.Builder
	inQuote := false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		case ch == '[':
			end := strings.IndexByte(code[i:], ']')
			if end < 0 {
				i = len(code)
				continue
			}
			if isElapsedTag(code[i+1 : i+end]) {
				// elapsed time never renders a date
				b.WriteByte('h')
			}
			i += end
		case ch == ';':
			i = len(code)
		default:
			if ch >= 'A' && ch <= 'Z' {
				ch += 'a' - 'A'
			}
			b.WriteByte(ch)
		}
	}
	s := b.String()
	if strings.Contains(s, "general") {
		return false
	}
	if strings.ContainsAny(s, "yd") || (strings.Contains(s, "g") && strings.Contains(s, "e")) {
		return true
	}
	return strings.Contains(s, "m") && !strings.ContainsAny(s, "hs")
}

// isElapsedTag reports whether a bracketed tag is an elapsed hours, minutes
// or seconds token: a run of one repeated h, m or s.
func isElapsedTag(tag string) bool {
	tag = strings.ToLower(tag)
	if tag == "" {
		return false
	}
	switch tag[0] {
	case 'h', 'm', 's':
	default:
		return false
	}
	return strings.Count(tag, tag[:1]) == len(tag)
}

// numFormatOf reduces an excelize style to the number format annotation.
func numFormatOf(style *excelize.Style) models.NumFormat {
	if style == nil {
		return models.NumFormat{}
	}
	if style.NumFmt > 0 && style.NumFmt < 164 {
		return models.NumFormat{ID: style.NumFmt}
	}
	if style.CustomNumFmt != nil && *style.CustomNumFmt != "" {
		return models.NumFormat{Code: *style.CustomNumFmt}
	}
	return models.NumFormat{}
}

// applyNumFormat overwrites the number format part of a style.
func applyNumFormat(style *excelize.Style, f models.NumFormat) {
	style.NumFmt = 0
	style.CustomNumFmt = nil
	if f.ID != 0 {
		style.NumFmt = f.ID
		return
	}
	if f.Code != "" {
		code := f.Code
		style.CustomNumFmt = &code
	}
}

// formatCache resolves cell number formats, memoized per style id.
type formatCache struct {
	f       *excelize.File
	byStyle map[int]models.NumFormat
}

func newFormatCache(f *excelize.File) *formatCache {
	return &formatCache{f: f, byStyle: make(map[int]models.NumFormat)}
}

func (c *formatCache) lookup(sheetName, cellName string) (models.NumFormat, error) {
	styleID, err := c.f.GetCellStyle(sheetName, cellName)
	if err != nil {
		return models.NumFormat{}, err
	}
	if nf, ok := c.byStyle[styleID]; ok {
		return nf, nil
	}
	style, err := c.f.GetStyle(styleID)
	if err != nil {
		return models.NumFormat{}, err
	}
	nf := numFormatOf(style)
	c.byStyle[styleID] = nf
	return nf, nil
}
