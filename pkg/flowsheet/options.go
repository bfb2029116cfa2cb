// Package flowsheet keeps a list of status-tracked records in sync with the
// worksheet they were imported from.
package flowsheet

// Options configures export behavior.
type Options struct {
	// PreserveFormatting writes changes onto the imported workbook, keeping
	// its styles, other sheets and formulas. When false a fresh single-sheet
	// workbook is produced. If nil, defaults to true.
	PreserveFormatting *bool
}

// DefaultOptions returns default export options.
func DefaultOptions() Options {
	return Options{}
}

// ShouldPreserveFormatting returns whether to write onto the source workbook.
func (o Options) ShouldPreserveFormatting() bool {
	if o.PreserveFormatting != nil {
		return *o.PreserveFormatting
	}
	return true
}
