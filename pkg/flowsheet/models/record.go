package models

// NoAnchor is the anchor row of a record that was not read from a grid,
// e.g. one created through an add form.
const NoAnchor = -1

// Value is the content of an optional record field. A value holds either
// text or a number; for date fields the number is the raw serial.
type Value struct {
	// Text is set for textual values.
	Text string `json:"text,omitempty"`
	// Number is set for numeric values and date serials.
	Number *float64 `json:"number,omitempty"`
}

// TextValue returns a textual field value.
func TextValue(s string) Value {
	return Value{Text: s}
}

// NumberValue returns a numeric field value.
func NumberValue(v float64) Value {
	return Value{Number: &v}
}

// IsNumber reports whether the value is numeric.
func (v Value) IsNumber() bool {
	return v.Number != nil
}

// IsZero reports whether the value is empty.
func (v Value) IsZero() bool {
	return v.Number == nil && v.Text == ""
}

// Equal compares two values by content.
func (v Value) Equal(o Value) bool {
	if v.IsNumber() != o.IsNumber() {
		return false
	}
	if v.IsNumber() {
		return *v.Number == *o.Number
	}
	return v.Text == o.Text
}

// Record is a tracked process node.
type Record struct {
	// ID is unique within one extraction pass.
	ID string `json:"id"`
	// Label is the free-text name of the node.
	Label string `json:"label"`
	// Status is the internal status code.
	Status Status `json:"status"`
	// Fields holds the optional descriptive fields present for this record,
	// keyed by layout field name.
	Fields map[string]Value `json:"fields,omitempty"`
	// AnchorRow is the zero-based grid row the record was read from, or NoAnchor.
	AnchorRow int `json:"anchor_row"`
}

// Anchored reports whether the record points at a source grid row.
func (r Record) Anchored() bool {
	return r.AnchorRow >= 0
}

// Field returns the named field value and whether it is present.
func (r Record) Field(name string) (Value, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	if r.Fields != nil {
		out.Fields = make(map[string]Value, len(r.Fields))
		for k, v := range r.Fields {
			if v.Number != nil {
				n := *v.Number
				v.Number = &n
			}
			out.Fields[k] = v
		}
	}
	return out
}

// CloneRecords deep copies a record list.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
