package flowsheet

import (
	"fmt"
	"os"
	"strings"

	"github.com/Tegakist/DSS/pkg/flowsheet/grid"
	"github.com/Tegakist/DSS/pkg/flowsheet/mapper"
	"github.com/Tegakist/DSS/pkg/flowsheet/models"
)

// Session holds one imported worksheet and the record list being edited
// against it. A Session is not safe for concurrent use.
type Session struct {
	// Source is the workbook the session was imported from, or the last
	// export. Nil for sessions started from scratch.
	Source []byte
	Layout *mapper.Layout

	doc     *grid.Document
	records []models.Record
	nextID  int
}

// Import decodes workbook bytes and extracts their records.
func Import(data []byte, l *mapper.Layout) (*Session, error) {
	doc, err := grid.Decode(data)
	if err != nil {
		return nil, err
	}
	records, err := mapper.Extract(doc, l)
	if err != nil {
		return nil, err
	}
	s := &Session{
		Source: data,
		Layout: l,
		doc:    doc,
	}
	s.setRecords(records)
	return s, nil
}

// ImportFile reads and imports a workbook file.
func ImportFile(path string, l *mapper.Layout) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}
	return Import(data, l)
}

// NewSession starts an empty session for a new workbook.
func NewSession(sheetID string, l *mapper.Layout) (*Session, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	s := &Session{Layout: l, doc: grid.New(sheetID)}
	s.setRecords(nil)
	return s, nil
}

func (s *Session) setRecords(records []models.Record) {
	s.records = records
	if s.records == nil {
		s.records = []models.Record{}
	}
	s.nextID = 1
	for _, r := range s.records {
		if n, ok := mapper.RecordNumber(r.ID); ok && n >= s.nextID {
			s.nextID = n + 1
		}
	}
}

// Document returns the current worksheet grid. The grid reflects the last
// import or export, not pending record edits.
func (s *Session) Document() *grid.Document {
	return s.doc
}

// Records returns a copy of the record list.
func (s *Session) Records() []models.Record {
	return models.CloneRecords(s.records)
}

// Record returns the record with the given id.
func (s *Session) Record(id string) (models.Record, error) {
	i, err := s.index(id)
	if err != nil {
		return models.Record{}, err
	}
	return s.records[i].Clone(), nil
}

// Find returns the first record whose id or label matches key.
func (s *Session) Find(key string) (models.Record, error) {
	if r, err := s.Record(key); err == nil {
		return r, nil
	}
	for _, r := range s.records {
		if strings.TrimSpace(r.Label) == strings.TrimSpace(key) {
			return r.Clone(), nil
		}
	}
	return models.Record{}, fmt.Errorf("%w: %q", ErrUnknownRecord, key)
}

func (s *Session) index(id string) (int, error) {
	for i, r := range s.records {
		if r.ID == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownRecord, id)
}

// SetStatus changes the status of a record.
func (s *Session) SetStatus(id string, status models.Status) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	i, err := s.index(id)
	if err != nil {
		return err
	}
	s.records[i].Status = status
	return nil
}

// SetLabel renames a record.
func (s *Session) SetLabel(id, label string) error {
	if strings.TrimSpace(label) == "" {
		return ErrEmptyLabel
	}
	i, err := s.index(id)
	if err != nil {
		return err
	}
	s.records[i].Label = label
	return nil
}

// SetField sets an optional field declared by the layout.
func (s *Session) SetField(id, name string, v models.Value) error {
	if _, ok := s.Layout.Field(name); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	i, err := s.index(id)
	if err != nil {
		return err
	}
	if s.records[i].Fields == nil {
		s.records[i].Fields = map[string]models.Value{}
	}
	s.records[i].Fields[name] = v
	return nil
}

// Add appends a new record. It gets a row of its own on the next export.
func (s *Session) Add(label string, status models.Status) (models.Record, error) {
	if strings.TrimSpace(label) == "" {
		return models.Record{}, ErrEmptyLabel
	}
	if status == "" {
		status = s.Layout.Vocabulary.Default()
	}
	if !status.Valid() {
		return models.Record{}, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}
	r := models.Record{
		ID:        mapper.RecordID(s.nextID),
		Label:     label,
		Status:    status,
		AnchorRow: models.NoAnchor,
	}
	s.nextID++
	s.records = append(s.records, r)
	return r.Clone(), nil
}

// Remove drops a record from the list. Its worksheet row is left as it is.
func (s *Session) Remove(id string) error {
	i, err := s.index(id)
	if err != nil {
		return err
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	return nil
}

// Replace swaps in a whole record list, e.g. one loaded from a store.
func (s *Session) Replace(records []models.Record) error {
	seen := map[string]bool{}
	for _, r := range records {
		if !r.Status.Valid() {
			return fmt.Errorf("record %q: %w: %q", r.ID, ErrUnknownStatus, r.Status)
		}
		if strings.TrimSpace(r.Label) == "" {
			return fmt.Errorf("record %q: %w", r.ID, ErrEmptyLabel)
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate record id %q", r.ID)
		}
		seen[r.ID] = true
	}
	s.setRecords(models.CloneRecords(records))
	return nil
}

// Restore reconciles a record list saved from an earlier session with the
// freshly imported one. A saved record keeps its status and fields only when
// the imported record at its anchor row carries the same label; saved
// records that were never exported are added again. Every other saved
// record is dropped, so a list saved against another workbook cannot write
// into rows it does not describe. Imported records the saved list does not
// mention stay as extracted.
func (s *Session) Restore(saved []models.Record) (restored, dropped int, err error) {
	for _, r := range saved {
		if !r.Status.Valid() {
			return 0, 0, fmt.Errorf("record %q: %w: %q", r.ID, ErrUnknownStatus, r.Status)
		}
		if !r.Anchored() && strings.TrimSpace(r.Label) == "" {
			return 0, 0, fmt.Errorf("record %q: %w", r.ID, ErrEmptyLabel)
		}
	}

	byRow := make(map[int]int, len(s.records))
	for i, r := range s.records {
		if r.Anchored() {
			byRow[r.AnchorRow] = i
		}
	}

	records := models.CloneRecords(s.records)
	used := map[int]bool{}
	var added []models.Record
	for _, r := range saved {
		if !r.Anchored() {
			added = append(added, r)
			continue
		}
		i, ok := byRow[r.AnchorRow]
		if !ok || used[i] || strings.TrimSpace(records[i].Label) != strings.TrimSpace(r.Label) {
			dropped++
			continue
		}
		used[i] = true
		records[i].Status = r.Status
		s.restoreFields(&records[i], r.Fields)
		restored++
	}

	s.records = records
	for _, r := range added {
		rec, _ := s.Add(r.Label, r.Status)
		i, _ := s.index(rec.ID)
		s.restoreFields(&s.records[i], r.Fields)
		restored++
	}
	return restored, dropped, nil
}

func (s *Session) restoreFields(dst *models.Record, fields map[string]models.Value) {
	for name, v := range fields {
		if _, ok := s.Layout.Field(name); !ok {
			continue
		}
		if dst.Fields == nil {
			dst.Fields = map[string]models.Value{}
		}
		dst.Fields[name] = v
	}
}

// Build merges the record list into the worksheet and returns the new grid
// together with the records, all anchored. The session is not changed.
func (s *Session) Build() (*grid.Document, []models.Record, error) {
	var anchored []models.Record
	for _, r := range s.records {
		if r.Anchored() {
			anchored = append(anchored, r)
		}
	}
	merged, err := mapper.Merge(s.doc, anchored, s.Layout)
	if err != nil {
		return nil, nil, err
	}
	return mapper.Append(merged, s.records, s.Layout)
}

// Export builds and encodes the workbook. On success the session continues
// from the exported workbook: new records keep the rows they were given.
func (s *Session) Export(opts Options) ([]byte, error) {
	doc, records, err := s.Build()
	if err != nil {
		return nil, err
	}

	var out []byte
	if opts.ShouldPreserveFormatting() && s.Source != nil {
		out, err = grid.EncodeOnto(s.Source, doc)
	} else {
		out, err = grid.Encode(doc)
	}
	if err != nil {
		return nil, err
	}

	s.Source = out
	s.doc = doc
	s.records = records
	return out, nil
}
