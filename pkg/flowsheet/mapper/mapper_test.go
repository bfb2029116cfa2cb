package mapper

import (
	"errors"
	"testing"

	"github.com/Tegakist/DSS/pkg/flowsheet/grid"
	"github.com/Tegakist/DSS/pkg/flowsheet/models"
	"github.com/Tegakist/DSS/pkg/flowsheet/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	empty = models.EmptyCell()
	text  = models.TextCell
)

func boardLayout() *Layout {
	return &Layout{
		HeaderRowOffset: 0,
		StatusColumn:    1,
		LabelColumn:     3,
		Vocabulary:      FourTokenVocabulary(),
	}
}

func progressLayout() *Layout {
	return &Layout{
		HeaderRowOffset: 4,
		StatusColumn:    1,
		LabelColumn:     3,
		Fields: []Field{
			{Name: "ref_no", Column: 2, Kind: FieldText},
			{Name: "summary", Column: 4, Kind: FieldText},
			{Name: "due", Column: 5, Kind: FieldDate},
			{Name: "answered", Column: 6, Kind: FieldDate},
		},
		Vocabulary: TwoTokenVocabulary(),
		DateFormat: models.NumFormat{Code: "yyyy/m/d"},
	}
}

// progressSheet has five header rows and three record rows (5, 6 and 8);
// row 7 has no label and a note in a column nobody owns.
func progressSheet() *grid.Document {
	ymd := models.NumFormat{Code: "yyyy/m/d"}
	return grid.FromRows("進捗", [][]models.Cell{
		{text("工程管理表")},
		{},
		{text("作成日"), models.DateCell(45300, ymd)},
		{},
		{text("No"), text("状態"), text("整理番号"), text("工程"), text("概要"), text("期限"), text("回答日")},
		{models.NumberCell(1, models.NumFormat{}), text("済"), text("A-01"), text("設計"), text("基本設計"), models.DateCell(45356, ymd), models.DateCell(45350, ymd)},
		{models.NumberCell(2, models.NumFormat{}), text("回答待"), text("A-02"), text("レビュー"), empty, models.DateCell(45380, ymd)},
		{empty, text("済"), empty, empty, empty, empty, empty, text("memo")},
		{models.NumberCell(3, models.NumFormat{}), text("保留"), empty, text("試験"), empty, text("未定")},
	})
}

func TestExtract(t *testing.T) {
	doc := progressSheet()
	before := doc.Clone()

	records, err := Extract(doc, progressLayout())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, models.Record{
		ID:     "node-1",
		Label:  "設計",
		Status: models.StatusDone,
		Fields: map[string]models.Value{
			"ref_no":   models.TextValue("A-01"),
			"summary":  models.TextValue("基本設計"),
			"due":      models.NumberValue(45356),
			"answered": models.NumberValue(45350),
		},
		AnchorRow: 5,
	}, records[0])

	assert.Equal(t, "node-2", records[1].ID)
	assert.Equal(t, 6, records[1].AnchorRow)
	assert.Equal(t, models.StatusWaiting, records[1].Status)
	_, hasSummary := records[1].Field("summary")
	assert.False(t, hasSummary)

	// unknown token falls back to the default; textual date stays text
	assert.Equal(t, "node-3", records[2].ID)
	assert.Equal(t, 8, records[2].AnchorRow)
	assert.Equal(t, models.StatusWaiting, records[2].Status)
	assert.Equal(t, models.TextValue("未定"), records[2].Fields["due"])

	assert.True(t, before.Equal(doc), "extract must not modify the document")
}

func TestExtractSkipsBlankLabels(t *testing.T) {
	doc := grid.FromRows("", [][]models.Cell{
		{text("#"), text("status"), empty, text("label")},
		{empty, text("done"), empty, empty},
		{empty, text("done"), empty, text("   ")},
		{empty, text("waiting"), empty, text("Review")},
	})

	records, err := Extract(doc, boardLayout())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Review", records[0].Label)
	assert.Equal(t, models.StatusWaiting, records[0].Status)
	assert.Equal(t, 3, records[0].AnchorRow)
	assert.Equal(t, "node-1", records[0].ID)
}

func TestExtractNoHeader(t *testing.T) {
	layout := boardLayout()
	layout.HeaderRowOffset = -1
	doc := grid.FromRows("", [][]models.Cell{
		{empty, text("done"), empty, text("first")},
	})

	records, err := Extract(doc, layout)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 0, records[0].AnchorRow)
}

func TestExtractIdempotent(t *testing.T) {
	doc := progressSheet()
	first, err := Extract(doc, progressLayout())
	require.NoError(t, err)
	second, err := Extract(doc, progressLayout())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMergeRoundTripIdentity(t *testing.T) {
	for name, tc := range map[string]struct {
		doc    *grid.Document
		layout *Layout
	}{
		"progress": {progressSheet(), progressLayout()},
		"board": {grid.FromRows("", [][]models.Cell{
			{text("#"), text("status"), empty, text("label")},
			{empty, empty, empty, text("no status")},
			{empty, text("DONE "), empty, models.NumberCell(42, models.NumFormat{ID: 1})},
			{empty, text("later"), empty, text("unknown token")},
		}), boardLayout()},
	} {
		t.Run(name, func(t *testing.T) {
			records, err := Extract(tc.doc, tc.layout)
			require.NoError(t, err)

			merged, err := Merge(tc.doc, records, tc.layout)
			require.NoError(t, err)
			assert.True(t, tc.doc.Equal(merged), "diff at %v", tc.doc.Diff(merged))
		})
	}
}

func TestMergeIsolation(t *testing.T) {
	doc := progressSheet()
	layout := progressLayout()
	records, err := Extract(doc, layout)
	require.NoError(t, err)

	edited := models.CloneRecords(records)
	require.Equal(t, 6, edited[1].AnchorRow)
	edited[1].Status = models.StatusDone

	merged, err := Merge(doc, edited, layout)
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{6, layout.StatusColumn}}, doc.Diff(merged))
	assert.Equal(t, text("済"), merged.Cell(6, layout.StatusColumn))
	assert.Equal(t, doc.Cell(6, layout.LabelColumn), merged.Cell(6, layout.LabelColumn))

	// the source document is untouched
	assert.Equal(t, text("回答待"), doc.Cell(6, layout.StatusColumn))
}

func TestMergeFields(t *testing.T) {
	doc := progressSheet()
	layout := progressLayout()
	records, err := Extract(doc, layout)
	require.NoError(t, err)

	edited := models.CloneRecords(records)
	edited[0].Label = "詳細設計"
	edited[0].Fields["due"] = models.NumberValue(45400)
	edited[1].Fields["answered"] = models.NumberValue(45390)
	edited[1].Fields["due"] = models.TextValue("調整中")
	edited[2].Fields["summary"] = models.TextValue("")

	merged, err := Merge(doc, edited, layout)
	require.NoError(t, err)

	assert.Equal(t, text("詳細設計"), merged.Cell(5, 3))
	assert.Equal(t, models.DateCell(45400, models.NumFormat{Code: "yyyy/m/d"}), merged.Cell(5, 5))
	// no previous date cell: the layout date format is used
	assert.Equal(t, models.DateCell(45390, models.NumFormat{Code: "yyyy/m/d"}), merged.Cell(6, 6))
	assert.Equal(t, text("調整中"), merged.Cell(6, 5))
	assert.True(t, merged.Cell(8, 4).IsEmpty())
	assert.Equal(t, text("memo"), merged.Cell(7, 7))
}

func TestMergeKeepsExistingDateFormat(t *testing.T) {
	layout := progressLayout()
	layout.HeaderRowOffset = -1
	doc := grid.FromRows("", [][]models.Cell{
		{empty, text("済"), empty, text("x"), empty, models.DateCell(100, models.NumFormat{ID: 14})},
	})
	records, err := Extract(doc, layout)
	require.NoError(t, err)
	records[0].Fields["due"] = models.NumberValue(200)

	merged, err := Merge(doc, records, layout)
	require.NoError(t, err)
	assert.Equal(t, models.DateCell(200, models.NumFormat{ID: 14}), merged.Cell(0, 5))
}

func TestMergeWriteBackErrors(t *testing.T) {
	doc := progressSheet()
	layout := progressLayout()
	records, err := Extract(doc, layout)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func([]models.Record) []models.Record
		target error
	}{
		{"anchor past last row", func(r []models.Record) []models.Record {
			r[2].AnchorRow = doc.RowCount() + 3
			return r
		}, ErrAnchorOutOfRange},
		{"anchor equal to row count", func(r []models.Record) []models.Record {
			r[2].AnchorRow = doc.RowCount()
			return r
		}, ErrAnchorOutOfRange},
		{"anchor in header", func(r []models.Record) []models.Record {
			r[0].AnchorRow = 2
			return r
		}, ErrAnchorInHeader},
		{"unanchored", func(r []models.Record) []models.Record {
			r[0].AnchorRow = models.NoAnchor
			return r
		}, ErrUnanchored},
		{"duplicate anchor", func(r []models.Record) []models.Record {
			r[1].AnchorRow = r[0].AnchorRow
			return r
		}, ErrDuplicateAnchor},
		{"unknown status", func(r []models.Record) []models.Record {
			r[1].Status = "archived"
			return r
		}, ErrUnknownStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edited := tt.mutate(models.CloneRecords(records))
			edited[0].Status = models.StatusWaiting

			merged, err := Merge(doc, edited, layout)
			assert.Nil(t, merged)
			var wbErr *WriteBackError
			require.True(t, errors.As(err, &wbErr), "got %v", err)
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, text("済"), doc.Cell(5, 1), "merge must not write partially")
		})
	}
}

func TestAppend(t *testing.T) {
	doc := progressSheet()
	layout := progressLayout()
	records, err := Extract(doc, layout)
	require.NoError(t, err)

	added := models.Record{
		ID:        "node-4",
		Label:     "出荷",
		Status:    models.StatusWaiting,
		Fields:    map[string]models.Value{"due": models.NumberValue(45500)},
		AnchorRow: models.NoAnchor,
	}
	out, placed, err := Append(doc, append(records, added), layout)
	require.NoError(t, err)
	require.Len(t, placed, 4)
	assert.Equal(t, records[0], placed[0])
	assert.Equal(t, 9, placed[3].AnchorRow)

	assert.Equal(t, text("回答待"), out.Cell(9, 1))
	assert.Equal(t, text("出荷"), out.Cell(9, 3))
	assert.Equal(t, models.DateCell(45500, models.NumFormat{Code: "yyyy/m/d"}), out.Cell(9, 5))
	assert.Equal(t, 9, doc.RowCount())

	again, err := Extract(out, layout)
	require.NoError(t, err)
	require.Len(t, again, 4)
	assert.Equal(t, "出荷", again[3].Label)
}

func TestAppendBelowHeader(t *testing.T) {
	layout := progressLayout()
	doc := grid.FromRows("", [][]models.Cell{{text("title")}})
	out, placed, err := Append(doc, []models.Record{{ID: "node-1", Label: "a", Status: models.StatusDone, AnchorRow: models.NoAnchor}}, layout)
	require.NoError(t, err)
	assert.Equal(t, layout.DataStart(), placed[0].AnchorRow)
	assert.Equal(t, text("済"), out.Cell(layout.DataStart(), 1))
}

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Layout)
		ok     bool
	}{
		{"valid", func(*Layout) {}, true},
		{"negative column", func(l *Layout) { l.StatusColumn = -1 }, false},
		{"status equals label", func(l *Layout) { l.LabelColumn = l.StatusColumn }, false},
		{"field shares column", func(l *Layout) { l.Fields[0].Column = 3 }, false},
		{"duplicate field", func(l *Layout) { l.Fields[1].Name = "ref_no" }, false},
		{"unnamed field", func(l *Layout) { l.Fields[1].Name = " " }, false},
		{"bad kind", func(l *Layout) { l.Fields[1].Kind = "money" }, false},
		{"no vocabulary", func(l *Layout) { l.Vocabulary = nil }, false},
		{"header offset", func(l *Layout) { l.HeaderRowOffset = -2 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := progressLayout()
			tt.mutate(l)
			err := l.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidLayout)
			}
		})
	}
}

func TestDisplay(t *testing.T) {
	layout := progressLayout()
	r := models.Record{Fields: map[string]models.Value{
		"due":     models.NumberValue(45356),
		"ref_no":  models.TextValue("A-01"),
		"summary": models.NumberValue(12.5),
	}}

	assert.Equal(t, "2024-03-05", layout.Display(r, "due", serial.System1900))
	assert.Equal(t, "A-01", layout.Display(r, "ref_no", serial.System1900))
	assert.Equal(t, "12.5", layout.Display(r, "summary", serial.System1900))
	assert.Equal(t, "", layout.Display(r, "answered", serial.System1900))

	layout.DisplayLayout = "2006/01/02"
	assert.Equal(t, "2024/03/05", layout.Display(r, "due", serial.System1900))
}

func TestRecordID(t *testing.T) {
	assert.Equal(t, "node-7", RecordID(7))
	n, ok := RecordNumber("node-12")
	assert.True(t, ok)
	assert.Equal(t, 12, n)
	_, ok = RecordNumber("row-1")
	assert.False(t, ok)
}
