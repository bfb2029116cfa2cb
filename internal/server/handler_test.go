package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Tegakist/DSS/pkg/flowsheet/layout"
	"github.com/Tegakist/DSS/pkg/flowsheet/models"
	"github.com/Tegakist/DSS/pkg/flowsheet/store"
)

func workbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range [][]interface{}{
		{"#", "status", "", "label"},
		{1, "done", "", "Plan"},
		{2, "waiting", "", "Review"},
	} {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func newTestServer(t *testing.T, opts ...Option) http.Handler {
	t.Helper()
	l, err := layout.Preset("board")
	require.NoError(t, err)
	return New(l, opts...).Router()
}

func do(t *testing.T, h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, h http.Handler) sessionResponse {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/sessions?name=board.xlsx", workbook(t))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCreateSession(t *testing.T) {
	resp := createSession(t, newTestServer(t))
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "Sheet1", resp.Sheet)
	assert.Equal(t, "board.xlsx", resp.Name)
	assert.Equal(t, "A1:D3", resp.Range)
	require.Len(t, resp.Records, 2)
	assert.Equal(t, "Plan", resp.Records[0].Label)
	assert.Equal(t, models.StatusWaiting, resp.Records[1].Status)
}

func TestCreateSessionMalformed(t *testing.T) {
	rec := do(t, newTestServer(t), http.MethodPost, "/sessions", []byte("not xlsx"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestCreateSessionTooLarge(t *testing.T) {
	h := newTestServer(t, WithMaxUpload(16))
	rec := do(t, h, http.MethodPost, "/sessions", workbook(t))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestEditAndExport(t *testing.T) {
	st := store.NewMemoryStore()
	h := newTestServer(t, WithStore(st))
	sess := createSession(t, h)
	base := "/sessions/" + sess.ID

	rec := do(t, h, http.MethodPatch, base+"/records/node-2", []byte(`{"status":"blocked"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, models.StatusBlocked, updated.Status)

	rec = do(t, h, http.MethodPost, base+"/records", []byte(`{"label":"Ship","status":"Pending"}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodDelete, base+"/records/node-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, base+"/records", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list recordsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Records, 2)
	assert.Equal(t, "Ship", list.Records[1].Label)

	saved, err := st.Scope(sess.ID).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, list.Records, saved)

	rec = do(t, h, http.MethodGet, base+"/export", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(rec.Header().Get("Content-Disposition"), `filename="board.xlsx"`))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	for cell, want := range map[string]string{
		"B2": "done",
		"D2": "Plan",
		"B3": "blocked",
		"B4": "pending",
		"D4": "Ship",
	} {
		got, err := f.GetCellValue("Sheet1", cell)
		require.NoError(t, err)
		assert.Equal(t, want, got, cell)
	}
}

func TestSessionsPersistSeparately(t *testing.T) {
	st := store.NewMemoryStore()
	h := newTestServer(t, WithStore(st))
	first := createSession(t, h)
	second := createSession(t, h)

	rec := do(t, h, http.MethodPatch, "/sessions/"+first.ID+"/records/node-1", []byte(`{"status":"blocked"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, h, http.MethodDelete, "/sessions/"+second.ID+"/records/node-2", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	ctx := context.Background()
	saved, err := st.Scope(first.ID).Load(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, models.StatusBlocked, saved[0].Status)

	saved, err = st.Scope(second.ID).Load(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, models.StatusDone, saved[0].Status)

	shared, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, shared)
}

func TestErrorStatuses(t *testing.T) {
	h := newTestServer(t)
	sess := createSession(t, h)
	base := "/sessions/" + sess.ID

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
	}{
		{"unknown session", http.MethodGet, "/sessions/nope/records", "", http.StatusNotFound},
		{"unknown record", http.MethodPatch, base + "/records/node-9", `{"status":"done"}`, http.StatusNotFound},
		{"bad status", http.MethodPatch, base + "/records/node-1", `{"status":"archived"}`, http.StatusBadRequest},
		{"empty label", http.MethodPatch, base + "/records/node-1", `{"label":"  "}`, http.StatusBadRequest},
		{"bad json", http.MethodPost, base + "/records", `{`, http.StatusBadRequest},
		{"add without label", http.MethodPost, base + "/records", `{"status":"done"}`, http.StatusBadRequest},
		{"add bad status", http.MethodPost, base + "/records", `{"label":"x","status":"later"}`, http.StatusBadRequest},
		{"remove unknown", http.MethodDelete, base + "/records/node-9", "", http.StatusNotFound},
		{"export unknown session", http.MethodGet, "/sessions/nope/export", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.target, []byte(tt.body))
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
		})
	}
}

func TestUpdateRecordRejectedLeavesRecord(t *testing.T) {
	h := newTestServer(t)
	sess := createSession(t, h)
	base := "/sessions/" + sess.ID

	tests := []struct {
		name string
		body string
	}{
		{"blank label", `{"status":"blocked","label":"  "}`},
		{"bad status", `{"status":"archived","label":"Renamed"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPatch, base+"/records/node-2", []byte(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			rec = do(t, h, http.MethodGet, base+"/records", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			var resp recordsResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Len(t, resp.Records, 2)
			assert.Equal(t, "Review", resp.Records[1].Label)
			assert.Equal(t, models.StatusWaiting, resp.Records[1].Status)
		})
	}
}

func TestDeleteSession(t *testing.T) {
	h := newTestServer(t)
	sess := createSession(t, h)

	rec := do(t, h, http.MethodDelete, "/sessions/"+sess.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, "/sessions/"+sess.ID+"/records", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, h, http.MethodDelete, "/sessions/"+sess.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
