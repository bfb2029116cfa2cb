package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/Tegakist/DSS/pkg/flowsheet"
	"github.com/Tegakist/DSS/pkg/flowsheet/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type sessionResponse struct {
	ID      string          `json:"id"`
	Name    string          `json:"name,omitempty"`
	Sheet   string          `json:"sheet"`
	Range   string          `json:"range,omitempty"`
	Records []models.Record `json:"records"`
}

type recordsResponse struct {
	Records []models.Record `json:"records"`
}

type addRequest struct {
	Label  string `json:"label"`
	Status string `json:"status"`
}

type updateRequest struct {
	Label  *string `json:"label"`
	Status *string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func getHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUpload))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}
	flow, err := flowsheet.Import(data, s.layout)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}

	name := path.Base(strings.TrimSpace(r.URL.Query().Get("name")))
	if name == "." || name == "/" {
		name = ""
	}
	sess := s.open(name, flow)
	bounds, _ := flow.Document().Bounds()
	log.WithFields(log.Fields{
		"session": sess.id,
		"sheet":   flow.Document().SheetID,
		"range":   flow.Document().UsedRange(),
		"density": fmt.Sprintf("%.2f", bounds.Density()),
		"records": len(flow.Records()),
	}).Info("Imported workbook")

	sess.mu.Lock()
	s.persist(r.Context(), sess)
	resp := sessionResponse{
		ID:      sess.id,
		Name:    sess.name,
		Sheet:   flow.Document().SheetID,
		Range:   flow.Document().UsedRange(),
		Records: flow.Records(),
	}
	sess.mu.Unlock()
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.close(chi.URLParam(r, "sessionID")) {
		writeError(w, http.StatusNotFound, errUnknownSession)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	records := sess.flow.Records()
	sess.mu.Unlock()
	writeJSON(w, http.StatusOK, recordsResponse{Records: records})
}

func (s *Server) addRecord(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req addRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var status models.Status
	if req.Status != "" {
		if status, ok = models.ParseStatus(req.Status); !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %q", flowsheet.ErrUnknownStatus, req.Status))
			return
		}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	record, err := sess.flow.Add(req.Label, status)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) updateRecord(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id := chi.URLParam(r, "recordID")

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if _, err := sess.flow.Record(id); err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	// validate the whole patch before touching the session
	var status models.Status
	if req.Status != nil {
		parsed, ok := models.ParseStatus(*req.Status)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %q", flowsheet.ErrUnknownStatus, *req.Status))
			return
		}
		status = parsed
	}
	if req.Label != nil && strings.TrimSpace(*req.Label) == "" {
		writeError(w, http.StatusBadRequest, flowsheet.ErrEmptyLabel)
		return
	}

	if req.Status != nil {
		if err := sess.flow.SetStatus(id, status); err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
	}
	if req.Label != nil {
		if err := sess.flow.SetLabel(id, *req.Label); err != nil {
			writeError(w, errorStatus(err), err)
			return
		}
	}
	record, err := sess.flow.Record(id)
	if err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	s.persist(r.Context(), sess)
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) removeRecord(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.flow.Remove(chi.URLParam(r, "recordID")); err != nil {
		writeError(w, errorStatus(err), err)
		return
	}
	s.persist(r.Context(), sess)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportWorkbook(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	opts := flowsheet.DefaultOptions()
	if r.URL.Query().Get("fresh") == "true" {
		preserve := false
		opts.PreserveFormatting = &preserve
	}

	sess.mu.Lock()
	data, err := sess.flow.Export(opts)
	if err == nil {
		s.persist(r.Context(), sess)
	}
	sess.mu.Unlock()
	if err != nil {
		log.WithFields(log.Fields{"session": sess.id}).WithError(err).Info("Export rejected")
		writeError(w, errorStatus(err), err)
		return
	}

	filename := sess.name
	if filename == "" {
		filename = "flowsheet.xlsx"
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.WithError(err).Warn("Failed to write export")
	}
}

var errUnknownSession = errors.New("unknown session")

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, ok := s.lookup(chi.URLParam(r, "sessionID"))
	if !ok {
		writeError(w, http.StatusNotFound, errUnknownSession)
	}
	return sess, ok
}

func errorStatus(err error) int {
	var decodeErr *flowsheet.DecodeError
	var writeBackErr *flowsheet.WriteBackError
	switch {
	case errors.As(err, &decodeErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &writeBackErr):
		return http.StatusConflict
	case errors.Is(err, flowsheet.ErrUnknownRecord):
		return http.StatusNotFound
	case errors.Is(err, flowsheet.ErrUnknownStatus),
		errors.Is(err, flowsheet.ErrEmptyLabel),
		errors.Is(err, flowsheet.ErrUnknownField):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}
