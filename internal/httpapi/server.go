// Package httpapi exposes the appraisal engine over HTTP: run an appraisal,
// fetch stored runs, render the PDF, and read or patch the economics settings.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/mvipergts/value/internal/appraisal"
	"github.com/mvipergts/value/internal/offer"
	"github.com/mvipergts/value/internal/render"
	"github.com/mvipergts/value/internal/store"
)

// Runner executes one appraisal; the pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, req appraisal.Request) appraisal.Result
}

// Store is the persistence surface the server needs.
type Store interface {
	SaveAppraisal(ctx context.Context, req appraisal.Request, res appraisal.Result) (store.Record, error)
	GetAppraisal(ctx context.Context, id string) (store.Record, error)
	ListAppraisals(ctx context.Context, limit int) ([]store.Summary, error)
	ReadSettings(ctx context.Context) (offer.Settings, error)
	UpdateSettings(ctx context.Context, patch json.RawMessage) (offer.Settings, error)
}

// PDFRenderer turns a stored report into bytes; nil disables the endpoint.
type PDFRenderer interface {
	Render(ctx context.Context, markdown string, meta render.Meta) ([]byte, error)
}

type Server struct {
	runner Runner
	store  Store
	pdf    PDFRenderer
}

func NewServer(runner Runner, st Store, pdf PDFRenderer) http.Handler {
	s := &Server{runner: runner, store: st, pdf: pdf}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/appraisals", s.handleAppraisals)
	mux.HandleFunc("/v1/appraisals/", s.handleAppraisalByID)
	mux.HandleFunc("/v1/settings", s.handleSettings)
	mux.HandleFunc("/v1/health", s.handleHealth)
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"ok": false,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte("{}"), nil
	}
	blob, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	return blob, nil
}

func parseInt(value string, def int) int {
	if strings.TrimSpace(value) == "" {
		return def
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return v
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func validateRequest(req appraisal.Request) string {
	if strings.TrimSpace(req.Vehicle) == "" {
		return "vehicle is required"
	}
	if req.RetailBase <= 0 {
		return "retail_base must be positive"
	}
	if req.WholesaleBase <= 0 {
		return "wholesale_base must be positive"
	}
	if req.Mileage < 0 {
		return "mileage must not be negative"
	}
	return ""
}

func (s *Server) handleAppraisals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		blob, err := readBody(r)
		if err != nil {
			writeError(w, 400, "validation", err.Error())
			return
		}
		var req appraisal.Request
		if err := json.Unmarshal(blob, &req); err != nil {
			writeError(w, 400, "validation", "invalid JSON: "+err.Error())
			return
		}
		if msg := validateRequest(req); msg != "" {
			writeError(w, 400, "validation", msg)
			return
		}

		res := s.runner.Run(r.Context(), req)
		rec, err := s.store.SaveAppraisal(r.Context(), req, res)
		if err != nil {
			writeError(w, 500, "internal", err.Error())
			return
		}
		writeJSON(w, 200, map[string]any{
			"ok":        true,
			"id":        rec.ID,
			"appraisal": res,
		})
	case http.MethodGet:
		limit := parseInt(r.URL.Query().Get("limit"), 0)
		out, err := s.store.ListAppraisals(r.Context(), limit)
		if err != nil {
			writeError(w, 500, "internal", err.Error())
			return
		}
		if out == nil {
			out = []store.Summary{}
		}
		writeJSON(w, 200, map[string]any{"appraisals": out})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAppraisalByID(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/v1/appraisals/")
	wantPDF := false
	if strings.HasSuffix(path, "/pdf") {
		wantPDF = true
		path = strings.TrimSuffix(path, "/pdf")
	}
	id := strings.Trim(path, "/")
	if id == "" || strings.Contains(id, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	rec, err := s.store.GetAppraisal(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, 404, "not_found", "no appraisal "+id)
		return
	}
	if err != nil {
		writeError(w, 500, "internal", err.Error())
		return
	}

	if !wantPDF {
		writeJSON(w, 200, map[string]any{"ok": true, "id": rec.ID, "appraisal": rec.Result, "created_at": rec.CreatedAt})
		return
	}

	if s.pdf == nil {
		writeError(w, 501, "unsupported", "pdf rendering not configured")
		return
	}
	pdf, err := s.pdf.Render(r.Context(), rec.Result.ReportMarkdown, render.Meta{
		AppraisalID:  rec.ID,
		Vehicle:      rec.Vehicle,
		TargetMaxBuy: rec.Result.Offer.TargetMaxBuy,
		CompletedAt:  rec.Result.CompletedAt,
		Degraded:     rec.Result.Degraded,
	})
	if err != nil {
		writeError(w, 500, "internal", err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+rec.ID+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := s.store.ReadSettings(r.Context())
		if err != nil {
			writeError(w, 500, "internal", err.Error())
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true, "settings": settings})
	case http.MethodPatch:
		blob, err := readBody(r)
		if err != nil {
			writeError(w, 400, "validation", err.Error())
			return
		}
		if !json.Valid(blob) {
			writeError(w, 400, "validation", "patch must be a JSON object")
			return
		}
		merged, err := s.store.UpdateSettings(r.Context(), blob)
		if err != nil {
			writeError(w, 400, "validation", err.Error())
			return
		}
		writeJSON(w, 200, map[string]any{"ok": true, "settings": merged})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !methodOnly(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, 200, map[string]any{"ok": true, "status": "healthy"})
}
