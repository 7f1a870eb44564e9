package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ultimatefreight/freightdesk/internal/export"
	"github.com/ultimatefreight/freightdesk/internal/service"
	"github.com/ultimatefreight/freightdesk/internal/store"
	"github.com/ultimatefreight/freightdesk/pkg/location"
	"github.com/ultimatefreight/freightdesk/pkg/pricing"
	"github.com/ultimatefreight/freightdesk/pkg/validation"
	"go.uber.org/zap"
)

// AdminPasswordHeader carries the admin password on /api/admin requests.
const AdminPasswordHeader = "X-Admin-Password"

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type queriesResponse struct {
	Source  string              `json:"source"`
	Count   int                 `json:"count"`
	Queries []store.QueryRecord `json:"queries"`
}

type clearResponse struct {
	Message string `json:"message"`
}

func (s *Server) handleCalculatePrice(w http.ResponseWriter, r *http.Request) {
	var req pricing.ShipmentRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.svc.CalculatePrice(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var q service.QuoteRequest
	if !s.decode(w, r, &q) {
		return
	}
	res, err := s.svc.SubmitQuote(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var m service.ContactMessage
	if !s.decode(w, r, &m) {
		return
	}
	res, err := s.svc.SubmitContact(r.Context(), m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, location.Countries())
}

func (s *Server) handleCurrencies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, location.Currencies())
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(AdminPasswordHeader)
		if s.adminPassword == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.adminPassword)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Invalid admin password"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// records loads the local log, or the remote collector's copy with ?source=remote.
func (s *Server) records(r *http.Request) (string, []store.QueryRecord, error) {
	if r.URL.Query().Get("source") == "remote" {
		records, err := s.svc.RemoteQueries(r.Context())
		return "remote", records, err
	}
	records, err := s.svc.Queries(r.Context())
	return "local", records, err
}

func (s *Server) handleListQueries(w http.ResponseWriter, r *http.Request) {
	source, records, err := s.records(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []store.QueryRecord{}
	}
	writeJSON(w, http.StatusOK, queriesResponse{Source: source, Count: len(records), Queries: records})
}

func (s *Server) handleExportQueries(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
		return
	}
	_, records, err := s.records(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data, format, err := s.exporter.Render(r.Context(), format, export.Flatten(records))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(s.now(), format)+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleClearQueries(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearQueries(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, clearResponse{Message: "All queries cleared"})
}

func (s *Server) handleGetPricingConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.PricingConfig(r.Context()))
}

func (s *Server) handlePutPricingConfig(w http.ResponseWriter, r *http.Request) {
	var cfg pricing.Config
	if !s.decode(w, r, &cfg) {
		return
	}
	saved, err := s.svc.UpdatePricingConfig(r.Context(), cfg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleResetPricingConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.svc.ResetPricingConfig(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// decode reads a JSON body into v, answering 400 itself on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid JSON: " + err.Error()})
		return false
	}
	return true
}

// writeError maps service errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errs, ok := validation.As(err); ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Validation failed", Errors: errs.Map()})
		return
	}
	switch {
	case errors.Is(err, pricing.ErrInvalidConfig):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.Is(err, service.ErrRemoteDisabled):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	default:
		s.logger.Ctx(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		if errors.Is(err, service.ErrRemoteUnavailable) {
			writeJSON(w, http.StatusBadGateway, errorResponse{Message: "Remote query storage is unavailable"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
