// Package handler exposes the ingest service over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/FACorreiaa/card-alert-ledger/internal/domain/common"
	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/parser"
	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/repository"
	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/service"
)

// IngestService is the subset of service.IngestService used by the handlers.
type IngestService interface {
	Preview(raw string, year int) parser.Record
	Ingest(ctx context.Context, raw string, year int) (*repository.Transaction, error)
	IngestBatch(ctx context.Context, lines []string, year int) (*service.BatchResult, error)
	Seed(ctx context.Context) (int, error)
	DayView(ctx context.Context, date string) (*service.DayView, error)
}

var _ IngestService = (*service.IngestService)(nil)

// Route is one registered endpoint. Protected routes write to the ledger.
type Route struct {
	Pattern   string
	Handler   http.Handler
	Protected bool
}

// NotificationHandler serves the ingest and ledger endpoints.
type NotificationHandler struct {
	svc         IngestService
	logger      *slog.Logger
	seedEnabled bool
}

// NewNotificationHandler creates the HTTP handler set.
func NewNotificationHandler(svc IngestService, logger *slog.Logger, seedEnabled bool) *NotificationHandler {
	return &NotificationHandler{svc: svc, logger: logger, seedEnabled: seedEnabled}
}

// Routes lists every endpoint with its ServeMux pattern.
func (h *NotificationHandler) Routes() []Route {
	routes := []Route{
		{Pattern: "POST /ingest", Handler: http.HandlerFunc(h.IngestForm), Protected: true},
		{Pattern: "POST /ingest-json", Handler: http.HandlerFunc(h.IngestJSON), Protected: true},
		{Pattern: "POST /ingest-raw", Handler: http.HandlerFunc(h.IngestRaw), Protected: true},
		{Pattern: "POST /ingest-batch", Handler: http.HandlerFunc(h.IngestBatch), Protected: true},
		{Pattern: "POST /parse", Handler: http.HandlerFunc(h.Parse)},
		{Pattern: "GET /transactions", Handler: http.HandlerFunc(h.Transactions)},
	}
	if h.seedEnabled {
		routes = append(routes, Route{Pattern: "POST /seed", Handler: http.HandlerFunc(h.Seed), Protected: true})
	}
	return routes
}

type ingestRequest struct {
	RawText string `json:"raw_text"`
	Year    int    `json:"year"`
}

type batchRequest struct {
	Lines []string `json:"lines"`
	Year  int      `json:"year"`
}

type entryResponse struct {
	OK    bool          `json:"ok"`
	Entry parser.Record `json:"entry"`
}

// IngestForm accepts a form post and redirects to the transaction's day.
func (h *NotificationHandler) IngestForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %v", common.ErrBadRequest, err))
		return
	}
	year, err := parseYear(r.PostFormValue("year"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	tx, err := h.svc.Ingest(r.Context(), r.PostFormValue("raw_text"), year)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	target := "/transactions?" + url.Values{"date": {tx.YyyyMmDd}}.Encode()
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// IngestJSON accepts {"raw_text": ..., "year": ...}.
func (h *NotificationHandler) IngestJSON(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	tx, err := h.svc.Ingest(r.Context(), req.RawText, req.Year)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entryResponse{OK: true, Entry: tx.Record()})
}

// IngestRaw accepts the notification text as the request body.
func (h *NotificationHandler) IngestRaw(w http.ResponseWriter, r *http.Request) {
	year, err := parseYear(r.URL.Query().Get("year"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	tx, err := h.svc.Ingest(r.Context(), string(body), year)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entryResponse{OK: true, Entry: tx.Record()})
}

// IngestBatch accepts {"lines": [...], "year": ...}.
func (h *NotificationHandler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.svc.IngestBatch(r.Context(), req.Lines, req.Year)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// Parse previews a notification without storing it.
func (h *NotificationHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]parser.Record{"entry": h.svc.Preview(req.RawText, req.Year)})
}

// Transactions returns the ledger for ?date=YYYY-MM-DD (default today).
func (h *NotificationHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.DayView(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// Seed stores the sample notifications.
func (h *NotificationHandler) Seed(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Seed(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true, "added": n})
}

func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < 1 || year > 9999 {
		return 0, fmt.Errorf("%w: year must be between 1 and 9999", common.ErrBadRequest)
	}
	return year, nil
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return fmt.Errorf("%w: invalid JSON body", common.ErrBadRequest)
	}
	return nil
}

func (h *NotificationHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h *NotificationHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) (int, string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, "request body too large"
	case errors.Is(err, common.ErrBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrUndated):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
