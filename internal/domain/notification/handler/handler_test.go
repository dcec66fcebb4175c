package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/card-alert-ledger/internal/domain/common"
	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/parser"
	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/repository"
	"github.com/FACorreiaa/card-alert-ledger/internal/domain/notification/service"
	"github.com/FACorreiaa/card-alert-ledger/pkg/db"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestMux wires the handlers to a real service backed by in-memory SQLite.
func newTestMux(t *testing.T, cfg service.Config, seed bool) *http.ServeMux {
	t.Helper()
	sqlDB, err := db.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.MigrateSQLite(context.Background(), sqlDB, discardLogger()))

	svc := service.NewIngestService(parser.NewEngine(), repository.NewSQLiteTransactionRepository(sqlDB), discardLogger(), cfg)
	h := NewNotificationHandler(svc, discardLogger(), seed)

	mux := http.NewServeMux()
	for _, route := range h.Routes() {
		mux.Handle(route.Pattern, route.Handler)
	}
	return mux
}

func do(mux http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestIngestForm_RedirectsToDay(t *testing.T) {
	mux := newTestMux(t, service.Config{}, false)

	form := url.Values{"raw_text": {"[현대카드] 10/07 13:45 12,300원 일시불 CU당산점 승인"}, "year": {"2024"}}
	w := do(mux, http.MethodPost, "/ingest", "application/x-www-form-urlencoded", form.Encode())

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/transactions?date=2024-10-07", w.Header().Get("Location"))

	w = do(mux, http.MethodGet, "/transactions?date=2024-10-07", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[service.DayView](t, w)
	require.Len(t, view.Transactions, 1)
	assert.Equal(t, "CU당산점", view.Transactions[0].Merchant)
	assert.Equal(t, int64(12300), view.Total)
}

func TestIngestForm_BadYear(t *testing.T) {
	mux := newTestMux(t, service.Config{}, false)

	form := url.Values{"raw_text": {"x 1,000원 승인"}, "year": {"twenty"}}
	w := do(mux, http.MethodPost, "/ingest", "application/x-www-form-urlencoded", form.Encode())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestJSON(t *testing.T) {
	mux := newTestMux(t, service.Config{}, false)

	w := do(mux, http.MethodPost, "/ingest-json", "application/json",
		`{"raw_text": "[현대카드] 10/06 19:05 18,000원 취소 배달의민족", "year": 2024}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[entryResponse](t, w)
	assert.True(t, resp.OK)
	assert.Equal(t, parser.Parse("[현대카드] 10/06 19:05 18,000원 취소 배달의민족", 2024), resp.Entry)
	assert.Equal(t, int64(-18000), resp.Entry.Amount)
}

func TestIngestJSON_Errors(t *testing.T) {
	mux := newTestMux(t, service.Config{RequireDate: true}, false)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"raw_text":`, http.StatusBadRequest},
		{"empty text", `{"raw_text": "   "}`, http.StatusBadRequest},
		{"undated", `{"raw_text": "hello world"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(mux, http.MethodPost, "/ingest-json", "application/json", tt.body)
			assert.Equal(t, tt.want, w.Code)
			assert.NotEmpty(t, decode[map[string]string](t, w)["error"])
		})
	}
}

func TestIngestRaw(t *testing.T) {
	mux := newTestMux(t, service.Config{}, false)

	w := do(mux, http.MethodPost, "/ingest-raw?year=2024", "text/plain",
		"[신한카드]\n10/07 08:12\n5,500원\n카카오T 서울택시 승인")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[entryResponse](t, w)
	assert.Equal(t, "카카오T 서울택시", resp.Entry.Merchant)
	assert.Equal(t, "교통", resp.Entry.Category)
	assert.Equal(t, "2024-10-07 08:12:00", resp.Entry.TxDatetime)
}

func TestIngestBatch(t *testing.T) {
	mux := newTestMux(t, service.Config{BatchLimit: 10}, false)

	body, err := json.Marshal(batchRequest{Lines: append([]string{""}, service.SeedNotifications...), Year: 2024})
	require.NoError(t, err)

	w := do(mux, http.MethodPost, "/ingest-batch", "application/json", string(body))
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[service.BatchResult](t, w)
	assert.Equal(t, 5, result.Inserted)
	assert.Equal(t, 1, result.Skipped)

	w = do(mux, http.MethodGet, "/transactions?date=2024-10-06", "", "")
	view := decode[service.DayView](t, w)
	assert.Len(t, view.Transactions, 2)
	assert.Equal(t, int64(0), view.Total)
}

func TestParse_DoesNotStore(t *testing.T) {
	mux := newTestMux(t, service.Config{}, false)

	w := do(mux, http.MethodPost, "/parse", "application/json",
		`{"raw_text": "[현대카드] 10/07 13:45 12,300원 일시불 CU당산점 승인", "year": 2024}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "편의점", decode[map[string]parser.Record](t, w)["entry"].Category)

	w = do(mux, http.MethodGet, "/transactions?date=2024-10-07", "", "")
	assert.Empty(t, decode[service.DayView](t, w).Transactions)
}

func TestTransactions_BadDate(t *testing.T) {
	mux := newTestMux(t, service.Config{}, false)
	w := do(mux, http.MethodGet, "/transactions?date=10-07-2024", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSeed(t *testing.T) {
	mux := newTestMux(t, service.Config{DefaultYear: 2024}, true)

	w := do(mux, http.MethodPost, "/seed", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok": true, "added": 5}`, w.Body.String())

	w = do(mux, http.MethodGet, "/transactions?date=2024-10-05", "", "")
	view := decode[service.DayView](t, w)
	require.Len(t, view.Transactions, 1)
	assert.Equal(t, "STARBUCKS 영등포", view.Transactions[0].Merchant)
}

func TestSeed_Disabled(t *testing.T) {
	mux := newTestMux(t, service.Config{}, false)
	w := do(mux, http.MethodPost, "/seed", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.ErrBadRequest, http.StatusBadRequest},
		{common.ErrUndated, http.StatusUnprocessableEntity},
		{common.ErrUnauthenticated, http.StatusUnauthorized},
		{common.ErrNotFound, http.StatusNotFound},
		{&http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, msg := statusFor(tt.err)
		assert.Equal(t, tt.want, status, tt.err.Error())
		assert.NotEmpty(t, msg)
	}

	_, msg := statusFor(errors.New("pq: password authentication failed"))
	assert.Equal(t, "internal server error", msg)
}
