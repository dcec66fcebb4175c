package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestInstrument_CountsByRouteAndCode(t *testing.T) {
	h := Instrument("POST /test-teapot", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("POST /test-teapot", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/test", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/test", nil))

	assert.Equal(t, before+2, testutil.ToFloat64(RequestsTotal.WithLabelValues("POST /test-teapot", "418")))
	assert.Equal(t, float64(0), testutil.ToFloat64(ActiveRequests.WithLabelValues("POST /test-teapot")))
}

func TestInstrument_DefaultsToOK(t *testing.T) {
	h := Instrument("GET /test-ok", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, float64(1), testutil.ToFloat64(RequestsTotal.WithLabelValues("GET /test-ok", "200")))
}

func TestRecordParsed(t *testing.T) {
	beforeType := testutil.ToFloat64(NotificationsParsed.WithLabelValues("취소"))
	beforeField := testutil.ToFloat64(MissingFields.WithLabelValues("merchant"))

	RecordParsed("취소", "merchant")

	assert.Equal(t, beforeType+1, testutil.ToFloat64(NotificationsParsed.WithLabelValues("취소")))
	assert.Equal(t, beforeField+1, testutil.ToFloat64(MissingFields.WithLabelValues("merchant")))
}

func TestNewStatusRecorder_ReusesRecorder(t *testing.T) {
	rec := NewStatusRecorder(httptest.NewRecorder())
	assert.Same(t, rec, NewStatusRecorder(rec))
}
