package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/books/{id}", "200"))

	RecordHTTPRequest("GET", "/books/{id}", http.StatusOK, 15*time.Millisecond)
	RecordHTTPRequest("GET", "/books/{id}", http.StatusOK, 30*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/books/{id}", "200"))
	assert.Equal(t, before+2, after)
}

func TestRecordHTTPRequest_UnmatchedRoute(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))
	RecordHTTPRequest("GET", "", http.StatusNotFound, time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPActiveRequests)
	TrackActiveRequest(true)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPActiveRequests))
	TrackActiveRequest(false)
	assert.Equal(t, before, testutil.ToFloat64(HTTPActiveRequests))
}

func TestRecordAuthEvent(t *testing.T) {
	before := testutil.ToFloat64(AuthEvents.WithLabelValues("login", "failure"))
	RecordAuthEvent("login", "failure")
	assert.Equal(t, before+1, testutil.ToFloat64(AuthEvents.WithLabelValues("login", "failure")))
}

func TestRecordCleanup_IgnoresZero(t *testing.T) {
	before := testutil.ToFloat64(CleanupDeleted.WithLabelValues("sessions"))
	RecordCleanup("sessions", 0)
	RecordCleanup("sessions", 3)
	assert.Equal(t, before+3, testutil.ToFloat64(CleanupDeleted.WithLabelValues("sessions")))
}

func TestHandler(t *testing.T) {
	RecordOpenLibrary("hit")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "bookbuddy_openlibrary_requests_total"))
}
