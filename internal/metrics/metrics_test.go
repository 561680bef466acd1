package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"shelfhub/pkg/entity"
)

func TestObserveCountsByLabels(t *testing.T) {
	before := testutil.ToFloat64(requests.WithLabelValues("rest", "library", "get", ResultNotFound))
	Observe("rest", "library", "get", ResultNotFound, time.Millisecond)
	Observe("rest", "library", "get", ResultNotFound, time.Millisecond)
	after := testutil.ToFloat64(requests.WithLabelValues("rest", "library", "get", ResultNotFound))
	assert.Equal(t, before+2, after)
}

func TestHandlerExposesCounters(t *testing.T) {
	Observe("graphql", "book", "create", ResultOK, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `shelfhub_requests_total{entity="book",op="create",protocol="graphql",result="ok"}`))
}

func TestResult(t *testing.T) {
	assert.Equal(t, ResultOK, Result(nil))
	assert.Equal(t, ResultNotFound, Result(entity.NotFound("Library")))
	assert.Equal(t, ResultInvalid, Result(entity.Invalid("Book", "id required")))
	assert.Equal(t, ResultBackend, Result(errors.New("boom")))
}
