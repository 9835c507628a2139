package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersExposed(t *testing.T) {
	m := New()
	m.Submissions.WithLabelValues(Outcome(nil)).Inc()
	m.Submissions.WithLabelValues(Outcome(errors.New("x"))).Inc()
	m.ValidationFailures.WithLabelValues("too_many_selected").Inc()

	if got := testutil.ToFloat64(m.Submissions.WithLabelValues("ok")); got != 1 {
		t.Fatalf("expected 1 ok submission, got %v", got)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `moviequiz_validation_failures_total{notice="too_many_selected"} 1`) {
		t.Fatalf("expected validation counter in output, got:\n%s", body)
	}
}
