package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewCollector_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordRequestDuration(50 * time.Millisecond)
	c.RecordRegistration()
	c.RecordCompletion()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather returned error: %v", err)
	}

	got := make(map[string]bool)
	for _, fam := range families {
		got[fam.GetName()] = true
	}

	want := []string{
		"habitmaster_http_status_total",
		"habitmaster_request_duration_seconds",
		"habitmaster_registrations_total",
		"habitmaster_completions_total",
	}
	for _, name := range want {
		if !got[name] {
			t.Errorf("metric %q not registered", name)
		}
	}
}

func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected MustRegister to panic on duplicate registration")
		}
	}()
	NewCollector(reg)
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordRegistration()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), "habitmaster_registrations_total 1") {
		t.Errorf("expected registrations counter in scrape output, got:\n%s", rec.Body.String())
	}
}
