package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	accounts "github.com/playtube/accounts"
)

type stubSource struct {
	snapshot accounts.MetricsSnapshot
	dropped  uint64
}

func (s *stubSource) MetricsSnapshot() accounts.MetricsSnapshot {
	return s.snapshot
}

func (s *stubSource) AuditDropped() uint64 {
	return s.dropped
}

func TestRender(t *testing.T) {
	source := &stubSource{
		snapshot: accounts.MetricsSnapshot{
			Counters: map[accounts.MetricID]uint64{
				accounts.MetricLoginSuccess:   7,
				accounts.MetricReplayDetected: 2,
			},
		},
		dropped: 3,
	}

	out := NewExporterFromSource(source).Render()

	wantLines := []string{
		"# HELP accounts_login_success_total",
		"# TYPE accounts_login_success_total counter",
		"accounts_login_success_total 7",
		"accounts_replay_detected_total 2",
		"accounts_register_success_total 0",
		"accounts_audit_dropped_total 3",
	}
	for _, want := range wantLines {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRenderCoversAllCounters(t *testing.T) {
	out := NewExporterFromSource(&stubSource{
		snapshot: accounts.MetricsSnapshot{Counters: map[accounts.MetricID]uint64{}},
	}).Render()

	for _, def := range counterDefs {
		if !strings.Contains(out, def.Name+" 0\n") {
			t.Fatalf("output missing counter %s", def.Name)
		}
	}
}

func TestHandler(t *testing.T) {
	source := &stubSource{
		snapshot: accounts.MetricsSnapshot{
			Counters: map[accounts.MetricID]uint64{accounts.MetricLogout: 1},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	NewExporterFromSource(source).Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "accounts_logout_total 1") {
		t.Fatalf("body missing logout counter:\n%s", rec.Body.String())
	}
}

func TestNilExporter(t *testing.T) {
	var e *Exporter
	if out := e.Render(); out != "" {
		t.Fatalf("nil exporter rendered %q", out)
	}
}
