// Package prometheus renders accounts metrics in the Prometheus text
// exposition format without pulling a client library into the hot path.
package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	accounts "github.com/playtube/accounts"
)

type metricsSource interface {
	MetricsSnapshot() accounts.MetricsSnapshot
	AuditDropped() uint64
}

type counterDef struct {
	ID   accounts.MetricID
	Name string
	Help string
}

var counterDefs = []counterDef{
	{ID: accounts.MetricRegisterSuccess, Name: "accounts_register_success_total", Help: "Successful registrations."},
	{ID: accounts.MetricRegisterDuplicate, Name: "accounts_register_duplicate_total", Help: "Registrations rejected as duplicate username/email."},
	{ID: accounts.MetricRegisterFailure, Name: "accounts_register_failure_total", Help: "Failed registrations."},
	{ID: accounts.MetricLoginSuccess, Name: "accounts_login_success_total", Help: "Successful login attempts."},
	{ID: accounts.MetricLoginFailure, Name: "accounts_login_failure_total", Help: "Failed login attempts."},
	{ID: accounts.MetricRefreshSuccess, Name: "accounts_refresh_success_total", Help: "Successful refresh-token rotations."},
	{ID: accounts.MetricRefreshFailure, Name: "accounts_refresh_failure_total", Help: "Failed refresh attempts."},
	{ID: accounts.MetricReplayDetected, Name: "accounts_replay_detected_total", Help: "Refresh tokens rejected by replay detection."},
	{ID: accounts.MetricLogout, Name: "accounts_logout_total", Help: "Logout operations."},
	{ID: accounts.MetricPasswordChangeSuccess, Name: "accounts_password_change_success_total", Help: "Successful password changes."},
	{ID: accounts.MetricPasswordChangeInvalidOld, Name: "accounts_password_change_invalid_old_total", Help: "Password changes rejected for a wrong current password."},
	{ID: accounts.MetricProfileUpdate, Name: "accounts_profile_update_total", Help: "Profile field updates."},
	{ID: accounts.MetricUploadFailure, Name: "accounts_upload_failure_total", Help: "Object-storage upload failures."},
}

// Exporter renders service metrics for a Prometheus scrape endpoint.
type Exporter struct {
	source metricsSource
}

// NewExporter creates an exporter reading from the given
// [accounts.Service].
func NewExporter(svc *accounts.Service) *Exporter {
	return &Exporter{source: svc}
}

// NewExporterFromSource creates an exporter from a custom source,
// primarily for tests.
func NewExporterFromSource(source metricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler returns an http.Handler serving the current metrics.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(e.Render()))
	})
}

// Render returns the metrics in Prometheus text exposition format.
func (e *Exporter) Render() string {
	if e == nil || e.source == nil {
		return ""
	}

	snapshot := e.source.MetricsSnapshot()
	dropped := e.source.AuditDropped()

	var b strings.Builder
	b.Grow(4096)

	for _, def := range counterDefs {
		writeCounter(&b, def.Name, def.Help, snapshot.Counters[def.ID])
	}

	writeCounter(&b, "accounts_audit_dropped_total", "Dropped audit events due to dispatcher backpressure.", dropped)

	return b.String()
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" counter\n")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
