package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Datagram("in", "alert")
	m.Alert("notified")
	m.Ack()
	m.Reconnect()
	m.SocketError("ECONNREFUSED")
	m.Sync(ResultSuccess)
	m.Login(ResultInvalid)
	m.SetAlarms(1, 2)
	m.SetConnected(true)
	m.SetClockOffset(5)
}

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestRecording(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New()
	m.MustRegister(reg)

	m.Alert("notified")
	m.Alert("notified")
	m.Alert("dropped")
	m.Ack()
	m.SetAlarms(3, 1)
	m.SetConnected(true)

	out := scrape(t, reg)
	for _, want := range []string{
		`dcare_pager_alerts_total{action="notified"} 2`,
		`dcare_pager_alerts_total{action="dropped"} 1`,
		"dcare_pager_acks_total 1",
		"dcare_pager_active_alarms 3",
		"dcare_pager_pending_alarms 1",
		"dcare_pager_connected 1",
	} {
		assert.Contains(t, out, want)
	}

	m.SetConnected(false)
	assert.Contains(t, scrape(t, reg), "dcare_pager_connected 0")
}

func TestRegisterAndServe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New()
	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg), "double registration fails")

	m.Reconnect()

	assert.True(t, strings.Contains(scrape(t, reg), "dcare_pager_reconnects_total 1"))
}
