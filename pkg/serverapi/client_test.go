package serverapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testServer starts an httptest server and returns a client pointed at it
// together with the host string to pass per call.
func testServer(t *testing.T, h http.HandlerFunc) (*Client, string) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.AttemptTimeout = 2 * time.Second
	cfg.Retries = 0
	return NewClient(cfg), u.Host
}

func TestEscalateConfig(t *testing.T) {
	var gotQuery url.Values
	c, host := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/config/escalate_config.json" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query()
		w.Write([]byte(`{"sign_ins":[{"username":"nurse.jane"}],"profiles":{"Night":"Night shift","Ward A":"Ward A"}}`))
	})

	cfg, err := c.EscalateConfig(context.Background(), host, "1234", "Night desk & co")
	require.NoError(t, err)

	assert.Equal(t, "1234", gotQuery.Get("pin"))
	assert.Equal(t, "Night desk & co", gotQuery.Get("name"))
	require.Len(t, cfg.SignIns, 1)
	assert.Equal(t, "nurse.jane", cfg.SignIns[0].Username)
	assert.Equal(t, map[string]string{"Night": "Night shift", "Ward A": "Ward A"}, cfg.Profiles)
}

func TestAlarms(t *testing.T) {
	c, host := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"timestamp":"2026-03-01T12:00:00Z","alarms":[
			{"id":"12","device_name":"Room 1","subject":"Fall","timestamp":"2026-03-01T11:59:00Z","priority":2,"profile_delays":{"Night":30}},
			{"id":"door-a","subject":"Door open"}]}`))
	})

	before := time.Now()
	list, receivedAt, err := c.Alarms(context.Background(), host)
	require.NoError(t, err)

	assert.False(t, receivedAt.Before(before))
	assert.True(t, list.Timestamp.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
	require.Len(t, list.Alarms, 2)
	assert.Equal(t, 2, list.Alarms[0].PriorityOrDefault())
	assert.Equal(t, map[string]int{"Night": 30}, list.Alarms[0].ProfileDelays)
	assert.Equal(t, 4, list.Alarms[1].PriorityOrDefault())
	assert.True(t, list.Alarms[1].Timestamp.IsZero())
}

func TestErrors(t *testing.T) {
	t.Run("NoAddress", func(t *testing.T) {
		c := NewClient(DefaultConfig())
		_, _, err := c.Alarms(context.Background(), "")
		assert.ErrorIs(t, err, ErrNoAddress)
	})

	t.Run("HTTPStatus", func(t *testing.T) {
		c, host := testServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusInternalServerError)
		})
		_, _, err := c.Alarms(context.Background(), host)
		assert.Error(t, err)
	})

	t.Run("BadJSON", func(t *testing.T) {
		c, host := testServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"timestamp":`))
		})
		_, _, err := c.Alarms(context.Background(), host)
		assert.Error(t, err)
	})
}

func TestRetriesWithinOneCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"timestamp":"2026-03-01T12:00:00Z","alarms":[]}`))
	}))
	defer srv.Close()
	u, _ := url.Parse(srv.URL)

	cfg := DefaultConfig()
	cfg.Retries = 3
	c := NewClient(cfg)

	_, _, err := c.Alarms(context.Background(), u.Host)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "stops retrying after the first success")
}

func TestBaseURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 8080
	c := NewClient(cfg)

	u, err := c.BaseURL("10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.5:8080", u.String())

	u, err = NewClient(DefaultConfig()).BaseURL("pager.local")
	require.NoError(t, err)
	assert.Equal(t, "http://pager.local", u.String())
}
